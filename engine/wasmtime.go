package engine

import (
	"context"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"go.uber.org/zap"

	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/guest"
)

// Wasmtime runs the guest on wasmtime through cgo.
type Wasmtime struct {
	exportBackend
	store    *wasmtime.Store
	instance *wasmtime.Instance
	funcs    map[string]*wasmtime.Func
	closed   bool
}

var _ Backend = (*Wasmtime)(nil)

// NewWasmtime compiles and instantiates wasm with WASI linked in.
// cfg may be nil.
func NewWasmtime(wasm []byte, cfg *Config) (*Wasmtime, error) {
	logger := cfg.logger()

	engine := wasmtime.NewEngineWithConfig(wasmtime.NewConfig())
	store := wasmtime.NewStore(engine)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		// memory size, table elements, instances, tables, memories; -1 keeps the default
		store.Limiter(int64(cfg.MemoryLimitPages)*65536, -1, -1, -1, -1)
	}

	wasiCfg := wasmtime.NewWasiConfig()
	if cfg != nil && cfg.InheritStdio {
		wasiCfg.InheritStdout()
		wasiCfg.InheritStderr()
	}
	store.SetWasi(wasiCfg)

	module, err := wasmtime.NewModule(engine, wasm)
	if err != nil {
		return nil, errors.Load("compile failed", err)
	}

	linker := wasmtime.NewLinker(engine)
	if err := linker.DefineWasi(); err != nil {
		return nil, errors.Load("define wasi", err)
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	if init := instance.GetFunc(store, reactorInit); init != nil {
		if _, err := init.Call(store); err != nil {
			return nil, errors.Instantiation(fmt.Errorf("%s: %w", reactorInit, err))
		}
	}

	w := &Wasmtime{
		store:    store,
		instance: instance,
		funcs:    make(map[string]*wasmtime.Func),
	}
	for _, name := range knownExports {
		if fn := instance.GetFunc(store, name); fn != nil {
			w.funcs[name] = fn
		}
	}

	var mem *wasmtime.Memory
	if ext := instance.GetExport(store, guest.ExportMemory); ext != nil {
		mem = ext.Memory()
	}
	if err := checkExports(cfg.name(), w, mem != nil); err != nil {
		return nil, err
	}

	w.exportBackend = exportBackend{
		caller: w,
		mem:    &wasmtimeMemory{store: store, mem: mem},
		logger: logger,
	}

	logger.Debug("wasmtime guest instantiated",
		zap.String("module", cfg.name()),
		zap.Bool("last_error", w.has(guest.ExportLastError)))
	return w, nil
}

func (w *Wasmtime) has(name string) bool {
	_, ok := w.funcs[name]
	return ok
}

func (w *Wasmtime) call(_ context.Context, name string, params ...uint32) ([]uint32, error) {
	if w.closed {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "wasmtime instance")
	}
	fn, ok := w.funcs[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = int32(p)
	}
	result, err := fn.Call(w.store, args...)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case nil:
		return nil, nil
	case int32:
		return []uint32{uint32(v)}, nil
	case int64:
		return []uint32{uint32(v)}, nil
	default:
		return nil, fmt.Errorf("%s: unexpected result type %T", name, result)
	}
}

// Close drops the instance. wasmtime frees the store when it is collected.
func (w *Wasmtime) Close(context.Context) error {
	w.closed = true
	w.funcs = nil
	w.instance = nil
	return nil
}
