package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/guest"
)

// reactorInit is the init export of a wasip1 reactor (c-shared) module.
const reactorInit = "_initialize"

// Wazero runs the guest on the pure-Go wazero runtime.
type Wazero struct {
	exportBackend
	runtime wazero.Runtime
	module  api.Module
	funcs   map[string]api.Function
}

var _ Backend = (*Wazero)(nil)

// NewWazero compiles and instantiates wasm with WASI preview1 available.
// cfg may be nil.
func NewWazero(ctx context.Context, wasm []byte, cfg *Config) (*Wazero, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	w, err := instantiateWazero(ctx, rt, wasm, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return w, nil
}

func instantiateWazero(ctx context.Context, rt wazero.Runtime, wasm []byte, cfg *Config) (*Wazero, error) {
	logger := cfg.logger()

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Load("instantiate wasi_snapshot_preview1", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile failed", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName(cfg.name()).
		WithStartFunctions(reactorInit)
	if cfg != nil {
		if cfg.Stdout != nil {
			modCfg = modCfg.WithStdout(cfg.Stdout)
		}
		if cfg.Stderr != nil {
			modCfg = modCfg.WithStderr(cfg.Stderr)
		}
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	w := &Wazero{
		runtime: rt,
		module:  mod,
		funcs:   make(map[string]api.Function),
	}
	for _, name := range knownExports {
		if fn := mod.ExportedFunction(name); fn != nil {
			w.funcs[name] = fn
		}
	}

	mem := mod.ExportedMemory(guest.ExportMemory)
	if err := checkExports(cfg.name(), w, mem != nil); err != nil {
		return nil, err
	}

	w.exportBackend = exportBackend{
		caller: w,
		mem:    WrapMemory(mem),
		logger: logger,
	}

	logger.Debug("wazero guest instantiated",
		zap.String("module", cfg.name()),
		zap.Uint32("memory_bytes", mem.Size()),
		zap.Bool("last_error", w.has(guest.ExportLastError)))
	return w, nil
}

func (w *Wazero) has(name string) bool {
	_, ok := w.funcs[name]
	return ok
}

func (w *Wazero) call(ctx context.Context, name string, params ...uint32) ([]uint32, error) {
	fn, ok := w.funcs[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	args := make([]uint64, len(params))
	for i, p := range params {
		args[i] = api.EncodeU32(p)
	}
	res, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, len(res))
	for i, r := range res {
		out[i] = api.DecodeU32(r)
	}
	return out, nil
}

// Close releases the module and the runtime.
func (w *Wazero) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}
