package engine

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/guest"
)

// Backend is a loaded guest exposing the alloc / dealloc / interpolate ABI.
// Implementations are not safe for concurrent use.
type Backend interface {
	// Memory returns the guest's linear memory.
	Memory() safepath.Memory
	// Alloc reserves size bytes in guest memory.
	Alloc(ctx context.Context, size uint32) (uint32, error)
	// Dealloc releases a region from Alloc. size must match.
	Dealloc(ctx context.Context, ptr, size uint32) error
	// Interpolate returns a pointer to an owned {ptr, len} output descriptor.
	// A guest-side failure is returned as an error, never as a null pointer.
	Interpolate(ctx context.Context, staticsPtr, dynamicsPtr uint32) (uint32, error)
	// Close releases the guest instance.
	Close(ctx context.Context) error
}

// Kind names a backend implementation.
type Kind string

const (
	KindWazero   Kind = "wazero"
	KindWasmtime Kind = "wasmtime"
	KindNative   Kind = "native"
)

// Config holds configuration for backend creation
type Config struct {
	// Logger receives backend diagnostics. Nil uses the package logger.
	Logger *zap.Logger

	// Stdout and Stderr receive the guest's WASI output (wazero only).
	// Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// Name is the module instance name. Default "safepath".
	Name string

	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the backend default.
	// 256 = 16MB, 1024 = 64MB
	MemoryLimitPages uint32

	// InheritStdio connects guest stdout/stderr to the host process
	// (wasmtime only; wazero uses Stdout/Stderr).
	InheritStdio bool
}

const defaultModuleName = "safepath"

func (c *Config) name() string {
	if c == nil || c.Name == "" {
		return defaultModuleName
	}
	return c.Name
}

func (c *Config) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return Logger()
	}
	return c.Logger
}

// New creates a backend of the given kind. wasm is ignored for KindNative.
func New(ctx context.Context, kind Kind, wasm []byte, cfg *Config) (Backend, error) {
	switch kind {
	case KindWazero:
		return NewWazero(ctx, wasm, cfg)
	case KindWasmtime:
		return NewWasmtime(wasm, cfg)
	case KindNative:
		return NewNative(cfg), nil
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown backend %q", kind))
	}
}

// caller invokes guest exports with i32 parameters.
type caller interface {
	call(ctx context.Context, name string, params ...uint32) ([]uint32, error)
	has(name string) bool
}

// requiredExports are the exports every guest must provide. last_error is
// optional; guests without it report failures only as a null result.
var requiredExports = []string{guest.ExportAlloc, guest.ExportDealloc, guest.ExportInterpolate}

var knownExports = []string{guest.ExportAlloc, guest.ExportDealloc, guest.ExportInterpolate, guest.ExportLastError}

func checkExports(module string, c caller, hasMemory bool) error {
	var missing []string
	for _, name := range requiredExports {
		if !c.has(name) {
			missing = append(missing, name)
		}
	}
	if !hasMemory {
		missing = append(missing, guest.ExportMemory)
	}
	if len(missing) > 0 {
		return errors.NewMissingExportsError(module, missing)
	}
	return nil
}

// exportBackend implements Backend on top of raw export calls. The wazero and
// wasmtime backends differ only in how they call exports and reach memory.
type exportBackend struct {
	caller caller
	mem    safepath.Memory
	logger *zap.Logger
}

func (b *exportBackend) Memory() safepath.Memory {
	return b.mem
}

func (b *exportBackend) Alloc(ctx context.Context, size uint32) (uint32, error) {
	if size > 1<<31-1 {
		return 0, errors.Overflow(errors.PhaseAlloc, []string{guest.ExportAlloc}, size, "i32")
	}
	res, err := b.caller.call(ctx, guest.ExportAlloc, size)
	if err != nil {
		return 0, errors.Call(guest.ExportAlloc, err)
	}
	ptr := first(res)
	if ptr == 0 && size > 0 {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, b.guestError(ctx, guest.ExportAlloc))
	}
	return ptr, nil
}

// Dealloc frees a guest region. The guest records a bad free instead of
// trapping; when it exports last_error the record is collected here and
// returned as memory_misuse, matching the native backend.
func (b *exportBackend) Dealloc(ctx context.Context, ptr, size uint32) error {
	if ptr == 0 && size == 0 {
		return nil
	}
	if err := b.dealloc(ctx, ptr, size); err != nil {
		return err
	}
	msg, ok, err := b.pendingMessage(ctx)
	if err != nil {
		return err
	}
	if ok {
		return errors.New(errors.PhaseAlloc, errors.KindMemoryMisuse).
			Path(guest.ExportDealloc).
			Value(ptr).
			Detail("%s", msg).
			Build()
	}
	return nil
}

func (b *exportBackend) dealloc(ctx context.Context, ptr, size uint32) error {
	if _, err := b.caller.call(ctx, guest.ExportDealloc, ptr, size); err != nil {
		return errors.Call(guest.ExportDealloc, err)
	}
	return nil
}

func (b *exportBackend) Interpolate(ctx context.Context, staticsPtr, dynamicsPtr uint32) (uint32, error) {
	res, err := b.caller.call(ctx, guest.ExportInterpolate, staticsPtr, dynamicsPtr)
	if err != nil {
		return 0, errors.Call(guest.ExportInterpolate, err)
	}
	ptr := first(res)
	if ptr == 0 {
		return 0, b.guestError(ctx, guest.ExportInterpolate)
	}
	return ptr, nil
}

// guestError turns a null result of export into an error carrying the
// pending last_error message, if any.
func (b *exportBackend) guestError(ctx context.Context, export string) error {
	msg, ok, err := b.pendingMessage(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.GuestFailure(export, "returned null")
	}
	return errors.GuestFailure(export, msg)
}

// pendingMessage fetches and frees the pending last_error message. ok is
// false when the guest has no last_error export or nothing is pending.
func (b *exportBackend) pendingMessage(ctx context.Context) (msg string, ok bool, err error) {
	if !b.caller.has(guest.ExportLastError) {
		return "", false, nil
	}
	res, err := b.caller.call(ctx, guest.ExportLastError)
	if err != nil {
		return "", false, errors.Call(guest.ExportLastError, err)
	}
	descPtr := first(res)
	if descPtr == 0 {
		return "", false, nil
	}

	desc, err := abi.ReadDescriptor(b.mem, descPtr)
	if err != nil {
		return "", false, errors.Wrap(errors.PhaseRuntime, errors.KindGuestFailure, err, "read last_error descriptor")
	}
	raw, err := abi.ReadBytes(b.mem, desc)
	if err != nil {
		return "", false, errors.Wrap(errors.PhaseRuntime, errors.KindGuestFailure, err, "read last_error message")
	}

	// raw dealloc: a failure here must not recurse into last_error
	if err := b.dealloc(ctx, desc.Ptr, desc.Len); err != nil {
		b.logger.Warn("free last_error message", zap.Error(err))
	}
	if err := b.dealloc(ctx, descPtr, abi.DescriptorSize); err != nil {
		b.logger.Warn("free last_error descriptor", zap.Error(err))
	}
	return string(raw), true, nil
}

func first(res []uint32) uint32 {
	if len(res) == 0 {
		return 0
	}
	return res[0]
}

// Allocator adapts a backend to safepath.Allocator for calls made under ctx.
func Allocator(ctx context.Context, b Backend) safepath.Allocator {
	return backendAllocator{ctx: ctx, b: b}
}

type backendAllocator struct {
	ctx context.Context
	b   Backend
}

func (a backendAllocator) Alloc(size uint32) (uint32, error) {
	return a.b.Alloc(a.ctx, size)
}

func (a backendAllocator) Free(ptr, size uint32) error {
	return a.b.Dealloc(a.ctx, ptr, size)
}
