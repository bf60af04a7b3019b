package engine

import (
	"context"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/arena"
	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/guest"
)

// Native runs the guest entry points in-process over an arena. It needs no
// wasm binary and reports the same failures as a compiled guest, with the
// typed error intact instead of a flattened last_error message.
type Native struct {
	module *guest.Module
	arena  *arena.Arena
	closed bool
}

var _ Backend = (*Native)(nil)

// NewNative creates an in-process backend. cfg may be nil.
func NewNative(cfg *Config) *Native {
	var limit uint32
	if cfg != nil {
		limit = cfg.MemoryLimitPages
	}
	mem := arena.New(&arena.Config{MaxPages: limit})
	return &Native{
		module: guest.NewModule(mem, mem, cfg.logger()),
		arena:  mem,
	}
}

// Arena exposes the backing arena for leak checks.
func (n *Native) Arena() *arena.Arena {
	return n.arena
}

func (n *Native) Memory() safepath.Memory {
	return n.arena
}

func (n *Native) Alloc(_ context.Context, size uint32) (uint32, error) {
	if n.closed {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "native backend")
	}
	if size > 1<<31-1 {
		return 0, errors.Overflow(errors.PhaseAlloc, []string{guest.ExportAlloc}, size, "i32")
	}
	ptr := n.module.Alloc(int32(size))
	if ptr == 0 && size > 0 {
		return 0, n.module.TakeError()
	}
	return ptr, nil
}

func (n *Native) Dealloc(_ context.Context, ptr, size uint32) error {
	if n.closed {
		return errors.NotInitialized(errors.PhaseRuntime, "native backend")
	}
	if ptr == 0 && size == 0 {
		return nil
	}
	if size > 1<<31-1 {
		return errors.MemoryMisuse(ptr, size, "size exceeds i32")
	}
	n.module.Dealloc(ptr, int32(size))
	return n.module.TakeError()
}

func (n *Native) Interpolate(_ context.Context, staticsPtr, dynamicsPtr uint32) (uint32, error) {
	if n.closed {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "native backend")
	}
	ptr := n.module.Interpolate(staticsPtr, dynamicsPtr)
	if ptr == 0 {
		if err := n.module.TakeError(); err != nil {
			return 0, err
		}
		return 0, errors.GuestFailure(guest.ExportInterpolate, "returned null")
	}
	return ptr, nil
}

func (n *Native) Close(context.Context) error {
	n.closed = true
	return nil
}
