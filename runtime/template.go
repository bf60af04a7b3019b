package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/engine"
	"github.com/wippyai/safe-url-paths/errors"
)

// Template is a path template whose statics live in guest memory.
type Template struct {
	rt      *Runtime
	statics abi.Allocation
	holes   int
	closed  bool
}

// Holes returns the number of dynamic slots, len(statics)-1. Extra dynamics
// passed to Interpolate are ignored; missing ones end the output early.
func (t *Template) Holes() int {
	return t.holes
}

// Interpolate escapes dynamics into the template and returns the path.
// All guest memory used by the call is released before it returns.
func (t *Template) Interpolate(ctx context.Context, dynamics []string) (string, error) {
	r := t.rt
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := t.interpolate(ctx, dynamics)
	r.metrics.observe(out, err)
	if err != nil {
		r.logger.Debug("interpolate failed", zap.Int("dynamics", len(dynamics)), zap.Error(err))
	}
	return out, err
}

func (t *Template) interpolate(ctx context.Context, dynamics []string) (string, error) {
	r := t.rt
	if t.closed || r.closed {
		return "", errors.NotInitialized(errors.PhaseRuntime, "template")
	}

	mem := r.backend.Memory()
	alloc := engine.Allocator(ctx, r.backend)
	owned := abi.NewAllocationList()
	defer owned.Release()

	release := func(err error) (string, error) {
		if ferr := owned.Free(alloc); ferr != nil {
			r.logger.Warn("release interpolate memory", zap.Error(ferr))
		}
		return "", err
	}

	d, err := abi.Pack(mem, alloc, abi.Strings(dynamics))
	if err != nil {
		return "", err
	}
	owned.Add(d)

	descPtr, err := r.backend.Interpolate(ctx, t.statics.Ptr, d.Ptr)
	if err != nil {
		return release(err)
	}
	owned.Add(abi.Allocation{Ptr: descPtr, Size: abi.DescriptorSize})

	desc, err := abi.ReadDescriptor(mem, descPtr)
	if err != nil {
		return release(err)
	}
	owned.Add(abi.Allocation{Ptr: desc.Ptr, Size: desc.Len})

	out, err := abi.ReadBytes(mem, desc)
	if err != nil {
		return release(err)
	}
	if err := owned.Free(alloc); err != nil {
		return "", err
	}
	return string(out), nil
}

// Close frees the statics. It is safe to call more than once.
func (t *Template) Close(ctx context.Context) error {
	r := t.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	r.metrics.closed()
	if r.closed {
		return nil
	}
	return t.statics.Free(engine.Allocator(ctx, r.backend))
}
