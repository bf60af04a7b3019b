package interp

import (
	"go.uber.org/zap"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/errors"
)

// Engine runs Interpolate against string arrays stored in linear memory.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger uses the package logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = Logger()
	}
	return &Engine{logger: logger}
}

// Call reads the statics and dynamics arrays at the given pointers, writes
// the escaped result into a new buffer, and returns a pointer to a new
// {ptr, len} descriptor for it.
//
// Input memory is only read, never freed. The caller owns the returned
// descriptor (abi.DescriptorSize bytes) and the buffer it points to. On error
// nothing allocated by Call remains live.
func (e *Engine) Call(mem safepath.Memory, alloc safepath.Allocator, staticsPtr, dynamicsPtr uint32) (uint32, error) {
	statics, err := abi.ReadFragments(mem, staticsPtr, "statics")
	if err != nil {
		return 0, err
	}
	dynamics, err := abi.ReadFragments(mem, dynamicsPtr, "dynamics")
	if err != nil {
		return 0, err
	}

	out, err := Interpolate(statics, dynamics)
	if err != nil {
		e.logger.Debug("interpolate rejected input",
			zap.Int("statics", len(statics)),
			zap.Int("dynamics", len(dynamics)),
			zap.Error(err))
		return 0, err
	}
	if len(dynamics) > len(statics)-1 {
		e.logger.Debug("ignoring excess dynamics",
			zap.Int("statics", len(statics)),
			zap.Int("dynamics", len(dynamics)))
	}

	owned := abi.NewAllocationList()
	defer owned.Release()

	fail := func(err error) (uint32, error) {
		if ferr := owned.Free(alloc); ferr != nil {
			e.logger.Warn("release after failed interpolate", zap.Error(ferr))
		}
		return 0, err
	}

	n := uint32(len(out))
	buf, err := alloc.Alloc(n)
	if err != nil {
		return fail(errors.AllocationFailedOnce(errors.PhaseInterpolate, n, err))
	}
	owned.Add(abi.Allocation{Ptr: buf, Size: n})
	if n > 0 {
		if err := mem.Write(buf, out); err != nil {
			return fail(err)
		}
	}

	desc, err := alloc.Alloc(abi.DescriptorSize)
	if err != nil {
		return fail(errors.AllocationFailedOnce(errors.PhaseInterpolate, abi.DescriptorSize, err))
	}
	owned.Add(abi.Allocation{Ptr: desc, Size: abi.DescriptorSize})
	if err := abi.WriteDescriptor(mem, desc, abi.StringDescriptor{Ptr: buf, Len: n}); err != nil {
		return fail(err)
	}

	e.logger.Debug("interpolated",
		zap.Int("statics", len(statics)),
		zap.Int("dynamics", len(dynamics)),
		zap.Uint32("bytes", n),
		zap.Uint32("descriptor", desc))
	return desc, nil
}
