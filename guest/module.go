package guest

import (
	"go.uber.org/zap"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/interp"
)

// Export names of the guest ABI.
const (
	ExportAlloc       = "alloc"
	ExportDealloc     = "dealloc"
	ExportInterpolate = "interpolate"
	ExportLastError   = "last_error"
	ExportMemory      = "memory"
)

// Module implements the guest entry points over a memory and an allocator.
// Each method has the integer-only signature of the matching export.
//
// Module is not safe for concurrent use.
type Module struct {
	mem     safepath.Memory
	alloc   safepath.Allocator
	engine  *interp.Engine
	logger  *zap.Logger
	lastErr error
}

// NewModule creates a module. A nil logger uses the interp package logger.
func NewModule(mem safepath.Memory, alloc safepath.Allocator, logger *zap.Logger) *Module {
	if logger == nil {
		logger = interp.Logger()
	}
	return &Module{
		mem:    mem,
		alloc:  alloc,
		engine: interp.NewEngine(logger),
		logger: logger,
	}
}

// Memory returns the module's linear memory.
func (m *Module) Memory() safepath.Memory {
	return m.mem
}

// Alloc reserves size bytes and returns their offset, or 0 when size is not
// positive or the allocation fails.
func (m *Module) Alloc(size int32) uint32 {
	if size <= 0 {
		return 0
	}
	ptr, err := m.alloc.Alloc(uint32(size))
	if err != nil {
		m.fail(err)
		return 0
	}
	return ptr
}

// Dealloc releases a region obtained from Alloc. A mismatched size or foreign
// pointer is outside the protocol; the error is recorded, never raised.
func (m *Module) Dealloc(ptr uint32, size int32) {
	if size < 0 {
		m.fail(errors.MemoryMisuse(ptr, uint32(size), "negative size"))
		return
	}
	if err := m.alloc.Free(ptr, uint32(size)); err != nil {
		m.fail(err)
	}
}

// Interpolate runs the engine and returns the output descriptor pointer, or 0
// on failure. The failure is available through LastError.
func (m *Module) Interpolate(staticsPtr, dynamicsPtr uint32) uint32 {
	desc, err := m.engine.Call(m.mem, m.alloc, staticsPtr, dynamicsPtr)
	if err != nil {
		m.fail(err)
		return 0
	}
	m.lastErr = nil
	return desc
}

// LastError moves the pending error message into a new owned descriptor and
// returns its pointer, or 0 when nothing failed since the last read. The
// caller frees the descriptor and its buffer like an interpolate result.
func (m *Module) LastError() uint32 {
	err := m.TakeError()
	if err == nil {
		return 0
	}

	msg := []byte(err.Error())
	n := uint32(len(msg))
	buf, aerr := m.alloc.Alloc(n)
	if aerr != nil {
		m.logger.Warn("allocate last_error message", zap.Error(aerr))
		return 0
	}
	if werr := m.mem.Write(buf, msg); werr != nil {
		_ = m.alloc.Free(buf, n)
		return 0
	}

	desc, aerr := m.alloc.Alloc(abi.DescriptorSize)
	if aerr != nil {
		_ = m.alloc.Free(buf, n)
		return 0
	}
	if werr := abi.WriteDescriptor(m.mem, desc, abi.StringDescriptor{Ptr: buf, Len: n}); werr != nil {
		_ = m.alloc.Free(buf, n)
		_ = m.alloc.Free(desc, abi.DescriptorSize)
		return 0
	}
	return desc
}

// TakeError returns and clears the pending error.
func (m *Module) TakeError() error {
	err := m.lastErr
	m.lastErr = nil
	return err
}

func (m *Module) fail(err error) {
	m.logger.Debug("guest call failed", zap.Error(err))
	m.lastErr = err
}
