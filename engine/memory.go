package engine

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"github.com/tetratelabs/wazero/api"

	safepath "github.com/wippyai/safe-url-paths"
)

var (
	_ safepath.Memory      = (*WazeroMemory)(nil)
	_ safepath.MemorySizer = (*WazeroMemory)(nil)
	_ safepath.Memory      = (*wasmtimeMemory)(nil)
	_ safepath.MemorySizer = (*wasmtimeMemory)(nil)
)

// WrapMemory wraps a wazero api.Memory to implement safepath.Memory.
func WrapMemory(mem api.Memory) *WazeroMemory {
	if mem == nil {
		return nil
	}
	return &WazeroMemory{Mem: mem}
}

// WazeroMemory adapts wazero api.Memory to the safepath.Memory interface.
type WazeroMemory struct {
	Mem api.Memory
}

// Read returns a view of guest memory. The view is invalidated when the
// guest grows its memory.
func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// Size returns the memory size in bytes.
func (m *WazeroMemory) Size() uint32 {
	return m.Mem.Size()
}

// wasmtimeMemory adapts a wasmtime exported memory. The backing slice is
// fetched on every access because the guest may grow memory between calls.
type wasmtimeMemory struct {
	store *wasmtime.Store
	mem   *wasmtime.Memory
}

func (m *wasmtimeMemory) data() []byte {
	data := m.mem.UnsafeData(m.store)
	runtime.KeepAlive(m.mem)
	return data
}

func (m *wasmtimeMemory) span(offset, length uint32) ([]byte, bool) {
	data := m.data()
	end := uint64(offset) + uint64(length)
	if end > uint64(len(data)) {
		return nil, false
	}
	return data[offset:end], true
}

// Read copies bytes out of guest memory.
func (m *wasmtimeMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.span(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return append([]byte(nil), b...), nil
}

func (m *wasmtimeMemory) Write(offset uint32, data []byte) error {
	b, ok := m.span(offset, uint32(len(data)))
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(b, data)
	return nil
}

func (m *wasmtimeMemory) ReadU32(offset uint32) (uint32, error) {
	b, ok := m.span(offset, 4)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *wasmtimeMemory) WriteU32(offset uint32, value uint32) error {
	b, ok := m.span(offset, 4)
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *wasmtimeMemory) Size() uint32 {
	return uint32(m.mem.DataSize(m.store))
}
