//go:build wasip1

package guest

import (
	"unsafe"

	"github.com/wippyai/safe-url-paths/errors"
)

var module = NewModule(linearMemory{}, newHeap(), nil)

//go:wasmexport alloc
func exportAlloc(size int32) uint32 {
	return module.Alloc(size)
}

//go:wasmexport dealloc
func exportDealloc(ptr uint32, size int32) {
	module.Dealloc(ptr, size)
}

//go:wasmexport interpolate
func exportInterpolate(staticsPtr, dynamicsPtr uint32) uint32 {
	return module.Interpolate(staticsPtr, dynamicsPtr)
}

//go:wasmexport last_error
func exportLastError() uint32 {
	return module.LastError()
}

// linearMemory addresses the module's own wasm memory. Offsets are raw
// addresses; an access past the end traps the instance.
type linearMemory struct{}

func (linearMemory) Read(offset, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if offset == 0 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, []string{"null"}, offset, length)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), length), nil
}

func (m linearMemory) Write(offset uint32, data []byte) error {
	dst, err := m.Read(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (m linearMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (m linearMemory) WriteU32(offset uint32, value uint32) error {
	b, err := m.Read(offset, 4)
	if err != nil {
		return err
	}
	b[0], b[1], b[2], b[3] = byte(value), byte(value>>8), byte(value>>16), byte(value>>24)
	return nil
}

// heap hands out Go-allocated buffers and pins them until dealloc so the
// collector cannot reclaim memory the host still references.
type heap struct {
	pinned map[uint32][]byte
}

func newHeap() *heap {
	return &heap{pinned: make(map[uint32][]byte)}
}

func (h *heap) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	h.pinned[ptr] = buf
	return ptr, nil
}

func (h *heap) Free(ptr, size uint32) error {
	if ptr == 0 && size == 0 {
		return nil
	}
	buf, ok := h.pinned[ptr]
	if !ok {
		return errors.MemoryMisuse(ptr, size, "pointer is not a live allocation")
	}
	if uint32(len(buf)) != size {
		return errors.MemoryMisuse(ptr, size, "size mismatch")
	}
	delete(h.pinned, ptr)
	return nil
}
