package safepath

// Memory represents guest linear memory. Offsets are 32-bit, values are
// little-endian.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator reserves and releases regions of linear memory.
// Free must be called with the exact size passed to Alloc.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(ptr, size uint32) error
}
