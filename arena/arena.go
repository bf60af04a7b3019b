package arena

import (
	"encoding/binary"
	"fmt"
	"sort"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/errors"
)

// PageSize is the wasm page size. The arena grows in whole pages.
const PageSize = 65536

const (
	align = 8
	// offset 0 is the null pointer and never handed out
	reserved = align
)

var (
	_ safepath.Memory      = (*Arena)(nil)
	_ safepath.Allocator   = (*Arena)(nil)
	_ safepath.MemorySizer = (*Arena)(nil)
)

// Config holds arena limits. Zero values select defaults.
type Config struct {
	// InitialPages is the number of pages reserved up front. Default 1.
	InitialPages uint32
	// MaxPages caps growth. Default 256 (16 MiB).
	MaxPages uint32
}

const (
	defaultInitialPages = 1
	defaultMaxPages     = 256
	maxAddressablePages = 65535
)

type span struct {
	off  uint32
	size uint32
}

// Arena is an in-process linear memory with a first-fit allocator.
// Unlike a raw guest heap it checks every Free against the live allocation
// table, so double frees, foreign pointers, and size mismatches are reported.
//
// Arena is not safe for concurrent use.
type Arena struct {
	live     map[uint32]uint32
	mem      []byte
	free     []span
	maxPages uint32
	inUse    uint32
}

// New creates an arena. cfg may be nil.
func New(cfg *Config) *Arena {
	initial, limit := uint32(defaultInitialPages), uint32(defaultMaxPages)
	if cfg != nil {
		if cfg.InitialPages > 0 {
			initial = cfg.InitialPages
		}
		if cfg.MaxPages > 0 {
			limit = cfg.MaxPages
		}
	}
	if limit > maxAddressablePages {
		limit = maxAddressablePages
	}
	if initial > limit {
		initial = limit
	}

	size := uint64(initial) * PageSize
	a := &Arena{
		live:     make(map[uint32]uint32),
		mem:      make([]byte, size),
		maxPages: limit,
	}
	a.free = []span{{off: reserved, size: uint32(size - reserved)}}
	return a
}

// Alloc reserves size bytes, 8-byte aligned. A zero size returns 0.
func (a *Arena) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	rounded, ok := alignUp(size)
	if !ok || uint64(rounded) > uint64(a.maxPages)*PageSize {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, fmt.Errorf("exceeds memory limit of %d pages", a.maxPages))
	}

	idx := a.firstFit(rounded)
	if idx < 0 {
		if err := a.grow(rounded); err != nil {
			return 0, errors.AllocationFailed(errors.PhaseAlloc, size, err)
		}
		idx = a.firstFit(rounded)
		if idx < 0 {
			return 0, errors.AllocationFailed(errors.PhaseAlloc, size, fmt.Errorf("no free span after grow"))
		}
	}

	s := a.free[idx]
	ptr := s.off
	if s.size == rounded {
		a.free = append(a.free[:idx], a.free[idx+1:]...)
	} else {
		a.free[idx] = span{off: s.off + rounded, size: s.size - rounded}
	}

	a.live[ptr] = size
	a.inUse += rounded
	return ptr, nil
}

// Free releases a region returned by Alloc. size must match the Alloc call.
// Free(0, 0) is a no-op.
func (a *Arena) Free(ptr, size uint32) error {
	if ptr == 0 && size == 0 {
		return nil
	}
	allocated, ok := a.live[ptr]
	if !ok {
		return errors.MemoryMisuse(ptr, size, "pointer is not a live allocation")
	}
	if allocated != size {
		return errors.MemoryMisuse(ptr, size, fmt.Sprintf("size mismatch, allocated %d", allocated))
	}

	delete(a.live, ptr)
	rounded, _ := alignUp(size)
	a.inUse -= rounded
	clear(a.mem[ptr : ptr+rounded])
	a.release(span{off: ptr, size: rounded})
	return nil
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int {
	return len(a.live)
}

// InUse returns the number of bytes held by outstanding allocations,
// including alignment padding.
func (a *Arena) InUse() uint32 {
	return a.inUse
}

// Size returns the current memory size in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.mem))
}

// Read returns a view of length bytes at offset. The view aliases arena
// memory and is invalidated by the next Alloc that grows the arena.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	if !a.inBounds(offset, length) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, offset, length)
	}
	return a.mem[offset : offset+length : offset+length], nil
}

// Write copies data into memory at offset.
func (a *Arena) Write(offset uint32, data []byte) error {
	if uint64(len(data)) > uint64(^uint32(0)) || !a.inBounds(offset, uint32(len(data))) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, offset, uint32(len(data)))
	}
	copy(a.mem[offset:], data)
	return nil
}

// ReadU32 reads a little-endian uint32.
func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	if !a.inBounds(offset, 4) {
		return 0, errors.OutOfBounds(errors.PhaseDecode, nil, offset, 4)
	}
	return binary.LittleEndian.Uint32(a.mem[offset:]), nil
}

// WriteU32 writes a little-endian uint32.
func (a *Arena) WriteU32(offset uint32, value uint32) error {
	if !a.inBounds(offset, 4) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, offset, 4)
	}
	binary.LittleEndian.PutUint32(a.mem[offset:], value)
	return nil
}

func (a *Arena) inBounds(offset, length uint32) bool {
	return uint64(offset)+uint64(length) <= uint64(len(a.mem))
}

func (a *Arena) firstFit(size uint32) int {
	for i, s := range a.free {
		if s.size >= size {
			return i
		}
	}
	return -1
}

// grow adds enough pages for a size-byte allocation at the end of memory.
func (a *Arena) grow(size uint32) error {
	end := uint64(len(a.mem))
	need := uint64(size)
	if n := len(a.free); n > 0 {
		last := a.free[n-1]
		if uint64(last.off)+uint64(last.size) == end {
			need -= uint64(last.size)
		}
	}

	pages := (need + PageSize - 1) / PageSize
	current := end / PageSize
	if current+pages > uint64(a.maxPages) {
		return fmt.Errorf("grow by %d pages exceeds limit of %d", pages, a.maxPages)
	}

	a.mem = append(a.mem, make([]byte, pages*PageSize)...)
	a.release(span{off: uint32(end), size: uint32(pages * PageSize)})
	return nil
}

// release returns s to the free list, keeping it sorted and coalesced.
func (a *Arena) release(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > s.off })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s

	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

func alignUp(size uint32) (uint32, bool) {
	r := (uint64(size) + align - 1) &^ (align - 1)
	if r > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(r), true
}
