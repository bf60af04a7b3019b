package abi

import (
	stderrors "errors"
	"sync"
)

// Allocation is a region obtained from Allocator.Alloc.
type Allocation struct {
	Ptr  uint32
	Size uint32
}

// Free releases the region. A zero allocation is a no-op.
func (a Allocation) Free(allocator Allocator) error {
	if a.Ptr == 0 && a.Size == 0 {
		return nil
	}
	return allocator.Free(a.Ptr, a.Size)
}

// AllocationList collects regions that must be released together, such as
// the packed dynamics, the output buffer, and the output descriptor of one
// interpolate call.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 4)}
	},
}

func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 64

// Release returns to pool. Must call after Free(); list invalid after Release.
func (al *AllocationList) Release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

// FreeAndRelease frees every region and returns the list to the pool.
func (al *AllocationList) FreeAndRelease(allocator Allocator) error {
	err := al.Free(allocator)
	al.Release()
	return err
}

func (al *AllocationList) Add(a Allocation) {
	al.allocations = append(al.allocations, a)
}

// Free releases every region in reverse order of Add and joins the errors.
func (al *AllocationList) Free(allocator Allocator) error {
	if allocator == nil {
		return nil
	}
	var errs []error
	for i := len(al.allocations) - 1; i >= 0; i-- {
		if err := al.allocations[i].Free(allocator); err != nil {
			errs = append(errs, err)
		}
	}
	al.allocations = al.allocations[:0]
	return stderrors.Join(errs...)
}

func (al *AllocationList) Reset() {
	al.allocations = al.allocations[:0]
}

func (al *AllocationList) Count() int {
	return len(al.allocations)
}
