package abi

import (
	"github.com/wippyai/safe-url-paths/errors"
)

// PackedSize returns the size of the single region Pack writes for frags:
// the array header, one descriptor per fragment, then the fragment bytes.
func PackedSize(frags [][]byte) (uint32, error) {
	total := uint64(ArrayHeaderSize) + uint64(len(frags))*DescriptorSize
	for _, f := range frags {
		total += uint64(len(f))
	}
	if total > uint64(^uint32(0)) {
		return 0, errors.Overflow(errors.PhaseEncode, []string{"pack"}, total, "u32")
	}
	return uint32(total), nil
}

// Pack allocates one region and lays out frags as a string array:
//
//	[ptr, count][ptr0, len0][ptr1, len1]...[bytes0][bytes1]...
//
// The returned allocation starts with the array header, so its Ptr is what
// interpolate expects. The caller owns it and frees it with its Size.
func Pack(mem Memory, alloc Allocator, frags [][]byte) (Allocation, error) {
	size, err := PackedSize(frags)
	if err != nil {
		return Allocation{}, err
	}

	base, err := alloc.Alloc(size)
	if err != nil {
		return Allocation{}, errors.AllocationFailedOnce(errors.PhaseEncode, size, err)
	}
	region := Allocation{Ptr: base, Size: size}

	if err := writePacked(mem, base, frags); err != nil {
		_ = alloc.Free(base, size)
		return Allocation{}, err
	}
	return region, nil
}

func writePacked(mem Memory, base uint32, frags [][]byte) error {
	descBase := base + ArrayHeaderSize
	dataOff := descBase + uint32(len(frags))*DescriptorSize

	if err := WriteDescriptor(mem, base, StringDescriptor{Ptr: descBase, Len: uint32(len(frags))}); err != nil {
		return err
	}

	for i, f := range frags {
		n := uint32(len(f))
		if err := WriteDescriptor(mem, descBase+uint32(i)*DescriptorSize, StringDescriptor{Ptr: dataOff, Len: n}); err != nil {
			return err
		}
		if n > 0 {
			if err := mem.Write(dataOff, f); err != nil {
				return err
			}
		}
		dataOff += n
	}
	return nil
}

// Strings converts ss to byte fragments for Pack.
func Strings(ss []string) [][]byte {
	frags := make([][]byte, len(ss))
	for i, s := range ss {
		frags[i] = []byte(s)
	}
	return frags
}
