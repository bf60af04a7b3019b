package abi

import (
	"strconv"

	safepath "github.com/wippyai/safe-url-paths"
	"github.com/wippyai/safe-url-paths/errors"
)

type Memory = safepath.Memory
type Allocator = safepath.Allocator

const (
	// WordSize is the width of every pointer and length field (wasm32).
	WordSize = 4
	// DescriptorSize is the size of a {ptr, len} string descriptor.
	DescriptorSize = 2 * WordSize
	// ArrayHeaderSize is the size of a {ptr, count} string array header.
	ArrayHeaderSize = 2 * WordSize
)

// StringDescriptor is a borrowed {ptr, len} view of bytes in linear memory.
// The interpolate result uses the same shape but is owned by the caller.
type StringDescriptor struct {
	Ptr uint32
	Len uint32
}

// StringArray is a {ptr, count} header pointing at count contiguous descriptors.
type StringArray struct {
	Ptr   uint32
	Count uint32
}

// ReadDescriptor reads the descriptor stored at ptr.
func ReadDescriptor(mem Memory, ptr uint32) (StringDescriptor, error) {
	p, err := mem.ReadU32(ptr)
	if err != nil {
		return StringDescriptor{}, err
	}
	n, err := mem.ReadU32(ptr + WordSize)
	if err != nil {
		return StringDescriptor{}, err
	}
	return StringDescriptor{Ptr: p, Len: n}, nil
}

// WriteDescriptor stores d at ptr.
func WriteDescriptor(mem Memory, ptr uint32, d StringDescriptor) error {
	if err := mem.WriteU32(ptr, d.Ptr); err != nil {
		return err
	}
	return mem.WriteU32(ptr+WordSize, d.Len)
}

// ReadStringArray reads the array header at ptr.
func ReadStringArray(mem Memory, ptr uint32) (StringArray, error) {
	if ptr == 0 {
		return StringArray{}, errors.InvalidInput(errors.PhaseDecode, "null string array pointer")
	}
	d, err := ReadDescriptor(mem, ptr)
	if err != nil {
		return StringArray{}, err
	}
	return StringArray{Ptr: d.Ptr, Count: d.Len}, nil
}

// Descriptors reads all descriptors of the array in one bounds-checked read.
func (a StringArray) Descriptors(mem Memory, name string) ([]StringDescriptor, error) {
	if a.Count == 0 {
		return nil, nil
	}
	total := uint64(a.Count) * DescriptorSize
	if total > uint64(^uint32(0)) || uint64(a.Ptr)+total > uint64(^uint32(0))+1 {
		return nil, errors.Overflow(errors.PhaseDecode, []string{name}, a.Count, "descriptor array")
	}

	raw, err := mem.Read(a.Ptr, uint32(total))
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path(name).
			Detail("descriptor array at %d with %d entries", a.Ptr, a.Count).
			Cause(err).
			Build()
	}

	out := make([]StringDescriptor, a.Count)
	for i := range out {
		off := i * DescriptorSize
		out[i] = StringDescriptor{
			Ptr: le32(raw[off:]),
			Len: le32(raw[off+WordSize:]),
		}
	}
	return out, nil
}

// ReadFragments reads the array at ptr and returns a view of every fragment.
// Views alias linear memory and must not be held across an allocation.
func ReadFragments(mem Memory, ptr uint32, name string) ([][]byte, error) {
	arr, err := ReadStringArray(mem, ptr)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Path(name).
			Detail("read array header").
			Cause(err).
			Build()
	}
	descs, err := arr.Descriptors(mem, name)
	if err != nil {
		return nil, err
	}

	frags := make([][]byte, len(descs))
	for i, d := range descs {
		if d.Len == 0 {
			frags[i] = nil
			continue
		}
		b, err := mem.Read(d.Ptr, d.Len)
		if err != nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
				Path(name, strconv.Itoa(i)).
				Detail("fragment at %d with length %d", d.Ptr, d.Len).
				Cause(err).
				Build()
		}
		frags[i] = b
	}
	return frags, nil
}

// ReadBytes copies the bytes referenced by d out of linear memory.
func ReadBytes(mem Memory, d StringDescriptor) ([]byte, error) {
	if d.Len == 0 {
		return []byte{}, nil
	}
	b, err := mem.Read(d.Ptr, d.Len)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func le32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
