package arena

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/wippyai/safe-url-paths/errors"
)

var misuse = &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindMemoryMisuse}

func TestAlloc_RoundTrip(t *testing.T) {
	a := New(nil)

	const n = 37
	ptr, err := a.Alloc(n)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if ptr == 0 {
		t.Fatal("Alloc returned null pointer")
	}
	if ptr%align != 0 {
		t.Errorf("ptr %d not %d-byte aligned", ptr, align)
	}

	data := bytes.Repeat([]byte{0xAB}, n)
	if err := a.Write(ptr, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := a.Read(ptr, n)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %x, want %x", got, data)
	}

	if err := a.Free(ptr, n); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if a.Live() != 0 || a.InUse() != 0 {
		t.Errorf("Live=%d InUse=%d after free", a.Live(), a.InUse())
	}
}

func TestAlloc_ZeroSize(t *testing.T) {
	a := New(nil)
	ptr, err := a.Alloc(0)
	if err != nil || ptr != 0 {
		t.Fatalf("Alloc(0) = %d, %v", ptr, err)
	}
	if err := a.Free(0, 0); err != nil {
		t.Errorf("Free(0, 0) = %v", err)
	}
}

func TestAlloc_Distinct(t *testing.T) {
	a := New(nil)
	seen := make(map[uint32]bool)
	for i := uint32(1); i <= 64; i++ {
		ptr, err := a.Alloc(i)
		if err != nil {
			t.Fatalf("Alloc(%d): %v", i, err)
		}
		if seen[ptr] {
			t.Fatalf("pointer %d handed out twice", ptr)
		}
		seen[ptr] = true
	}
	if a.Live() != 64 {
		t.Errorf("Live = %d, want 64", a.Live())
	}
}

func TestFree_Misuse(t *testing.T) {
	tests := []struct {
		name string
		run  func(a *Arena) error
	}{
		{
			name: "double free",
			run: func(a *Arena) error {
				ptr, _ := a.Alloc(16)
				if err := a.Free(ptr, 16); err != nil {
					return nil
				}
				return a.Free(ptr, 16)
			},
		},
		{
			name: "size mismatch",
			run: func(a *Arena) error {
				ptr, _ := a.Alloc(16)
				return a.Free(ptr, 8)
			},
		},
		{
			name: "foreign pointer",
			run: func(a *Arena) error {
				return a.Free(1234, 4)
			},
		},
		{
			name: "interior pointer",
			run: func(a *Arena) error {
				ptr, _ := a.Alloc(32)
				return a.Free(ptr+8, 24)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(New(nil))
			if !stderrors.Is(err, misuse) {
				t.Errorf("got %v, want memory_misuse", err)
			}
		})
	}
}

func TestFree_MismatchKeepsAllocation(t *testing.T) {
	a := New(nil)
	ptr, _ := a.Alloc(16)
	if err := a.Free(ptr, 15); err == nil {
		t.Fatal("expected size mismatch")
	}
	if a.Live() != 1 {
		t.Fatalf("Live = %d, want 1", a.Live())
	}
	if err := a.Free(ptr, 16); err != nil {
		t.Errorf("Free with correct size: %v", err)
	}
}

func TestFree_Reuse(t *testing.T) {
	a := New(nil)
	p1, _ := a.Alloc(100)
	p2, _ := a.Alloc(100)
	if err := a.Free(p1, 100); err != nil {
		t.Fatal(err)
	}
	p3, _ := a.Alloc(64)
	if p3 != p1 {
		t.Errorf("first fit should reuse %d, got %d", p1, p3)
	}
	_ = p2
}

func TestFree_Coalesce(t *testing.T) {
	a := New(nil)
	p1, _ := a.Alloc(64)
	p2, _ := a.Alloc(64)
	p3, _ := a.Alloc(64)

	for _, p := range []uint32{p1, p3, p2} {
		if err := a.Free(p, 64); err != nil {
			t.Fatal(err)
		}
	}
	if len(a.free) != 1 {
		t.Fatalf("free list has %d spans, want 1: %+v", len(a.free), a.free)
	}
	if a.free[0].off != reserved || a.free[0].size != a.Size()-reserved {
		t.Errorf("free span = %+v", a.free[0])
	}
}

func TestFree_ClearsMemory(t *testing.T) {
	a := New(nil)
	ptr, _ := a.Alloc(8)
	_ = a.Write(ptr, []byte("secret!!"))
	_ = a.Free(ptr, 8)

	got, _ := a.Read(ptr, 8)
	if !bytes.Equal(got, make([]byte, 8)) {
		t.Errorf("freed memory not cleared: %q", got)
	}
}

func TestGrow(t *testing.T) {
	a := New(&Config{InitialPages: 1, MaxPages: 4})

	ptr, err := a.Alloc(2 * PageSize)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if a.Size() < 3*PageSize {
		t.Errorf("Size = %d, want at least 3 pages", a.Size())
	}
	if err := a.Write(ptr+2*PageSize-1, []byte{1}); err != nil {
		t.Errorf("write at end of allocation: %v", err)
	}
}

func TestGrow_Limit(t *testing.T) {
	a := New(&Config{MaxPages: 2})
	_, err := a.Alloc(3 * PageSize)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindAllocation}) {
		t.Errorf("got %v, want allocation error", err)
	}

	_, err = a.Alloc(^uint32(0))
	if err == nil {
		t.Error("expected overflow allocation to fail")
	}
}

func TestBounds(t *testing.T) {
	a := New(nil)
	size := a.Size()

	if _, err := a.Read(size-4, 8); err == nil {
		t.Error("Read past end should fail")
	}
	if err := a.Write(size, []byte{1}); err == nil {
		t.Error("Write past end should fail")
	}
	if _, err := a.ReadU32(size - 2); err == nil {
		t.Error("ReadU32 past end should fail")
	}
	if err := a.WriteU32(^uint32(0), 1); err == nil {
		t.Error("WriteU32 at max offset should fail")
	}

	if err := a.WriteU32(16, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	raw, _ := a.Read(16, 4)
	if !bytes.Equal(raw, []byte{0xEF, 0xBE, 0xAD, 0xDE}) {
		t.Errorf("WriteU32 not little-endian: %x", raw)
	}
	v, err := a.ReadU32(16)
	if err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadU32 = %x, %v", v, err)
	}
}
