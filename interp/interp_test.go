package interp

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/arena"
	"github.com/wippyai/safe-url-paths/errors"
)

func TestInterpolateStrings(t *testing.T) {
	tests := []struct {
		name     string
		statics  []string
		dynamics []string
		want     string
	}{
		{
			name:     "space in value",
			statics:  []string{"users/", "/profile"},
			dynamics: []string{"jane doe"},
			want:     "users/jane%20doe/profile",
		},
		{
			name:     "slash injection neutralized",
			statics:  []string{"a/", ""},
			dynamics: []string{"../b"},
			want:     "a/..%2Fb",
		},
		{
			name:     "single static",
			statics:  []string{"/items/foo/"},
			dynamics: nil,
			want:     "/items/foo/",
		},
		{
			name:     "numeric id",
			statics:  []string{"/items/foo/", "/name"},
			dynamics: []string{"42"},
			want:     "/items/foo/42/name",
		},
		{
			name:     "multiple values",
			statics:  []string{"/user/", "/items/", ""},
			dynamics: []string{"123", "some/characters/../should be/escaped"},
			want:     "/user/123/items/some%2Fcharacters%2F..%2Fshould%20be%2Fescaped",
		},
		{
			name:     "literal is escaped except slash",
			statics:  []string{"/a b?c#d/", ""},
			dynamics: []string{"x"},
			want:     "/a%20b%3Fc%23d/x",
		},
		{
			name:     "excess dynamics ignored",
			statics:  []string{"/a/", "/b"},
			dynamics: []string{"1", "2", "3"},
			want:     "/a/1/b",
		},
		{
			name:     "excess statics ignored",
			statics:  []string{"/a/", "/b/", "/c"},
			dynamics: []string{"1"},
			want:     "/a/1/b/",
		},
		{
			name:     "empty everything",
			statics:  []string{""},
			dynamics: []string{},
			want:     "",
		},
		{
			name:     "utf-8 value",
			statics:  []string{"/city/", ""},
			dynamics: []string{"Zürich"},
			want:     "/city/Z%C3%BCrich",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterpolateStrings(tt.statics, tt.dynamics)
			if err != nil {
				t.Fatalf("InterpolateStrings: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpolate_EmptyStatics(t *testing.T) {
	_, err := Interpolate(nil, [][]byte{[]byte("x")})
	if !stderrors.Is(err, ErrNoStatics) {
		t.Fatalf("got %v, want ErrNoStatics", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
		t.Errorf("got %v, want invalid_input", err)
	}
}

func TestInterpolate_InvalidUTF8(t *testing.T) {
	bad := []byte{0xff, 0xfe}
	tests := []struct {
		name     string
		statics  [][]byte
		dynamics [][]byte
		path     string
	}{
		{"first static", [][]byte{bad}, nil, "statics.0"},
		{"dynamic", [][]byte{[]byte("a/"), nil}, [][]byte{bad}, "dynamics.0"},
		{"paired static", [][]byte{[]byte("a/"), bad}, [][]byte{[]byte("x")}, "statics.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Interpolate(tt.statics, tt.dynamics)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidUTF8 {
				t.Fatalf("got %v, want invalid_utf8", err)
			}
			if got := e.Path[0] + "." + e.Path[1]; got != tt.path {
				t.Errorf("path = %s, want %s", got, tt.path)
			}
		})
	}
}

func TestInterpolate_UnusedFragmentsNotValidated(t *testing.T) {
	bad := []byte{0xc3}
	out, err := Interpolate(
		[][]byte{[]byte("/a"), bad},
		nil,
	)
	if err != nil {
		t.Fatalf("unused static should not be validated: %v", err)
	}
	if string(out) != "/a" {
		t.Errorf("got %q", out)
	}
}

func TestEngine_Call(t *testing.T) {
	mem := arena.New(nil)
	statics, err := abi.Pack(mem, mem, abi.Strings([]string{"users/", "/profile"}))
	if err != nil {
		t.Fatal(err)
	}
	dynamics, err := abi.Pack(mem, mem, abi.Strings([]string{"jane doe"}))
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(nil)
	descPtr, err := e.Call(mem, mem, statics.Ptr, dynamics.Ptr)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	desc, err := abi.ReadDescriptor(mem, descPtr)
	if err != nil {
		t.Fatal(err)
	}
	out, err := abi.ReadBytes(mem, desc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "users/jane%20doe/profile" {
		t.Errorf("got %q", out)
	}

	// inputs stay live; caller frees output buffer and descriptor
	if mem.Live() != 4 {
		t.Errorf("Live = %d, want 4", mem.Live())
	}
	for _, a := range []abi.Allocation{
		{Ptr: desc.Ptr, Size: desc.Len},
		{Ptr: descPtr, Size: abi.DescriptorSize},
		statics,
		dynamics,
	} {
		if err := a.Free(mem); err != nil {
			t.Errorf("Free(%+v): %v", a, err)
		}
	}
	if mem.Live() != 0 {
		t.Errorf("Live = %d after cleanup", mem.Live())
	}
}

func TestEngine_CallEmptyResult(t *testing.T) {
	mem := arena.New(nil)
	statics, _ := abi.Pack(mem, mem, abi.Strings([]string{""}))
	dynamics, _ := abi.Pack(mem, mem, nil)

	descPtr, err := NewEngine(nil).Call(mem, mem, statics.Ptr, dynamics.Ptr)
	if err != nil {
		t.Fatal(err)
	}
	desc, _ := abi.ReadDescriptor(mem, descPtr)
	if desc.Len != 0 || desc.Ptr != 0 {
		t.Errorf("desc = %+v, want {0 0}", desc)
	}
}

func TestEngine_CallErrorsLeaveNoAllocations(t *testing.T) {
	mem := arena.New(nil)
	statics, _ := abi.Pack(mem, mem, nil)
	dynamics, _ := abi.Pack(mem, mem, abi.Strings([]string{"x"}))
	before := mem.Live()

	_, err := NewEngine(nil).Call(mem, mem, statics.Ptr, dynamics.Ptr)
	if !stderrors.Is(err, ErrNoStatics) {
		t.Fatalf("got %v, want ErrNoStatics", err)
	}
	if mem.Live() != before {
		t.Errorf("Live = %d, want %d", mem.Live(), before)
	}
}

func TestEngine_CallAllocationFailure(t *testing.T) {
	mem := arena.New(&arena.Config{MaxPages: 1})
	long := make([]byte, 30000)
	for i := range long {
		long[i] = ' '
	}
	statics, _ := abi.Pack(mem, mem, abi.Strings([]string{"/", ""}))
	dynamics, err := abi.Pack(mem, mem, [][]byte{long})
	if err != nil {
		t.Fatal(err)
	}
	before := mem.Live()

	// 30000 spaces encode to 90000 bytes, more than one page
	_, err = NewEngine(nil).Call(mem, mem, statics.Ptr, dynamics.Ptr)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAllocation {
		t.Fatalf("got %v, want allocation error", err)
	}
	if n := strings.Count(err.Error(), "failed to allocate"); n != 1 {
		t.Errorf("allocation failure reported %d times: %v", n, err)
	}
	if mem.Live() != before {
		t.Errorf("Live = %d, want %d", mem.Live(), before)
	}
}

func TestEngine_CallBadPointer(t *testing.T) {
	mem := arena.New(nil)
	statics, _ := abi.Pack(mem, mem, abi.Strings([]string{"/"}))

	_, err := NewEngine(nil).Call(mem, mem, statics.Ptr, mem.Size())
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseDecode {
		t.Fatalf("got %v, want decode error", err)
	}
}

func TestSetLoggerNil(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil after SetLogger(nil)")
	}
	// must not panic
	NewEngine(nil).logger.Debug("after reset")
}
