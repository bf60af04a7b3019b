// Package safepath builds safely escaped URL paths from trusted literal
// fragments and untrusted interpolated values.
//
// The shape mirrors a tagged template call:
//
//	statics[0] + enc(dynamics[0]) + statics[1] + ... + statics[n]
//
// Literal fragments keep their path separators, interpolated values are
// escaped down to the RFC 3986 unreserved set, so a value such as "../b"
// becomes "..%2Fb" and can never introduce a new path segment.
//
// # Architecture Overview
//
//	safepath/            Root package with core Memory and Allocator interfaces
//	├── percent/         256-entry percent-encoding table and its two policies
//	├── interp/          Interpolation engine over raw fragments or guest memory
//	├── abi/             Wire layout of string descriptors and arrays
//	├── arena/           In-process linear memory with a checked allocator
//	├── guest/           alloc / dealloc / interpolate entry points (wasip1 exports)
//	├── engine/          Host backends: wazero, wasmtime, native
//	├── runtime/         Path templates compiled once and interpolated many times
//	├── errors/          Structured error types
//	└── cmd/
//	    ├── guest/       wasip1 reactor build of the guest
//	    └── safepath/    CLI: one-shot, YAML batch, interactive TUI
//
// # Quick Start
//
//	ctx := context.Background()
//	backend, err := engine.NewWazero(ctx, wasmBytes, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close(ctx)
//
//	tmpl, err := runtime.Compile(ctx, backend, []string{"users/", "/profile"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tmpl.Close(ctx)
//
//	path, err := tmpl.Interpolate(ctx, []string{"jane doe"})
//	fmt.Println(path) // "users/jane%20doe/profile"
//
// # Memory Protocol
//
// The guest exports alloc(size), dealloc(ptr, size) and
// interpolate(statics, dynamics). Inputs stay owned by the host. The result of
// interpolate is an 8-byte descriptor {ptr, len}; the host owns both the
// descriptor and the buffer it points to and must dealloc both.
//
// # Thread Safety
//
// Backends are NOT thread-safe. Linear memory has no internal locking; use
// one backend per goroutine or go through runtime.Runtime, which serializes
// calls on its backend.
package safepath
