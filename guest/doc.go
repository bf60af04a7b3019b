// Package guest implements the entry points a host calls on the wasm module.
//
// Exports (all integers i32, pointers are linear memory offsets):
//
//	alloc(size) -> ptr              size fresh bytes, 0 for size <= 0
//	dealloc(ptr, size)              release a region from alloc, same size
//	interpolate(statics, dynamics)  -> *{ptr, len}, 0 on failure
//	last_error()                    -> *{ptr, len} message of the last failure, or 0
//
// statics and dynamics point at {ptr, count} string arrays (see package abi).
// interpolate never frees its inputs. Its result descriptor (8 bytes) and the
// buffer it points at belong to the caller, who must dealloc both. The same
// holds for last_error.
//
// interpolate does not trap on bad input. An empty statics array or a fragment
// that is not valid UTF-8 makes it return 0 and leaves the message for
// last_error.
//
// Module carries the logic and is portable; exports_wasip1.go binds it to
// //go:wasmexport functions, the module's real linear memory, and a pinned Go
// heap. Build the guest with:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o safepath.wasm ./cmd/guest
package guest
