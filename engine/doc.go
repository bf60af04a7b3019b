// Package engine loads a safepath guest and exposes its exports as a Backend.
//
// Three backends share one contract:
//
//	Wazero    - pure Go runtime, WASI preview1 linked in
//	Wasmtime  - wasmtime through cgo, WASI linked in
//	Native    - the guest entry points run in-process over an arena
//
// The wasm backends expect a wasip1 reactor module exporting memory, alloc,
// dealloc and interpolate, and optionally last_error. The reactor's
// _initialize export runs once at instantiation.
//
// # Failures
//
// interpolate reports failure with a null result. When the guest also exports
// last_error the backend fetches the message, frees it, and returns an
// errors.Error of kind guest_failure carrying it. The native backend returns
// the typed error unchanged.
//
// # Usage
//
//	b, err := engine.New(ctx, engine.KindWazero, wasmBytes, &engine.Config{
//	    MemoryLimitPages: 256,
//	})
//	if err != nil {
//	    return err
//	}
//	defer b.Close(ctx)
//
// Backends are not safe for concurrent use. Wrap one per goroutine or guard
// it with a mutex; the runtime package does the latter.
package engine
