package engine

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"github.com/stretchr/testify/require"
)

// echoWAT implements the ABI with a bump allocator. interpolate returns the
// descriptor of statics[0], so the output is the first static unescaped.
const echoWAT = `
(module
  (memory (export "memory") 1)
  (global $heap (mut i32) (i32.const 1024))
  (func (export "alloc") (param $size i32) (result i32)
    (local $ptr i32)
    (local.set $ptr (global.get $heap))
    (global.set $heap
      (i32.and
        (i32.add (i32.add (global.get $heap) (local.get $size)) (i32.const 7))
        (i32.const -8)))
    (local.get $ptr))
  (func (export "dealloc") (param i32 i32))
  (func (export "interpolate") (param $statics i32) (param $dynamics i32) (result i32)
    (i32.load (local.get $statics)))
)`

// failingWAT fails every interpolate and reports "boom!" once through
// last_error.
const failingWAT = `
(module
  (memory (export "memory") 1)
  (data (i32.const 16) "\20\00\00\00\05\00\00\00")
  (data (i32.const 32) "boom!")
  (func (export "alloc") (param i32) (result i32) (i32.const 1024))
  (func (export "dealloc") (param i32 i32))
  (global $pending (mut i32) (i32.const 0))
  (func (export "interpolate") (param i32 i32) (result i32)
    (global.set $pending (i32.const 1))
    (i32.const 0))
  (func (export "last_error") (result i32)
    (if (result i32) (global.get $pending)
      (then (global.set $pending (i32.const 0)) (i32.const 16))
      (else (i32.const 0))))
)`

// strictFreeWAT records a pending error for a heap dealloc whose size is not
// 16. Frees below the heap (the static error message) always succeed.
const strictFreeWAT = `
(module
  (memory (export "memory") 1)
  (data (i32.const 16) "\20\00\00\00\08\00\00\00")
  (data (i32.const 32) "bad free")
  (global $pending (mut i32) (i32.const 0))
  (func (export "alloc") (param i32) (result i32) (i32.const 1024))
  (func (export "dealloc") (param $ptr i32) (param $size i32)
    (if (i32.and
          (i32.ge_u (local.get $ptr) (i32.const 1024))
          (i32.ne (local.get $size) (i32.const 16)))
      (then (global.set $pending (i32.const 1)))))
  (func (export "interpolate") (param i32 i32) (result i32) (i32.const 0))
  (func (export "last_error") (result i32)
    (if (result i32) (global.get $pending)
      (then (global.set $pending (i32.const 0)) (i32.const 16))
      (else (i32.const 0))))
)`

// silentWAT fails without a last_error export.
const silentWAT = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
  (func (export "dealloc") (param i32 i32))
  (func (export "interpolate") (param i32 i32) (result i32) (i32.const 0))
)`

const trapWAT = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 1024))
  (func (export "dealloc") (param i32 i32))
  (func (export "interpolate") (param i32 i32) (result i32) unreachable)
)`

const partialWAT = `
(module
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
)`

func compileWAT(t *testing.T, src string) []byte {
	t.Helper()
	wasm, err := wasmtime.Wat2Wasm(src)
	require.NoError(t, err)
	return wasm
}
