// Package arena provides an in-process linear memory that behaves like a wasm
// guest heap.
//
// Offsets are 32-bit, memory grows in 64 KiB pages up to a limit, and offset 0
// is reserved as the null pointer. Allocations are first-fit over a sorted,
// coalesced free list with 8-byte alignment.
//
// The guest ABI leaves dealloc misuse undefined. The arena tracks every live
// allocation and reports double frees, foreign pointers, and size mismatches
// as memory_misuse errors instead.
package arena
