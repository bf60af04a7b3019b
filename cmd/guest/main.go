//go:build wasip1

// Command guest is the wasm reactor module exporting alloc, dealloc,
// interpolate and last_error.
package main

import (
	_ "github.com/wippyai/safe-url-paths/guest"
)

func main() {}
