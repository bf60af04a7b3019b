// Package abi defines the wire layout shared by the guest and its hosts.
//
// Every field is a little-endian 32-bit word:
//
//	StringDescriptor  { ptr u32, len u32 }    8 bytes
//	StringArray       { ptr u32, count u32 }  8 bytes, ptr -> count descriptors
//
// The interpolate result is a pointer to a heap-allocated StringDescriptor.
//
// Pack writes a whole array into one allocation (header, descriptors, then
// bytes), which is how hosts hand statics and dynamics to the guest.
package abi
