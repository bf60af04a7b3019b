// Package percent implements the byte-level percent-encoding used for URL
// path templates.
//
// A fixed 256-entry table maps each byte either to itself (RFC 3986
// unreserved: A-Z a-z 0-9 - . _ ~) or to an uppercase %XX escape. Two
// policies read the table:
//
//   - NoSlash keeps '/' for trusted literal fragments.
//   - UserInput escapes '/' to %2F for untrusted values.
//
// Encoding is byte-wise: a multi-byte UTF-8 character becomes one %XX triplet
// per byte under either policy. Every encoded byte is exactly 1 or 3 bytes long.
package percent
