// Package interp concatenates literal fragments and escaped values into a
// URL path.
//
// Interpolate is the pure form over byte slices. Engine.Call runs the same
// algorithm against string arrays in linear memory and hands back an owned
// output descriptor, which is what the guest's interpolate export does.
//
// Empty statics is reported as invalid_input. A used fragment that is not
// valid UTF-8 is reported as invalid_utf8 with its position, for example
// "dynamics.1". Both are errors, not panics.
package interp
