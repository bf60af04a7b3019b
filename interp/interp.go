package interp

import (
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/safe-url-paths/errors"
	"github.com/wippyai/safe-url-paths/percent"
)

// ErrNoStatics is returned when the statics sequence is empty.
var ErrNoStatics = errors.InvalidInput(errors.PhaseInterpolate, "statics must contain at least one fragment")

// Interpolate joins statics and dynamics into one escaped path:
//
//	NoSlash(statics[0]) + UserInput(dynamics[0]) + NoSlash(statics[1]) + ...
//
// Pairing stops at min(len(statics)-1, len(dynamics)); fragments beyond that
// are ignored and not validated. Every fragment that is used must be valid
// UTF-8. The result is a fresh slice owned by the caller.
func Interpolate(statics, dynamics [][]byte) ([]byte, error) {
	if len(statics) == 0 {
		return nil, ErrNoStatics
	}

	pairs := min(len(statics)-1, len(dynamics))

	if err := validate(statics[0], "statics", 0); err != nil {
		return nil, err
	}
	size := percent.EncodedLen(statics[0], percent.PolicyNoSlash)
	for i := 0; i < pairs; i++ {
		if err := validate(dynamics[i], "dynamics", i); err != nil {
			return nil, err
		}
		if err := validate(statics[i+1], "statics", i+1); err != nil {
			return nil, err
		}
		size += percent.EncodedLen(dynamics[i], percent.PolicyUserInput)
		size += percent.EncodedLen(statics[i+1], percent.PolicyNoSlash)
	}

	out := make([]byte, 0, size)
	out = percent.Append(out, statics[0], percent.PolicyNoSlash)
	for i := 0; i < pairs; i++ {
		out = percent.Append(out, dynamics[i], percent.PolicyUserInput)
		out = percent.Append(out, statics[i+1], percent.PolicyNoSlash)
	}
	return out, nil
}

// InterpolateStrings is Interpolate for Go strings.
func InterpolateStrings(statics, dynamics []string) (string, error) {
	s := make([][]byte, len(statics))
	for i, v := range statics {
		s[i] = []byte(v)
	}
	d := make([][]byte, len(dynamics))
	for i, v := range dynamics {
		d[i] = []byte(v)
	}
	out, err := Interpolate(s, d)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func validate(frag []byte, name string, i int) error {
	if utf8.Valid(frag) {
		return nil
	}
	return errors.InvalidUTF8(errors.PhaseInterpolate, []string{name, strconv.Itoa(i)}, frag)
}
