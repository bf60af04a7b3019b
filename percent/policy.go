package percent

// Policy selects how a fragment is encoded.
type Policy uint8

const (
	// PolicyNoSlash applies to literal template fragments.
	PolicyNoSlash Policy = iota
	// PolicyUserInput applies to interpolated values.
	PolicyUserInput
)

func (p Policy) String() string {
	switch p {
	case PolicyNoSlash:
		return "no-slash"
	case PolicyUserInput:
		return "user-input"
	default:
		return "unknown"
	}
}

// Encode returns the encoded form of b under p.
func (p Policy) Encode(b byte) string {
	if p == PolicyNoSlash {
		return NoSlash(b)
	}
	return UserInput(b)
}

// Append encodes every byte of src under p and appends the result to dst.
func Append(dst, src []byte, p Policy) []byte {
	for _, b := range src {
		dst = append(dst, p.Encode(b)...)
	}
	return dst
}

// EncodedLen returns len(Append(nil, src, p)) without encoding.
func EncodedLen(src []byte, p Policy) int {
	n := 0
	for _, b := range src {
		n += len(p.Encode(b))
	}
	return n
}
