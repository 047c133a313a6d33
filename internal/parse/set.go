package parse

// Set is a fixed set of bytes.
type Set struct {
	bits [4]uint64
}

// NewSet returns the set of bytes in chars.
func NewSet(chars string) Set {
	var s Set
	for i := 0; i < len(chars); i++ {
		b := chars[i]
		s.bits[b>>6] |= 1 << (b & 63)
	}
	return s
}

func (s Set) Has(b byte) bool {
	return s.bits[b>>6]&(1<<(b&63)) != 0
}

// Common sets.
var (
	Digits = NewSet("0123456789")
	Hex    = NewSet("0123456789abcdefABCDEF")
)

// Boundary says whether a scan that stops on a set member keeps that member.
type Boundary int

const (
	// Exclude returns the text before the boundary and leaves the boundary in
	// the remainder.
	Exclude Boundary = iota
	// Include returns the text up to and including the boundary.
	Include
)
