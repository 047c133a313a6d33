package parse

import (
	"strings"
	"unicode/utf8"
)

type until struct{ delim byte }

// Until returns the text before the first delim. The delimiter is left in the
// remainder. It fails if delim does not occur.
func Until(delim byte) Rule[string] { return until{delim: delim} }

func (u until) Apply(s string) (string, bool, string) {
	i := strings.IndexByte(s, u.delim)
	if i < 0 {
		return "", false, s
	}
	return s[:i], true, s[i:]
}

// UntilAny returns the text before the first byte that is in chars.
func UntilAny(chars string) Rule[string] {
	return UntilIn(NewSet(chars), Exclude)
}

type untilIn struct {
	set Set
	n   int
	b   Boundary
}

// UntilIn scans to the first member of set.
func UntilIn(set Set, b Boundary) Rule[string] { return untilIn{set: set, n: 1, b: b} }

// UntilNth scans to the n-th member of set. With Include the n-th member is
// part of the value; with Exclude it starts the remainder.
func UntilNth(set Set, n int, b Boundary) Rule[string] { return untilIn{set: set, n: n, b: b} }

func (u untilIn) Apply(s string) (string, bool, string) {
	if u.n <= 0 {
		return "", false, s
	}
	seen := 0
	for i := 0; i < len(s); i++ {
		if !u.set.Has(s[i]) {
			continue
		}
		seen++
		if seen < u.n {
			continue
		}
		if u.b == Include {
			return s[:i+1], true, s[i+1:]
		}
		return s[:i], true, s[i:]
	}
	return "", false, s
}

type byteCount int

// Bytes returns exactly n bytes.
func Bytes(n int) Rule[string] { return byteCount(n) }

func (n byteCount) Apply(s string) (string, bool, string) {
	if n < 0 || len(s) < int(n) {
		return "", false, s
	}
	return s[:n], true, s[n:]
}

type charCount int

// Chars returns exactly n UTF-8 encoded characters. Invalid encodings fail.
func Chars(n int) Rule[string] { return charCount(n) }

func (n charCount) Apply(s string) (string, bool, string) {
	if n < 0 {
		return "", false, s
	}
	i := 0
	for k := 0; k < int(n); k++ {
		if i >= len(s) {
			return "", false, s
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return "", false, s
		}
		i += size
	}
	return s[:i], true, s[i:]
}

type char rune

// Char matches one specific character.
func Char(c rune) Rule[rune] { return char(c) }

func (c char) Apply(s string) (rune, bool, string) {
	if c < utf8.RuneSelf {
		if len(s) > 0 && s[0] == byte(c) {
			return rune(c), true, s[1:]
		}
		return 0, false, s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r != rune(c) {
		return 0, false, s
	}
	return r, true, s[size:]
}

type oneOf struct {
	set    Set
	negate bool
}

// OneOf matches one byte that is a member of set.
func OneOf(set Set) Rule[byte] { return oneOf{set: set} }

// NoneOf matches one byte that is not a member of set.
func NoneOf(set Set) Rule[byte] { return oneOf{set: set, negate: true} }

func (o oneOf) Apply(s string) (byte, bool, string) {
	if len(s) == 0 || o.set.Has(s[0]) == o.negate {
		return 0, false, s
	}
	return s[0], true, s[1:]
}

type while struct {
	set Set
	n   int
}

// While returns the longest non-empty prefix of members of set.
func While(set Set) Rule[string] { return while{set: set} }

// WhileN returns exactly n members of set.
func WhileN(set Set, n int) Rule[string] { return while{set: set, n: n} }

func (w while) Apply(s string) (string, bool, string) {
	if w.n > 0 {
		if len(s) < w.n {
			return "", false, s
		}
		for i := 0; i < w.n; i++ {
			if !w.set.Has(s[i]) {
				return "", false, s
			}
		}
		return s[:w.n], true, s[w.n:]
	}
	i := 0
	for i < len(s) && w.set.Has(s[i]) {
		i++
	}
	if i == 0 {
		return "", false, s
	}
	return s[:i], true, s[i:]
}

type remainder struct{}

// Rest returns everything that is left. It always matches.
func Rest() Rule[string] { return remainder{} }

func (remainder) Apply(s string) (string, bool, string) { return s, true, "" }
