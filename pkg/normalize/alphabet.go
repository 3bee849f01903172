package normalize

import (
	"fmt"
)

// DefaultAlphabet is the set of symbols query prefixes are built from.
// It is exactly the output alphabet of FullText.
const DefaultAlphabet Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"

// Alphabet is an ordered set of single-byte query symbols.
type Alphabet string

// Validate checks the alphabet is non-empty, has no duplicate and only uses
// symbols FullText can produce.
func (a Alphabet) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("alphabet is empty")
	}
	seen := make(map[byte]bool, len(a))
	for i := 0; i < len(a); i++ {
		c := a[i]
		if !DefaultAlphabet.Contains(c) {
			return fmt.Errorf("alphabet symbol %q is not produced by the normalizer", c)
		}
		if seen[c] {
			return fmt.Errorf("alphabet symbol %q is duplicated", c)
		}
		seen[c] = true
	}
	return nil
}

// Contains reports whether c is one of the alphabet symbols.
func (a Alphabet) Contains(c byte) bool {
	for i := 0; i < len(a); i++ {
		if a[i] == c {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every byte of s is an alphabet symbol.
func (a Alphabet) ContainsAll(s string) bool {
	for i := 0; i < len(s); i++ {
		if !a.Contains(s[i]) {
			return false
		}
	}
	return true
}

// Symbols returns the alphabet as one-character strings, in order.
func (a Alphabet) Symbols() []string {
	out := make([]string, len(a))
	for i := 0; i < len(a); i++ {
		out[i] = string(a[i])
	}
	return out
}
