package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// IsValidQuery checks a typed query is worth resolving: non-empty once
// trimmed, no longer than maxLen runes, and holding at least one letter or digit.
func IsValidQuery(s string, maxLen int) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if maxLen > 0 && len([]rune(s)) > maxLen {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// FormatWithCommas renders n with thousands separators: 34955 -> "34,955".
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
