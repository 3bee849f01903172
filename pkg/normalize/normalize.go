// Package normalize turns locality names into search keys and URL path values.
//
// Two normalizations live here and they must never be mixed:
// FullText produces the matching key compared against query prefixes, and
// ReadableURLPathValue produces the slug used in sitemap links.
package normalize

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator replaces every character outside [a-z0-9] in a search key.
const Separator = '_'

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FullText returns the search key for a locality name.
// The output only contains symbols of DefaultAlphabet and each rune left
// after accent removal maps to exactly one output byte.
func FullText(name string) string {
	stripped, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		stripped = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if isAlnum(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(Separator)
		}
	}
	return b.String()
}

// ReadableURLPathValue transliterates a display name into a URL path segment:
// "Côte-d'Or" becomes "cote-d-or".
func ReadableURLPathValue(name string) string {
	ascii := strings.ToLower(unidecode.Unidecode(name))

	var b strings.Builder
	b.Grow(len(ascii))
	pendingDash := false
	for _, r := range ascii {
		if isAlnum(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
