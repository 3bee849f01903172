// Package sitemap writes the per-department sitemaps and the sitemap index
// pointing at them.
package sitemap

import (
	"strings"

	"github.com/bastiangx/communeindex/pkg/normalize"
)

// LanguageAll is the language value that leaves URLs without a lang segment.
const LanguageAll = "all"

// URLParams identifies one search page.
type URLParams struct {
	DepartmentCode string
	DepartmentName string
	CommuneCode    string
	PostalCode     string
	CommuneName    string
	SearchType     string
	SortOrder      string
	Lang           string // optional, adds a /lang-<code> segment unless "all"
}

// DepartmentURL returns the path of a department-wide search page.
func DepartmentURL(p URLParams) string {
	var b strings.Builder
	b.WriteString("/dpt")
	b.WriteString(p.DepartmentCode)
	b.WriteByte('-')
	b.WriteString(normalize.ReadableURLPathValue(p.DepartmentName))
	b.WriteString("/recherche-")
	b.WriteString(p.SearchType)
	b.WriteString("/online-non")
	writeLang(&b, p.Lang)
	return b.String()
}

// CommuneURL returns the path of a search centred on one commune and postal code.
func CommuneURL(p URLParams) string {
	var b strings.Builder
	b.WriteString("/dpt")
	b.WriteString(p.DepartmentCode)
	b.WriteByte('-')
	b.WriteString(normalize.ReadableURLPathValue(p.DepartmentName))
	b.WriteString("/commune")
	b.WriteString(p.CommuneCode)
	b.WriteByte('-')
	b.WriteString(p.PostalCode)
	b.WriteByte('-')
	b.WriteString(normalize.ReadableURLPathValue(p.CommuneName))
	b.WriteString("/recherche-")
	b.WriteString(p.SearchType)
	b.WriteString("/en-triant-par-")
	b.WriteString(p.SortOrder)
	b.WriteString("/online-non")
	writeLang(&b, p.Lang)
	return b.String()
}

func writeLang(b *strings.Builder, lang string) {
	if lang == "" || lang == LanguageAll {
		return
	}
	b.WriteString("/lang-")
	b.WriteString(lang)
}
