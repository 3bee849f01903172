// Package match selects the localities answering a query prefix and ranks them.
package match

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/bastiangx/communeindex/pkg/locality"
)

// Matches returns, in input order, the localities whose postal code starts
// with query or whose normalized name contains query anywhere.
func Matches(candidates []locality.Locality, query string) []locality.Locality {
	var out []locality.Locality
	for _, l := range candidates {
		if IsMatch(l.PostalCode, l.NormalizedName, query) {
			out = append(out, l)
		}
	}
	return out
}

// IsMatch is the single-record form of Matches.
func IsMatch(postalCode, normalizedName, query string) bool {
	return strings.HasPrefix(postalCode, query) || strings.Contains(normalizedName, query)
}

// Distance is the smaller edit distance between query and either the
// normalized name or the postal code.
func Distance(normalizedName, postalCode, query string) int {
	return min(levenshtein.ComputeDistance(normalizedName, query), levenshtein.ComputeDistance(postalCode, query))
}

// Rank compares two localities for query; negative means a ranks first.
func Rank(a, b locality.Locality, query string) int {
	return Distance(a.NormalizedName, a.PostalCode, query) - Distance(b.NormalizedName, b.PostalCode, query)
}

// Sort orders ls best match first. Equal distances keep their input order.
func Sort(ls []locality.Locality, query string) {
	items := make([]scored, len(ls))
	for i, l := range ls {
		items[i] = scored{l: l, dist: Distance(l.NormalizedName, l.PostalCode, query)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].dist < items[j].dist
	})
	for i := range items {
		ls[i] = items[i].l
	}
}

type scored struct {
	l    locality.Locality
	dist int
}
