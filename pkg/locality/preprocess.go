package locality

import (
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/charmbracelet/log"
	"github.com/golang/geo/s2"
)

// Expand turns raw communes into one locality per postal code, with the
// normalized search name filled in. Centroids are copied as-is.
func Expand(raws []RawCommune) []Locality {
	var out []Locality
	for _, raw := range raws {
		if len(raw.CodesPostaux) == 0 {
			log.Debugf("Commune %s (%s) has no postal code, skipped", raw.Code, raw.Nom)
			continue
		}
		normalized := normalize.FullText(raw.Nom)
		centroid := centroidOf(raw.Centre)
		for _, cp := range raw.CodesPostaux {
			l := Locality{
				Code:           raw.Code,
				PostalCode:     cp,
				Name:           raw.Nom,
				NormalizedName: normalized,
				DepartmentCode: raw.CodeDepartement,
			}
			if centroid != nil {
				c := *centroid
				l.Centroid = &c
			}
			out = append(out, l)
		}
	}
	return out
}

// Preprocess expands the raw communes, applies the override tables and drops
// centroids that are not valid coordinates.
func Preprocess(raws []RawCommune, overrides Overrides) []Locality {
	localities := Expand(raws)
	dropped := 0
	for i := range localities {
		l := overrides.Apply(localities[i])
		if l.Centroid != nil && !ValidCentroid(*l.Centroid) {
			log.Warnf("Dropping invalid centroid %s for %s (%s)", l.Centroid, l.Key(), l.PostalCode)
			l.Centroid = nil
			dropped++
		}
		localities[i] = l
	}
	log.Debugf("Preprocessed %d communes into %d localities (%d invalid centroids)", len(raws), len(localities), dropped)
	return localities
}

// ValidCentroid reports whether c is a real point on the sphere.
func ValidCentroid(c Centroid) bool {
	return s2.LatLngFromDegrees(c.Lat, c.Lon).IsValid()
}

// Keys returns the distinct record keys in first-seen order.
func Keys(ls []Locality) []string {
	seen := make(map[string]bool, len(ls))
	keys := make([]string, 0, len(ls))
	for _, l := range ls {
		k := l.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

func centroidOf(g *Geometry) *Centroid {
	if g == nil || len(g.Coordinates) < 2 {
		return nil
	}
	return &Centroid{Lon: g.Coordinates[0], Lat: g.Coordinates[1]}
}
