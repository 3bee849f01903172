// Package locality holds the three record shapes a build goes through: the
// raw commune as fetched, the preprocessed Locality used for matching, and the
// compacted ShardRecord persisted in shards.
package locality

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// KeySeparator joins the commune code and name into a record key.
const KeySeparator = "__"

// Geometry is the GeoJSON point carried by the commune source.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// RawCommune is one entry of the commune source. One RawCommune expands to
// one Locality per postal code.
type RawCommune struct {
	Code            string    `json:"code"`
	Nom             string    `json:"nom"`
	CodeDepartement string    `json:"codeDepartement"`
	Centre          *Geometry `json:"centre,omitempty"`
	CodesPostaux    []string  `json:"codesPostaux"`
}

// Departement is one entry of the department catalogue. Read-only reference data.
type Departement struct {
	CodeDepartement string     `json:"code_departement"`
	NomDepartement  string     `json:"nom_departement"`
	CodeRegion      RegionCode `json:"code_region"`
	NomRegion       string     `json:"nom_region"`
}

// RegionCode accepts both numeric and string region codes.
type RegionCode string

// UnmarshalJSON decodes a JSON number or string.
func (r *RegionCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RegionCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid region code %s: %w", data, err)
	}
	*r = RegionCode(n.String())
	return nil
}

// MarshalJSON keeps numeric codes numeric.
func (r RegionCode) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(r)); err == nil {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

// Centroid is a (longitude, latitude) pair in degrees.
type Centroid struct {
	Lon float64
	Lat float64
}

// String renders the centroid as "lon,lat".
func (c Centroid) String() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// Locality is a preprocessed commune for a single postal code.
// It is never mutated once partitioning starts.
type Locality struct {
	Code           string
	PostalCode     string
	Name           string
	NormalizedName string
	DepartmentCode string
	Centroid       *Centroid
}

// Key identifies the locality at code+name granularity: postal variants of
// the same commune share a key.
func (l Locality) Key() string {
	return l.Code + KeySeparator + l.Name
}

// ShardRecord is the compacted form written to shard files.
type ShardRecord struct {
	Code       string `json:"c" msgpack:"c"`
	PostalCode string `json:"z" msgpack:"z"`
	Name       string `json:"n" msgpack:"n"`
	Department string `json:"d" msgpack:"d"`
	Geo        string `json:"g,omitempty" msgpack:"g,omitempty"`
}
