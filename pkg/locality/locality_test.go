package locality

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOneLocalityPerPostalCode(t *testing.T) {
	raws := []RawCommune{
		{
			Code:            "13055",
			Nom:             "Marseille",
			CodeDepartement: "13",
			Centre:          &Geometry{Type: "Point", Coordinates: []float64{5.38, 43.29}},
			CodesPostaux:    []string{"13001", "13002", "13003"},
		},
		{Code: "99999", Nom: "Nowhere", CodeDepartement: "99"},
	}

	ls := Expand(raws)
	require.Len(t, ls, 3)
	for i, l := range ls {
		assert.Equal(t, "13055", l.Code)
		assert.Equal(t, "marseille", l.NormalizedName)
		assert.Equal(t, raws[0].CodesPostaux[i], l.PostalCode)
		require.NotNil(t, l.Centroid)
		assert.Equal(t, Centroid{Lon: 5.38, Lat: 43.29}, *l.Centroid)
	}

	// postal variants share one key
	assert.Equal(t, []string{"13055__Marseille"}, Keys(ls))

	// centroids are not shared between records
	ls[0].Centroid.Lon = 0
	assert.Equal(t, 5.38, ls[1].Centroid.Lon)
}

func TestPreprocessOverseasRemap(t *testing.T) {
	raws := []RawCommune{{
		Code:            "97501",
		Nom:             "Miquelon-Langlade",
		CodeDepartement: "975",
		Centre:          &Geometry{Type: "Point", Coordinates: []float64{10, 10}},
		CodesPostaux:    []string{"97500"},
	}}

	ls := Preprocess(raws, DefaultOverrides())
	require.Len(t, ls, 1)
	assert.Equal(t, OverseasDepartment, ls[0].DepartmentCode)
	require.NotNil(t, ls[0].Centroid)
	assert.Equal(t, Centroid{Lon: -56.3814, Lat: 47.0975}, *ls[0].Centroid)
}

func TestPreprocessParisCoordinates(t *testing.T) {
	raws := []RawCommune{{
		Code:            "75056",
		Nom:             "Paris",
		CodeDepartement: "75",
		CodesPostaux:    []string{"75001", "75020"},
	}}

	ls := Preprocess(raws, DefaultOverrides())
	require.Len(t, ls, 2)
	require.NotNil(t, ls[0].Centroid)
	require.NotNil(t, ls[1].Centroid)
	assert.Equal(t, "2.336157203926649,48.86283948229915", ls[0].Centroid.String())
	assert.Equal(t, "2.4032033913955675,48.862725685060646", ls[1].Centroid.String())
	assert.Equal(t, "75", ls[0].DepartmentCode)
}

func TestPreprocessDropsInvalidCentroid(t *testing.T) {
	raws := []RawCommune{{
		Code:         "01001",
		Nom:          "L'Abergement-Clémenciat",
		Centre:       &Geometry{Coordinates: []float64{4.9, 123.4}},
		CodesPostaux: []string{"01400"},
	}}
	ls := Preprocess(raws, Overrides{})
	require.Len(t, ls, 1)
	assert.Nil(t, ls[0].Centroid)
}

func TestOverridesPassThrough(t *testing.T) {
	l := Locality{Code: "69123", PostalCode: "69001", Name: "Lyon", DepartmentCode: "69"}
	assert.Equal(t, l, DefaultOverrides().Apply(l))
}

func TestCompact(t *testing.T) {
	l := Locality{
		Code:           "75056",
		PostalCode:     "75001",
		Name:           "Paris",
		NormalizedName: "paris",
		DepartmentCode: "75",
		Centroid:       &Centroid{Lon: 2.5, Lat: 48.75},
	}
	rec := Compact(l)
	assert.Equal(t, ShardRecord{Code: "75056", PostalCode: "75001", Name: "Paris", Department: "75", Geo: "2.5,48.75"}, rec)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"75056","z":"75001","n":"Paris","d":"75","g":"2.5,48.75"}`, string(data))

	l.Centroid = nil
	data, err = json.Marshal(Compact(l))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"g"`)
}

func TestDepartementRegionCode(t *testing.T) {
	var deps []Departement
	input := `[
		{"code_departement":"01","nom_departement":"Ain","code_region":84,"nom_region":"Auvergne-Rhône-Alpes"},
		{"code_departement":"om","nom_departement":"Collectivités d'Outremer","code_region":"-1","nom_region":"Outremer"}
	]`
	require.NoError(t, json.Unmarshal([]byte(input), &deps))
	require.Len(t, deps, 2)
	assert.Equal(t, RegionCode("84"), deps[0].CodeRegion)
	assert.Equal(t, RegionCode("-1"), deps[1].CodeRegion)
}
