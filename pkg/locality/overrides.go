package locality

// OverseasDepartment groups the overseas collectivities that have no
// department of their own.
const OverseasDepartment = "om"

// Patch is a partial locality applied on top of a preprocessed record.
type Patch struct {
	DepartmentCode string
	Centroid       *Centroid
}

// Overrides are the static correction tables applied during preprocessing.
// Overseas is keyed by commune code, Coordinates by code + "__" + postal code.
type Overrides struct {
	Overseas    map[string]Patch
	Coordinates map[string]Centroid
}

// CoordinateKey builds the Coordinates table key for a locality.
func CoordinateKey(code, postalCode string) string {
	return code + KeySeparator + postalCode
}

// Apply runs the overseas remap, then the coordinate override.
// Absent keys pass through unchanged.
func (o Overrides) Apply(l Locality) Locality {
	if patch, ok := o.Overseas[l.Code]; ok {
		if patch.DepartmentCode != "" {
			l.DepartmentCode = patch.DepartmentCode
		}
		if patch.Centroid != nil {
			c := *patch.Centroid
			l.Centroid = &c
		}
	}
	if c, ok := o.Coordinates[CoordinateKey(l.Code, l.PostalCode)]; ok {
		l.Centroid = &c
	}
	return l
}

// DefaultOverrides returns the curated tables: overseas collectivities remapped
// to the "om" grouping, and per-arrondissement centroids for Paris, whose
// computed centroid is the same point for every postal code.
func DefaultOverrides() Overrides {
	return Overrides{
		Overseas: map[string]Patch{
			"97501": {DepartmentCode: OverseasDepartment, Centroid: &Centroid{Lon: -56.3814, Lat: 47.0975}},
			"97502": {DepartmentCode: OverseasDepartment, Centroid: &Centroid{Lon: -56.1833, Lat: 46.7667}},
			"97701": {DepartmentCode: OverseasDepartment, Centroid: &Centroid{Lon: -62.8314, Lat: 17.9034}},
			"97801": {DepartmentCode: OverseasDepartment, Centroid: &Centroid{Lon: -63.0785, Lat: 18.0409}},
		},
		Coordinates: parisArrondissements(),
	}
}

func parisArrondissements() map[string]Centroid {
	const paris = "75056"
	points := []struct {
		postal string
		lon    float64
		lat    float64
	}{
		{"75001", 2.336157203926649, 48.86283948229915},
		{"75002", 2.3432755443949866, 48.86889037261654},
		{"75003", 2.3607568335500297, 48.86286492639361},
		{"75004", 2.357594022703559, 48.85439581632856},
		{"75005", 2.351415238575416, 48.84355063561869},
		{"75006", 2.334203785384528, 48.84898025632432},
		{"75007", 2.31272844148442, 48.85710142473717},
		{"75008", 2.3133060597411697, 48.87297052862936},
		{"75009", 2.33864166874507, 48.87729243796416},
		{"75010", 2.360651913467299, 48.87654029132932},
		{"75011", 2.378928291242735, 48.86001335053879},
		{"75012", 2.395032220296042, 48.84042230655008},
		{"75013", 2.3620907702278324, 48.82904787007054},
		{"75014", 2.327993119650175, 48.83025514870483},
		{"75015", 2.29297365224418, 48.84058573684937},
		{"75016", 2.266717150629358, 48.85367625689213},
		{"75017", 2.3071264684475423, 48.88793519362565},
		{"75018", 2.349642564782915, 48.89232572560189},
		{"75019", 2.3868229216398484, 48.887176262044115},
		{"75020", 2.4032033913955675, 48.862725685060646},
	}
	out := make(map[string]Centroid, len(points))
	for _, p := range points {
		out[CoordinateKey(paris, p.postal)] = Centroid{Lon: p.lon, Lat: p.lat}
	}
	return out
}
