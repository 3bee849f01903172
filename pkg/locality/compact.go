package locality

// Compact projects a locality down to the fields a shard needs.
func Compact(l Locality) ShardRecord {
	rec := ShardRecord{
		Code:       l.Code,
		PostalCode: l.PostalCode,
		Name:       l.Name,
		Department: l.DepartmentCode,
	}
	if l.Centroid != nil {
		rec.Geo = l.Centroid.String()
	}
	return rec
}

// CompactAll compacts a slice, preserving order.
func CompactAll(ls []Locality) []ShardRecord {
	out := make([]ShardRecord, len(ls))
	for i, l := range ls {
		out[i] = Compact(l)
	}
	return out
}
