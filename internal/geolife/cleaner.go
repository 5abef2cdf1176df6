package geolife

// Cleaner applies the pre-build filters to a parsed point sequence. The
// thresholds are configuration; see config.Default for the dataset
// values they inherit.
type Cleaner struct {
	// MaxRawLines caps the raw file line count, header included. An
	// oversized file is skipped whole; nothing is truncated.
	MaxRawLines int

	// AltitudeFloorFeet is the lowest plausible altitude. Points below
	// it keep their position but have the altitude rewritten to
	// AltitudeInvalid, preserving point density for gap and distance
	// queries while marking the value unusable for altitude gain.
	AltitudeFloorFeet int

	// AltitudeInvalid is the sentinel written over bad altitudes.
	AltitudeInvalid int
}

// WithinSizeLimit reports whether a file with rawLines total lines may
// be ingested.
func (c Cleaner) WithinSizeLimit(rawLines int) bool {
	return rawLines <= c.MaxRawLines
}

// Clean normalizes altitudes and drops intra-file duplicate timestamps,
// keeping the first occurrence. The input order is preserved; the input
// slice is not modified.
func (c Cleaner) Clean(points []RawPoint) []RawPoint {
	cleaned := make([]RawPoint, 0, len(points))
	seen := make(map[int64]struct{}, len(points))

	for _, p := range points {
		ts := p.Timestamp.Unix()
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}

		if p.AltitudeFeet < c.AltitudeFloorFeet {
			p.AltitudeFeet = c.AltitudeInvalid
		}
		cleaned = append(cleaned, p)
	}
	return cleaned
}
