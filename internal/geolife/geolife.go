// Package geolife parses, cleans and assembles GeoLife trajectory files:
// per-user directories of .plt point-sequence files, optionally annotated
// with labeled transportation-mode intervals in labels.txt.
package geolife

import (
	"fmt"
	"time"
)

// Time layouts used by the dataset. Point files and label files disagree
// on the date separator.
const (
	PointTimeLayout = "2006-01-02 15:04:05"
	LabelTimeLayout = "2006/01/02 15:04:05"
)

// RawPoint is one parsed line of a .plt file, before cleaning.
type RawPoint struct {
	Lat          float64
	Lon          float64
	AltitudeFeet int
	Timestamp    time.Time
}

// ParseError marks a malformed point-sequence file. The file is rejected
// wholesale; there is no partial ingestion of a malformed file.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %s", e.File, e.Line, e.Reason)
}

// EmptyActivityError marks a file whose cleaned point sequence is too
// short to bound an activity (fewer than 2 points).
type EmptyActivityError struct {
	File   string
	Points int
}

func (e *EmptyActivityError) Error() string {
	return fmt.Sprintf("activity file %s has %d usable points, need at least 2", e.File, e.Points)
}
