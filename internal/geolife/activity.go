package geolife

import (
	"github.com/banshee-data/trajectory.report/internal/store"
)

// BuildActivity turns a cleaned, deduplicated, time-ordered point
// sequence into one activity plus its trackpoints. The activity spans
// the first and last point timestamps and takes its mode from an exact
// label match. name identifies the source file in errors.
func BuildActivity(name, userID string, points []RawPoint, labels *LabelSet) (*store.Activity, []store.TrackPoint, error) {
	if len(points) < 2 {
		return nil, nil, &EmptyActivityError{File: name, Points: len(points)}
	}

	activity := &store.Activity{
		UserID:    userID,
		StartTime: points[0].Timestamp,
		EndTime:   points[len(points)-1].Timestamp,
	}
	activity.Mode = labels.Match(activity.StartTime, activity.EndTime)

	trackPoints := make([]store.TrackPoint, len(points))
	for i, p := range points {
		trackPoints[i] = store.TrackPoint{
			UserID:       userID,
			Lat:          p.Lat,
			Lon:          p.Lon,
			AltitudeFeet: p.AltitudeFeet,
			Timestamp:    p.Timestamp,
		}
	}
	return activity, trackPoints, nil
}
