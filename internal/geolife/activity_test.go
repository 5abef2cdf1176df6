package geolife

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildActivity(t *testing.T) {
	base := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	points := []RawPoint{
		{Lat: 39.9, Lon: 116.3, AltitudeFeet: 100, Timestamp: base},
		{Lat: 39.91, Lon: 116.31, AltitudeFeet: 120, Timestamp: base.Add(time.Minute)},
		{Lat: 39.92, Lon: 116.32, AltitudeFeet: 140, Timestamp: base.Add(2 * time.Minute)},
	}

	activity, trackPoints, err := BuildActivity("f.plt", "010", points, NewLabelSet(nil))
	require.NoError(t, err)

	require.Equal(t, "010", activity.UserID)
	require.Equal(t, base, activity.StartTime)
	require.Equal(t, base.Add(2*time.Minute), activity.EndTime)
	require.False(t, activity.Mode.Known())

	require.Len(t, trackPoints, 3)
	for i, tp := range trackPoints {
		require.Equal(t, "010", tp.UserID)
		require.Equal(t, points[i].Lat, tp.Lat)
		require.Equal(t, points[i].Timestamp, tp.Timestamp)
	}
}

func TestBuildActivityAssignsLabeledMode(t *testing.T) {
	intervals, err := ParseLabels(strings.NewReader(labelsFixture))
	require.NoError(t, err)
	set := NewLabelSet(intervals)

	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	end := time.Date(2008, 10, 23, 11, 11, 12, 0, time.UTC)
	points := []RawPoint{
		{Lat: 39.9, Lon: 116.3, Timestamp: start},
		{Lat: 39.95, Lon: 116.35, Timestamp: end},
	}

	activity, _, err := BuildActivity("f.plt", "010", points, set)
	require.NoError(t, err)
	require.Equal(t, "walk", activity.Mode.Name())

	// One second off either boundary stores unknown.
	shifted := []RawPoint{
		{Lat: 39.9, Lon: 116.3, Timestamp: start.Add(time.Second)},
		{Lat: 39.95, Lon: 116.35, Timestamp: end},
	}
	activity, _, err = BuildActivity("f.plt", "010", shifted, set)
	require.NoError(t, err)
	require.False(t, activity.Mode.Known())
}

func TestBuildActivityTooFewPoints(t *testing.T) {
	base := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)

	for _, points := range [][]RawPoint{
		nil,
		{{Lat: 39.9, Lon: 116.3, Timestamp: base}},
	} {
		_, _, err := BuildActivity("f.plt", "010", points, nil)
		require.Error(t, err)

		var emptyErr *EmptyActivityError
		require.True(t, errors.As(err, &emptyErr), "want EmptyActivityError, got %T", err)
		require.Equal(t, "f.plt", emptyErr.File)
	}
}
