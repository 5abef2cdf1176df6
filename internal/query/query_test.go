package query

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/geo"
	"github.com/banshee-data/trajectory.report/internal/store"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.WalkUserID = "010"
	cfg.WalkYear = 2008
	cfg.ModeOfInterest = "bus"
	cfg.TopN = 2
	return cfg
}

// seedStore mirrors the backend test fixture: user 010 with a 2008 walk
// through the geofence (long gap, 200 ft climb) and a 2009 bus ride,
// user 011 with nothing, user 012 with one unlabeled activity touching
// the invalid-altitude sentinel.
func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()

	for _, u := range []store.User{
		{ID: "010", HasLabels: true},
		{ID: "011", HasLabels: false},
		{ID: "012", HasLabels: true},
	} {
		require.NoError(t, mem.CreateUser(ctx, u))
	}

	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	a1 := &store.Activity{
		UserID:    "010",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Mode:      store.NamedMode("walk"),
	}
	require.NoError(t, mem.SaveActivity(ctx, a1, []store.TrackPoint{
		{Lat: 39.9160, Lon: 116.3970, AltitudeFeet: 100, Timestamp: start},
		{Lat: 39.9200, Lon: 116.4000, AltitudeFeet: 300, Timestamp: start.Add(10 * time.Minute)},
		{Lat: 39.9300, Lon: 116.4100, AltitudeFeet: 250, Timestamp: start.Add(30 * time.Minute)},
	}))

	s2 := time.Date(2009, 3, 1, 8, 0, 0, 0, time.UTC)
	a2 := &store.Activity{
		UserID:    "010",
		StartTime: s2,
		EndTime:   s2.Add(2 * time.Hour),
		Mode:      store.NamedMode("bus"),
	}
	require.NoError(t, mem.SaveActivity(ctx, a2, []store.TrackPoint{
		{Lat: 40.0, Lon: 116.5, AltitudeFeet: 50, Timestamp: s2},
		{Lat: 40.0, Lon: 116.6, AltitudeFeet: 40, Timestamp: s2.Add(time.Minute)},
	}))

	s3 := time.Date(2008, 5, 5, 12, 0, 0, 0, time.UTC)
	a3 := &store.Activity{UserID: "012", StartTime: s3, EndTime: s3.Add(time.Hour)}
	require.NoError(t, mem.SaveActivity(ctx, a3, []store.TrackPoint{
		{Lat: 30.0, Lon: 110.0, AltitudeFeet: -777, Timestamp: s3},
		{Lat: 30.1, Lon: 110.1, AltitudeFeet: 900, Timestamp: s3.Add(2 * time.Minute)},
	}))

	return mem
}

func TestRunBattery(t *testing.T) {
	cfg := testConfig()
	mem := seedStore(t)

	res, err := New(cfg, mem).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, store.Counts{Users: 3, Activities: 3, TrackPoints: 7}, res.Counts)
	require.InDelta(t, 1.0, res.AvgActivities, 1e-9)

	require.Equal(t, []store.UserActivityCount{
		{UserID: "010", Activities: 2},
		{UserID: "012", Activities: 1},
	}, res.TopUsers, "top-N trims the ordered tally")

	require.Equal(t, []string{"010"}, res.ModeUsers)

	require.Equal(t, []store.ModeCount{
		{Mode: "bus", Activities: 1},
		{Mode: "walk", Activities: 1},
	}, res.ModeCounts)

	require.True(t, res.HasBusiestYear)
	require.Equal(t, 2008, res.BusiestYear.Year)
	require.Equal(t, int64(2), res.BusiestYear.Activities)
	require.Equal(t, 2009, res.BusiestYearHours.Year, "2009 carries more recorded hours")

	// The walk track covers roughly 1.8 km of central Beijing.
	require.Greater(t, res.WalkedKm, 1.0)
	require.Less(t, res.WalkedKm, 3.0)

	require.Len(t, res.TopAltitudeGains, 2)
	require.Equal(t, "010", res.TopAltitudeGains[0].UserID)
	require.InDelta(t, 200*0.3048, res.TopAltitudeGains[0].GainMeters, 1e-9)
	require.Equal(t, 0.0, res.TopAltitudeGains[1].GainMeters, "sentinel pair contributes nothing")

	require.Equal(t, []store.UserInvalidCount{{UserID: "010", InvalidActivities: 1}}, res.InvalidCounts)
	require.Equal(t, []string{"010"}, res.GeofenceUsers)
	require.Equal(t, []store.UserMode{{UserID: "010", Mode: "bus"}}, res.MostUsedModes)
}

func TestRunEmptyStore(t *testing.T) {
	cfg := testConfig()
	mem := store.NewMemory()

	res, err := New(cfg, mem).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, store.Counts{}, res.Counts)
	require.Equal(t, 0.0, res.AvgActivities)
	require.False(t, res.HasBusiestYear)
	require.Equal(t, 0.0, res.WalkedKm)
	require.Empty(t, res.TopUsers)
	require.Empty(t, res.GeofenceUsers)
}

func TestAverageActivities(t *testing.T) {
	require.Equal(t, 0.0, AverageActivities(nil))

	avg := AverageActivities([]store.UserActivityCount{
		{UserID: "a", Activities: 4},
		{UserID: "b", Activities: 0},
		{UserID: "c", Activities: 2},
	})
	require.InDelta(t, 2.0, avg, 1e-9)
}

func TestBusiestYearTieBreaksEarlier(t *testing.T) {
	year, ok := BusiestYear([]store.YearStat{
		{Year: 2008, Activities: 3},
		{Year: 2007, Activities: 3},
		{Year: 2009, Activities: 1},
	})
	require.True(t, ok)
	require.Equal(t, 2007, year.Year)

	_, ok = BusiestYear(nil)
	require.False(t, ok)
}

func TestBusiestYearByHours(t *testing.T) {
	year, ok := BusiestYearByHours([]store.YearStat{
		{Year: 2008, Activities: 5, Hours: 2},
		{Year: 2009, Activities: 1, Hours: 8},
	})
	require.True(t, ok)
	require.Equal(t, 2009, year.Year)

	year, ok = BusiestYearByHours([]store.YearStat{
		{Year: 2009, Activities: 1, Hours: 3},
		{Year: 2007, Activities: 1, Hours: 3},
	})
	require.True(t, ok)
	require.Equal(t, 2007, year.Year, "hour ties break to the earlier year")
}

func TestWalkedDistanceMatchesHaversine(t *testing.T) {
	cfg := testConfig()
	mem := seedStore(t)

	res, err := New(cfg, mem).Run(context.Background())
	require.NoError(t, err)

	want := geo.TrackDistanceKm([]geo.Point{
		{Lat: 39.9160, Lon: 116.3970},
		{Lat: 39.9200, Lon: 116.4000},
		{Lat: 39.9300, Lon: 116.4100},
	})
	require.False(t, math.IsNaN(want))
	require.InDelta(t, want, res.WalkedKm, 1e-9)
}
