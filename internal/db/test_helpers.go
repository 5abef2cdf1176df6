package db

import (
	"context"
	"testing"
	"time"

	"github.com/banshee-data/trajectory.report/internal/store"
)

// setupTestDB opens a migrated in-memory database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// seedTestData inserts three users and three activities used by most of
// the query tests:
//   - 010: a 2008 walk through the geofence with a long gap and a 200 ft
//     climb, plus a gapless 2009 bus ride.
//   - 011: no activities.
//   - 012: an unlabeled 2008 activity whose only climbing pair touches
//     the invalid-altitude sentinel.
func seedTestData(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	for _, u := range []store.User{
		{ID: "010", HasLabels: true},
		{ID: "011", HasLabels: false},
		{ID: "012", HasLabels: true},
	} {
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", u.ID, err)
		}
	}

	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	a1 := &store.Activity{
		UserID:    "010",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Mode:      store.NamedMode("walk"),
	}
	if err := db.SaveActivity(ctx, a1, []store.TrackPoint{
		{Lat: 39.9160, Lon: 116.3970, AltitudeFeet: 100, Timestamp: start},
		{Lat: 39.9200, Lon: 116.4000, AltitudeFeet: 300, Timestamp: start.Add(10 * time.Minute)},
		{Lat: 39.9300, Lon: 116.4100, AltitudeFeet: 250, Timestamp: start.Add(30 * time.Minute)},
	}); err != nil {
		t.Fatalf("SaveActivity a1 failed: %v", err)
	}

	s2 := time.Date(2009, 3, 1, 8, 0, 0, 0, time.UTC)
	a2 := &store.Activity{
		UserID:    "010",
		StartTime: s2,
		EndTime:   s2.Add(2 * time.Hour),
		Mode:      store.NamedMode("bus"),
	}
	if err := db.SaveActivity(ctx, a2, []store.TrackPoint{
		{Lat: 40.0, Lon: 116.5, AltitudeFeet: 50, Timestamp: s2},
		{Lat: 40.0, Lon: 116.6, AltitudeFeet: 40, Timestamp: s2.Add(time.Minute)},
	}); err != nil {
		t.Fatalf("SaveActivity a2 failed: %v", err)
	}

	s3 := time.Date(2008, 5, 5, 12, 0, 0, 0, time.UTC)
	a3 := &store.Activity{UserID: "012", StartTime: s3, EndTime: s3.Add(time.Hour)}
	if err := db.SaveActivity(ctx, a3, []store.TrackPoint{
		{Lat: 30.0, Lon: 110.0, AltitudeFeet: -777, Timestamp: s3},
		{Lat: 30.1, Lon: 110.1, AltitudeFeet: 900, Timestamp: s3.Add(2 * time.Minute)},
	}); err != nil {
		t.Fatalf("SaveActivity a3 failed: %v", err)
	}
}
