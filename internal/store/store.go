// Package store defines the storage gateway consumed by the ingestion
// pipeline and the query engine, together with the domain entities it
// persists. Implementations: internal/db (SQLite), internal/pgstore
// (PostgreSQL) and the in-memory Memory store in this package.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/trajectory.report/internal/geo"
)

// ErrDuplicate is returned when an insert collides with an existing
// entity: a user ID, a (user_id, start_time) activity pair or an
// (activity_id, timestamp) trackpoint pair. Callers treat it as an
// idempotent no-op so re-running an ingestion is safe.
var ErrDuplicate = errors.New("store: duplicate entity")

// User is one ingested dataset directory. Immutable after creation.
type User struct {
	ID        string
	HasLabels bool
}

// Activity is one contiguous recorded trip, bounded by the timestamps of
// its first and last trackpoint. Unique per (UserID, StartTime).
type Activity struct {
	ID        int64
	UserID    string
	StartTime time.Time
	EndTime   time.Time
	Mode      Mode
}

// TrackPoint is one timestamped GPS fix within an activity. AltitudeFeet
// carries the dataset's raw unit; the invalid-altitude sentinel is
// configuration, not a property of this type. UserID is denormalized for
// the geofence query and is never the ownership source of truth.
type TrackPoint struct {
	ID           int64
	ActivityID   int64
	UserID       string
	Lat          float64
	Lon          float64
	AltitudeFeet int
	Timestamp    time.Time
}

// Counts holds the entity totals.
type Counts struct {
	Users       int64
	Activities  int64
	TrackPoints int64
}

// UserActivityCount is one row of the per-user activity tally.
type UserActivityCount struct {
	UserID     string
	Activities int64
}

// ModeCount is one row of the activities-per-mode tally (named modes only).
type ModeCount struct {
	Mode       string
	Activities int64
}

// YearStat aggregates activities by the calendar year of their start time.
// Hours is the summed activity duration for that year.
type YearStat struct {
	Year       int
	Activities int64
	Hours      float64
}

// UserAltitudeGain is one row of the altitude-gain ranking. GainFeet is
// the summed positive altitude delta in the dataset's raw unit; callers
// convert to meters for presentation.
type UserAltitudeGain struct {
	UserID   string
	GainFeet float64
}

// UserInvalidCount is one row of the invalid-activity tally.
type UserInvalidCount struct {
	UserID            string
	InvalidActivities int64
}

// UserMode is one row of the per-user most-used-mode result.
type UserMode struct {
	UserID string
	Mode   string
}

// Store is the storage gateway. Writes happen during ingestion only;
// every query method is read-only and safe for concurrent use.
//
// Ordering contracts (ties must be deterministic):
//   - ActivityCountsByUser: activities DESC, user ID ASC; one row per
//     user, zero-activity users included.
//   - ModeCounts: activities DESC, mode ASC.
//   - YearStats: year ASC.
//   - TopAltitudeGains: gain DESC, user ID ASC.
//   - InvalidActivityCounts: count DESC, user ID ASC.
//   - UsersInBox, MostUsedModes: user ID ASC.
type Store interface {
	// CreateUser persists a user. Returns ErrDuplicate if the ID exists.
	CreateUser(ctx context.Context, u User) error

	// SaveActivity atomically persists an activity and its full ordered
	// trackpoint sequence, assigning a.ID. A reader never observes the
	// activity without its points. Returns ErrDuplicate (and persists
	// nothing) when the (user, start_time) pair already exists.
	SaveActivity(ctx context.Context, a *Activity, points []TrackPoint) error

	// Counts returns the entity totals.
	Counts(ctx context.Context) (Counts, error)

	// ActivityCountsByUser tallies activities for every user.
	ActivityCountsByUser(ctx context.Context) ([]UserActivityCount, error)

	// ModeCounts tallies activities per named transportation mode.
	// Activities with an unknown mode are excluded.
	ModeCounts(ctx context.Context) ([]ModeCount, error)

	// UsersByMode returns the distinct users with at least one activity
	// of the named mode, user ID ASC.
	UsersByMode(ctx context.Context, mode string) ([]string, error)

	// YearStats groups activities by the calendar year of their start
	// time, with per-year activity counts and summed duration hours.
	YearStats(ctx context.Context) ([]YearStat, error)

	// ActivityTracks returns, per matching activity, the ordered (lat,
	// lon) sequence for the user's activities of the named mode starting
	// in the given calendar year.
	ActivityTracks(ctx context.Context, userID, mode string, year int) ([][]geo.Point, error)

	// TopAltitudeGains ranks users by total positive altitude delta
	// across their activities. Pairs where either altitude equals
	// invalidAltitude contribute nothing.
	TopAltitudeGains(ctx context.Context, n int, invalidAltitude int) ([]UserAltitudeGain, error)

	// InvalidActivityCounts tallies, per user, activities containing at
	// least one consecutive-point time gap >= gap. Users with none are
	// omitted.
	InvalidActivityCounts(ctx context.Context, gap time.Duration) ([]UserInvalidCount, error)

	// UsersInBox returns the distinct users with at least one trackpoint
	// inside the box (inclusive bounds).
	UsersInBox(ctx context.Context, box geo.Box) ([]string, error)

	// MostUsedModes returns each user's most frequent named mode. Count
	// ties break by mode name ASC; users with no named activities are
	// omitted.
	MostUsedModes(ctx context.Context) ([]UserMode, error)

	// Users returns up to limit users, ID ASC, for report previews.
	Users(ctx context.Context, limit int) ([]User, error)

	// Activities returns up to limit activities, ID ASC, for previews.
	Activities(ctx context.Context, limit int) ([]Activity, error)

	// TrackPoints returns up to limit trackpoints, ID ASC, for previews.
	TrackPoints(ctx context.Context, limit int) ([]TrackPoint, error)

	// Close releases the underlying storage resources.
	Close() error
}
