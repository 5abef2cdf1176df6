package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/trajectory.report/internal/geo"
	"github.com/banshee-data/trajectory.report/internal/store"
)

// Counts returns the entity totals.
func (db *DB) Counts(ctx context.Context) (store.Counts, error) {
	var counts store.Counts
	row := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM trackpoints)
	`)
	if err := row.Scan(&counts.Users, &counts.Activities, &counts.TrackPoints); err != nil {
		return store.Counts{}, fmt.Errorf("failed to count entities: %w", err)
	}
	return counts, nil
}

// ActivityCountsByUser tallies activities per user, zero-activity users
// included, ordered count DESC then user ID ASC.
func (db *DB) ActivityCountsByUser(ctx context.Context) ([]store.UserActivityCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT u.id, COUNT(a.id) AS activity_count
		FROM users u
		LEFT JOIN activities a ON a.user_id = u.id
		GROUP BY u.id
		ORDER BY activity_count DESC, u.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity counts: %w", err)
	}
	defer rows.Close()

	var result []store.UserActivityCount
	for rows.Next() {
		var row store.UserActivityCount
		if err := rows.Scan(&row.UserID, &row.Activities); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ModeCounts tallies activities per named mode; unknown-mode activities
// are excluded.
func (db *DB) ModeCounts(ctx context.Context) ([]store.ModeCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT transportation_mode, COUNT(*) AS activity_count
		FROM activities
		WHERE transportation_mode IS NOT NULL
		GROUP BY transportation_mode
		ORDER BY activity_count DESC, transportation_mode ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode counts: %w", err)
	}
	defer rows.Close()

	var result []store.ModeCount
	for rows.Next() {
		var row store.ModeCount
		if err := rows.Scan(&row.Mode, &row.Activities); err != nil {
			return nil, fmt.Errorf("failed to scan mode count: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UsersByMode returns the distinct users with at least one activity of
// the named mode.
func (db *DB) UsersByMode(ctx context.Context, mode string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM activities
		WHERE transportation_mode = ?
		ORDER BY user_id ASC
	`, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by mode: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// YearStats groups activities by start-time calendar year (UTC).
func (db *DB) YearStats(ctx context.Context) ([]store.YearStat, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			CAST(strftime('%Y', start_unix, 'unixepoch') AS INTEGER) AS year,
			COUNT(*) AS activity_count,
			SUM(end_unix - start_unix) / 3600.0 AS hours
		FROM activities
		GROUP BY year
		ORDER BY year ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query year stats: %w", err)
	}
	defer rows.Close()

	var result []store.YearStat
	for rows.Next() {
		var row store.YearStat
		if err := rows.Scan(&row.Year, &row.Activities, &row.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan year stat: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ActivityTracks returns the ordered coordinate sequences of the user's
// activities with the given mode starting in the given year. The
// Haversine accumulation happens in the query engine; the backend only
// retrieves ordered points.
func (db *DB) ActivityTracks(ctx context.Context, userID, mode string, year int) ([][]geo.Point, error) {
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	yearEnd := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	rows, err := db.QueryContext(ctx, `
		SELECT id FROM activities
		WHERE user_id = ?
		  AND transportation_mode = ?
		  AND start_unix >= ? AND start_unix < ?
		ORDER BY start_unix ASC
	`, userID, mode, yearStart, yearEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activityIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan activity ID: %w", err)
		}
		activityIDs = append(activityIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tracks [][]geo.Point
	for _, id := range activityIDs {
		track, err := db.trackCoords(ctx, id)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (db *DB) trackCoords(ctx context.Context, activityID int64) ([]geo.Point, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT lat, lon FROM trackpoints
		WHERE activity_id = ?
		ORDER BY ts_unix ASC
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trackpoints for activity %d: %w", activityID, err)
	}
	defer rows.Close()

	var track []geo.Point
	for rows.Next() {
		var p geo.Point
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan trackpoint: %w", err)
		}
		track = append(track, p)
	}
	return track, rows.Err()
}

// TopAltitudeGains ranks users by summed positive altitude delta. A
// LAG window pairs each point with its predecessor within the activity;
// pairs touching the invalid sentinel contribute nothing.
func (db *DB) TopAltitudeGains(ctx context.Context, n int, invalidAltitude int) ([]store.UserAltitudeGain, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id,
		       SUM(CASE
		           WHEN prev_alt IS NOT NULL
		            AND altitude_feet != ?
		            AND prev_alt != ?
		            AND altitude_feet > prev_alt
		           THEN altitude_feet - prev_alt
		           ELSE 0
		       END) AS gain_feet
		FROM (
			SELECT user_id, altitude_feet,
			       LAG(altitude_feet) OVER (
			           PARTITION BY activity_id ORDER BY ts_unix
			       ) AS prev_alt
			FROM trackpoints
		)
		GROUP BY user_id
		ORDER BY gain_feet DESC, user_id ASC
		LIMIT ?
	`, invalidAltitude, invalidAltitude, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query altitude gains: %w", err)
	}
	defer rows.Close()

	var result []store.UserAltitudeGain
	for rows.Next() {
		var row store.UserAltitudeGain
		if err := rows.Scan(&row.UserID, &row.GainFeet); err != nil {
			return nil, fmt.Errorf("failed to scan altitude gain: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// InvalidActivityCounts tallies per user the activities containing at
// least one consecutive-point gap of gap or more.
func (db *DB) InvalidActivityCounts(ctx context.Context, gap time.Duration) ([]store.UserInvalidCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, COUNT(DISTINCT activity_id) AS invalid_count
		FROM (
			SELECT user_id, activity_id,
			       ts_unix - LAG(ts_unix) OVER (
			           PARTITION BY activity_id ORDER BY ts_unix
			       ) AS gap_seconds
			FROM trackpoints
		)
		WHERE gap_seconds >= ?
		GROUP BY user_id
		ORDER BY invalid_count DESC, user_id ASC
	`, int64(gap.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to query invalid activities: %w", err)
	}
	defer rows.Close()

	var result []store.UserInvalidCount
	for rows.Next() {
		var row store.UserInvalidCount
		if err := rows.Scan(&row.UserID, &row.InvalidActivities); err != nil {
			return nil, fmt.Errorf("failed to scan invalid count: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UsersInBox returns the distinct users with a trackpoint inside the
// box; bounds are inclusive.
func (db *DB) UsersInBox(ctx context.Context, box geo.Box) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM trackpoints
		WHERE lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?
		ORDER BY user_id ASC
	`, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("failed to query geofence members: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// MostUsedModes returns each user's most frequent named mode, count
// ties broken by mode name.
func (db *DB) MostUsedModes(ctx context.Context) ([]store.UserMode, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, transportation_mode
		FROM (
			SELECT user_id, transportation_mode,
			       ROW_NUMBER() OVER (
			           PARTITION BY user_id
			           ORDER BY COUNT(*) DESC, transportation_mode ASC
			       ) AS mode_rank
			FROM activities
			WHERE transportation_mode IS NOT NULL
			GROUP BY user_id, transportation_mode
		)
		WHERE mode_rank = 1
		ORDER BY user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query most used modes: %w", err)
	}
	defer rows.Close()

	var result []store.UserMode
	for rows.Next() {
		var row store.UserMode
		if err := rows.Scan(&row.UserID, &row.Mode); err != nil {
			return nil, fmt.Errorf("failed to scan user mode: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Users returns up to limit users for report previews.
func (db *DB) Users(ctx context.Context, limit int) ([]store.User, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, has_labels FROM users ORDER BY id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var result []store.User
	for rows.Next() {
		var u store.User
		var hasLabels int
		if err := rows.Scan(&u.ID, &hasLabels); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.HasLabels = hasLabels != 0
		result = append(result, u)
	}
	return result, rows.Err()
}

// Activities returns up to limit activities for report previews.
func (db *DB) Activities(ctx context.Context, limit int) ([]store.Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, transportation_mode, start_unix, end_unix
		FROM activities ORDER BY id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var result []store.Activity
	for rows.Next() {
		var a store.Activity
		var mode sql.NullString
		var startUnix, endUnix int64
		if err := rows.Scan(&a.ID, &a.UserID, &mode, &startUnix, &endUnix); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Mode = store.ModeFromNullString(mode)
		a.StartTime = time.Unix(startUnix, 0).UTC()
		a.EndTime = time.Unix(endUnix, 0).UTC()
		result = append(result, a)
	}
	return result, rows.Err()
}

// TrackPoints returns up to limit trackpoints for report previews.
func (db *DB) TrackPoints(ctx context.Context, limit int) ([]store.TrackPoint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, activity_id, user_id, lat, lon, altitude_feet, ts_unix
		FROM trackpoints ORDER BY id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trackpoints: %w", err)
	}
	defer rows.Close()

	var result []store.TrackPoint
	for rows.Next() {
		var p store.TrackPoint
		var tsUnix int64
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.UserID, &p.Lat, &p.Lon, &p.AltitudeFeet, &tsUnix); err != nil {
			return nil, fmt.Errorf("failed to scan trackpoint: %w", err)
		}
		p.Timestamp = time.Unix(tsUnix, 0).UTC()
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
