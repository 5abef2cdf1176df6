package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/banshee-data/trajectory.report/internal/store"
)

// CreateUser persists a user. Returns store.ErrDuplicate when the ID is
// already present.
func (db *DB) CreateUser(ctx context.Context, u store.User) error {
	hasLabels := 0
	if u.HasLabels {
		hasLabels = 1
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, has_labels) VALUES (?, ?)",
		u.ID, hasLabels,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", u.ID, err)
	}
	return nil
}

// SaveActivity persists an activity and its trackpoints in one
// transaction, so a reader never observes the activity without its
// points. A (user, start_time) collision rolls everything back and
// returns store.ErrDuplicate.
func (db *DB) SaveActivity(ctx context.Context, a *store.Activity, points []store.TrackPoint) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO activities (user_id, transportation_mode, start_unix, end_unix)
		 VALUES (?, ?, ?, ?)`,
		a.UserID, a.Mode.NullString(), a.StartTime.Unix(), a.EndTime.Unix(),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert activity for user %s: %w", a.UserID, err)
	}

	activityID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get activity ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trackpoints (activity_id, user_id, lat, lon, altitude_feet, ts_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare trackpoint insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx,
			activityID, a.UserID, p.Lat, p.Lon, p.AltitudeFeet, p.Timestamp.Unix(),
		)
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to insert trackpoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	a.ID = activityID
	return nil
}
