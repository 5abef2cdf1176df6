// Package pgstore implements the storage gateway on PostgreSQL via pgx.
// It mirrors the SQLite backend in internal/db; deployments pick one
// through configuration.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banshee-data/trajectory.report/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Pg is a PostgreSQL-backed store. Safe for concurrent use; the pool
// handles connection management.
type Pg struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Pg)(nil)

// New connects to PostgreSQL and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Pg, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &Pg{pool: pool}
	if err := pg.setup(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Printf("connected to postgres store")
	return pg, nil
}

func (pg *Pg) setup(ctx context.Context) error {
	if _, err := pg.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (pg *Pg) Close() error {
	pg.pool.Close()
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateUser persists a user. Returns store.ErrDuplicate when the ID is
// already present.
func (pg *Pg) CreateUser(ctx context.Context, u store.User) error {
	_, err := pg.pool.Exec(ctx,
		"INSERT INTO users (id, has_labels) VALUES ($1, $2)",
		u.ID, u.HasLabels,
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
// transaction. Trackpoints go through the COPY protocol. A (user,
// start_time) collision rolls everything back and returns
// store.ErrDuplicate.
func (pg *Pg) SaveActivity(ctx context.Context, a *store.Activity, points []store.TrackPoint) error {
	tx, err := pg.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var activityID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO activities (user_id, transportation_mode, start_unix, end_unix)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		a.UserID, a.Mode.NullString(), a.StartTime.Unix(), a.EndTime.Unix(),
	).Scan(&activityID)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert activity for user %s: %w", a.UserID, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"trackpoints"},
		[]string{"activity_id", "user_id", "lat", "lon", "altitude_feet", "ts_unix"},
		pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
			p := points[i]
			return []any{activityID, a.UserID, p.Lat, p.Lon, p.AltitudeFeet, p.Timestamp.Unix()}, nil
		}),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to copy trackpoints: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	a.ID = activityID
	return nil
}
