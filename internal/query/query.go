// Package query runs the analytic battery over a storage gateway. Each
// query is a pure function of the store contents; the battery bundles
// them in a fixed order for reporting.
package query

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/geo"
	"github.com/banshee-data/trajectory.report/internal/store"
	"github.com/banshee-data/trajectory.report/internal/units"
)

// UserAltitudeGainMeters is one row of the altitude ranking, converted
// for presentation.
type UserAltitudeGainMeters struct {
	UserID     string
	GainMeters float64
}

// Results holds the full battery output in presentation order.
type Results struct {
	Counts           store.Counts
	AvgActivities    float64 // mean activities per user
	TopUsers         []store.UserActivityCount
	ModeUsers        []string // users of the configured mode of interest
	ModeCounts       []store.ModeCount
	BusiestYear      store.YearStat // by activity count
	BusiestYearHours store.YearStat // by recorded hours
	HasBusiestYear   bool
	WalkedKm         float64 // configured user and year
	TopAltitudeGains []UserAltitudeGainMeters
	InvalidCounts    []store.UserInvalidCount
	GeofenceUsers    []string
	MostUsedModes    []store.UserMode
}

// Engine runs queries with the configured parameters.
type Engine struct {
	cfg *config.Config
	st  store.Store
}

// New builds an Engine.
func New(cfg *config.Config, st store.Store) *Engine {
	return &Engine{cfg: cfg, st: st}
}

// Run executes the whole battery. Queries run sequentially; the store
// is read-only for the duration.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	res := &Results{}
	var err error

	if res.Counts, err = e.st.Counts(ctx); err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}

	byUser, err := e.st.ActivityCountsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}
	res.AvgActivities = AverageActivities(byUser)
	res.TopUsers = TopUsers(byUser, e.cfg.TopN)

	if res.ModeUsers, err = e.st.UsersByMode(ctx, e.cfg.ModeOfInterest); err != nil {
		return nil, fmt.Errorf("users by mode: %w", err)
	}

	if res.ModeCounts, err = e.st.ModeCounts(ctx); err != nil {
		return nil, fmt.Errorf("mode counts: %w", err)
	}

	years, err := e.st.YearStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("year stats: %w", err)
	}
	res.BusiestYear, res.HasBusiestYear = BusiestYear(years)
	res.BusiestYearHours, _ = BusiestYearByHours(years)

	if res.WalkedKm, err = e.walkedDistanceKm(ctx); err != nil {
		return nil, fmt.Errorf("walked distance: %w", err)
	}

	gains, err := e.st.TopAltitudeGains(ctx, e.cfg.TopN, e.cfg.AltitudeInvalid)
	if err != nil {
		return nil, fmt.Errorf("altitude gains: %w", err)
	}
	res.TopAltitudeGains = toMeters(gains)

	if res.InvalidCounts, err = e.st.InvalidActivityCounts(ctx, e.cfg.Gap()); err != nil {
		return nil, fmt.Errorf("invalid activities: %w", err)
	}

	if res.GeofenceUsers, err = e.st.UsersInBox(ctx, e.cfg.Geofence); err != nil {
		return nil, fmt.Errorf("geofence users: %w", err)
	}

	if res.MostUsedModes, err = e.st.MostUsedModes(ctx); err != nil {
		return nil, fmt.Errorf("most used modes: %w", err)
	}

	return res, nil
}

// AverageActivities is the mean activity count over all users, zero
// when there are none.
func AverageActivities(rows []store.UserActivityCount) float64 {
	if len(rows) == 0 {
		return 0
	}
	counts := make([]float64, len(rows))
	for i, row := range rows {
		counts[i] = float64(row.Activities)
	}
	return stat.Mean(counts, nil)
}

// TopUsers takes the first n rows of an already-ordered tally.
func TopUsers(rows []store.UserActivityCount, n int) []store.UserActivityCount {
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// BusiestYear picks the year with the most activities. Count ties break
// to the earlier year. The second return is false when there are no
// activities at all.
func BusiestYear(years []store.YearStat) (store.YearStat, bool) {
	if len(years) == 0 {
		return store.YearStat{}, false
	}
	best := years[0]
	for _, y := range years[1:] {
		if y.Activities > best.Activities ||
			(y.Activities == best.Activities && y.Year < best.Year) {
			best = y
		}
	}
	return best, true
}

// BusiestYearByHours picks the year with the most recorded hours, ties
// breaking to the earlier year.
func BusiestYearByHours(years []store.YearStat) (store.YearStat, bool) {
	if len(years) == 0 {
		return store.YearStat{}, false
	}
	best := years[0]
	for _, y := range years[1:] {
		if y.Hours > best.Hours ||
			(y.Hours == best.Hours && y.Year < best.Year) {
			best = y
		}
	}
	return best, true
}

// walkedDistanceKm sums the Haversine length of the configured user's
// walk tracks in the configured year.
func (e *Engine) walkedDistanceKm(ctx context.Context) (float64, error) {
	tracks, err := e.st.ActivityTracks(ctx, e.cfg.WalkUserID, "walk", e.cfg.WalkYear)
	if err != nil {
		return 0, err
	}
	var km float64
	for _, track := range tracks {
		km += geo.TrackDistanceKm(track)
	}
	return km, nil
}

// toMeters converts the gain ranking for presentation. Conversion is
// monotonic, so the store's ordering survives.
func toMeters(rows []store.UserAltitudeGain) []UserAltitudeGainMeters {
	out := make([]UserAltitudeGainMeters, len(rows))
	for i, row := range rows {
		out[i] = UserAltitudeGainMeters{
			UserID:     row.UserID,
			GainMeters: units.FeetToMeters(row.GainFeet),
		}
	}
	return out
}
