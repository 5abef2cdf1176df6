// Package report renders the query battery as a text report plus a set
// of HTML charts. Each run gets a unique ID so successive reports do
// not overwrite one another.
package report

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/query"
	"github.com/banshee-data/trajectory.report/internal/store"
)

// Report writes battery results for one store.
type Report struct {
	cfg *config.Config
	st  store.Store
}

// New builds a Report.
func New(cfg *config.Config, st store.Store) *Report {
	return &Report{cfg: cfg, st: st}
}

// Generate writes the text report and charts into the configured report
// directory and returns the text report path.
func (r *Report) Generate(ctx context.Context, res *query.Results) (string, error) {
	if err := os.MkdirAll(r.cfg.ReportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	runID := uuid.NewString()
	textPath := filepath.Join(r.cfg.ReportDir, fmt.Sprintf("report-%s.txt", runID))

	f, err := os.Create(textPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := r.WriteText(ctx, f, res, runID); err != nil {
		return "", err
	}
	if err := r.writeCharts(res, runID); err != nil {
		return "", err
	}

	log.Printf("report %s written to %s", runID, r.cfg.ReportDir)
	return textPath, nil
}

// WriteText renders the battery in its fixed order followed by the
// first-rows previews.
func (r *Report) WriteText(ctx context.Context, w io.Writer, res *query.Results, runID string) error {
	fmt.Fprintf(w, "Trajectory report %s\ngenerated %s\n\n", runID, time.Now().UTC().Format(time.RFC3339))

	fmt.Fprintf(w, "1. Totals: %d users, %d activities, %d trackpoints\n\n",
		res.Counts.Users, res.Counts.Activities, res.Counts.TrackPoints)

	fmt.Fprintf(w, "2. Average activities per user: %.2f\n\n", res.AvgActivities)

	fmt.Fprintf(w, "3. Top %d users by activity count\n", r.cfg.TopN)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "user\tactivities")
	for _, row := range res.TopUsers {
		fmt.Fprintf(tw, "%s\t%d\n", row.UserID, row.Activities)
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "4. Users who used %s: %s\n\n", r.cfg.ModeOfInterest, joinOrNone(res.ModeUsers))

	fmt.Fprintf(w, "5. Activities per transportation mode (%d distinct modes)\n", len(res.ModeCounts))
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "mode\tactivities")
	for _, row := range res.ModeCounts {
		fmt.Fprintf(tw, "%s\t%d\n", row.Mode, row.Activities)
	}
	tw.Flush()
	fmt.Fprintln(w)

	if res.HasBusiestYear {
		fmt.Fprintf(w, "6. Busiest year by activities: %d (%d activities); by hours: %d (%.1f hours)\n\n",
			res.BusiestYear.Year, res.BusiestYear.Activities,
			res.BusiestYearHours.Year, res.BusiestYearHours.Hours)
	} else {
		fmt.Fprintf(w, "6. Busiest year: no activities recorded\n\n")
	}

	fmt.Fprintf(w, "7. Distance walked by user %s in %d: %.2f km\n\n",
		r.cfg.WalkUserID, r.cfg.WalkYear, res.WalkedKm)

	fmt.Fprintf(w, "8. Top %d users by altitude gained\n", r.cfg.TopN)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "user\tgain (m)")
	for _, row := range res.TopAltitudeGains {
		fmt.Fprintf(tw, "%s\t%.1f\n", row.UserID, row.GainMeters)
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "9. Users with invalid activities (gap-based)")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "user\tinvalid activities")
	for _, row := range res.InvalidCounts {
		fmt.Fprintf(tw, "%s\t%d\n", row.UserID, row.InvalidActivities)
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "10. Users seen in the %s: %s\n\n", r.cfg.GeofenceName, joinOrNone(res.GeofenceUsers))

	fmt.Fprintln(w, "11. Most used transportation mode per user")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "user\tmode")
	for _, row := range res.MostUsedModes {
		fmt.Fprintf(tw, "%s\t%s\n", row.UserID, row.Mode)
	}
	tw.Flush()
	fmt.Fprintln(w)

	return r.writePreviews(ctx, w)
}

// writePreviews appends the first rows of each entity table.
func (r *Report) writePreviews(ctx context.Context, w io.Writer) error {
	n := r.cfg.PreviewRows

	users, err := r.st.Users(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to preview users: %w", err)
	}
	fmt.Fprintf(w, "First %d users\n", n)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tlabeled")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%t\n", u.ID, u.HasLabels)
	}
	tw.Flush()
	fmt.Fprintln(w)

	acts, err := r.st.Activities(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to preview activities: %w", err)
	}
	fmt.Fprintf(w, "First %d activities\n", n)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tuser\tmode\tstart\tend")
	for _, a := range acts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			a.ID, a.UserID, a.Mode,
			a.StartTime.UTC().Format(time.RFC3339),
			a.EndTime.UTC().Format(time.RFC3339))
	}
	tw.Flush()
	fmt.Fprintln(w)

	pts, err := r.st.TrackPoints(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to preview trackpoints: %w", err)
	}
	fmt.Fprintf(w, "First %d trackpoints\n", n)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tactivity\tuser\tlat\tlon\talt (ft)\ttime")
	for _, p := range pts {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.6f\t%.6f\t%d\t%s\n",
			p.ID, p.ActivityID, p.UserID, p.Lat, p.Lon, p.AltitudeFeet,
			p.Timestamp.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	out := ids[0]
	for _, id := range ids[1:] {
		out += ", " + id
	}
	return out
}
