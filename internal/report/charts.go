package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajectory.report/internal/query"
)

// writeCharts renders the tallies that read better as bars: activities
// per mode, per year-style top users, and the altitude ranking.
func (r *Report) writeCharts(res *query.Results, runID string) error {
	modeX := make([]string, len(res.ModeCounts))
	modeY := make([]opts.BarData, len(res.ModeCounts))
	for i, row := range res.ModeCounts {
		modeX[i] = row.Mode
		modeY[i] = opts.BarData{Value: row.Activities}
	}
	if err := r.renderBar("Activities per transportation mode", "modes", runID, modeX, modeY); err != nil {
		return err
	}

	userX := make([]string, len(res.TopUsers))
	userY := make([]opts.BarData, len(res.TopUsers))
	for i, row := range res.TopUsers {
		userX[i] = row.UserID
		userY[i] = opts.BarData{Value: row.Activities}
	}
	if err := r.renderBar("Top users by activity count", "top-users", runID, userX, userY); err != nil {
		return err
	}

	gainX := make([]string, len(res.TopAltitudeGains))
	gainY := make([]opts.BarData, len(res.TopAltitudeGains))
	for i, row := range res.TopAltitudeGains {
		gainX[i] = row.UserID
		gainY[i] = opts.BarData{Value: row.GainMeters}
	}
	return r.renderBar("Altitude gained (m)", "altitude-gains", runID, gainX, gainY)
}

func (r *Report) renderBar(title, slug, runID string, x []string, y []opts.BarData) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries(slug, y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	path := filepath.Join(r.cfg.ReportDir, fmt.Sprintf("%s-%s.html", slug, runID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render %s chart: %w", slug, err)
	}
	return nil
}
