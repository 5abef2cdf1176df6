package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/query"
	"github.com/banshee-data/trajectory.report/internal/store"
)

func seededResults(t *testing.T, cfg *config.Config) (*query.Results, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.CreateUser(ctx, store.User{ID: "010", HasLabels: true}))
	require.NoError(t, mem.CreateUser(ctx, store.User{ID: "011"}))

	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	a := &store.Activity{
		UserID:    "010",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Mode:      store.NamedMode("walk"),
	}
	require.NoError(t, mem.SaveActivity(ctx, a, []store.TrackPoint{
		{Lat: 39.9160, Lon: 116.3970, AltitudeFeet: 100, Timestamp: start},
		{Lat: 39.9200, Lon: 116.4000, AltitudeFeet: 300, Timestamp: start.Add(10 * time.Minute)},
	}))

	res, err := query.New(cfg, mem).Run(ctx)
	require.NoError(t, err)
	return res, mem
}

func TestWriteText(t *testing.T) {
	cfg := config.Default()
	cfg.WalkUserID = "010"
	res, mem := seededResults(t, cfg)

	var buf bytes.Buffer
	err := New(cfg, mem).WriteText(context.Background(), &buf, res, "test-run")
	require.NoError(t, err)
	out := buf.String()

	require.Contains(t, out, "Trajectory report test-run")
	require.Contains(t, out, "1. Totals: 2 users, 1 activities, 2 trackpoints")
	require.Contains(t, out, "2. Average activities per user: 0.50")
	require.Contains(t, out, "4. Users who used taxi: (none)")
	require.Contains(t, out, "Busiest year by activities: 2008")
	require.Contains(t, out, "Users seen in the Forbidden City: 010")
	require.Contains(t, out, "First 10 users")
	require.Contains(t, out, "First 10 trackpoints")

	// Battery sections appear in their fixed order.
	require.Less(t, strings.Index(out, "1. Totals"), strings.Index(out, "5. Activities per transportation mode"))
	require.Less(t, strings.Index(out, "5. Activities"), strings.Index(out, "10. Users seen"))
}

func TestGenerateWritesFiles(t *testing.T) {
	cfg := config.Default()
	cfg.WalkUserID = "010"
	cfg.ReportDir = t.TempDir()
	res, mem := seededResults(t, cfg)

	path, err := New(cfg, mem).Generate(context.Background(), res)
	require.NoError(t, err)
	require.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Trajectory report")

	charts, err := filepath.Glob(filepath.Join(cfg.ReportDir, "*.html"))
	require.NoError(t, err)
	require.Len(t, charts, 3)

	for _, chart := range charts {
		html, err := os.ReadFile(chart)
		require.NoError(t, err)
		require.Contains(t, string(html), "echarts")
	}
}

func TestGenerateRunsDoNotCollide(t *testing.T) {
	cfg := config.Default()
	cfg.WalkUserID = "010"
	cfg.ReportDir = t.TempDir()
	res, mem := seededResults(t, cfg)

	r := New(cfg, mem)
	first, err := r.Generate(context.Background(), res)
	require.NoError(t, err)
	second, err := r.Generate(context.Background(), res)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
