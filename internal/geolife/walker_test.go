package geolife

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeDataset lays out a minimal GeoLife tree under a temp dir and
// returns its Data directory.
func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "Data")

	mkfile := func(path, content string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	mkfile(filepath.Join(dataDir, "010", "Trajectory", "20081023025304.plt"), pltHeader)
	mkfile(filepath.Join(dataDir, "010", "Trajectory", "20081024080000.plt"), pltHeader)
	mkfile(filepath.Join(dataDir, "010", "labels.txt"), labelsFixture)
	mkfile(filepath.Join(dataDir, "011", "Trajectory", "20090101000000.plt"), pltHeader)
	mkfile(filepath.Join(dataDir, "011", "Trajectory", "notes.txt"), "not a track")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "012"), 0o755)) // no Trajectory dir
	mkfile(filepath.Join(root, "labeled_ids.txt"), "010\n")

	return dataDir
}

func TestWalk(t *testing.T) {
	dataDir := writeDataset(t)

	users, err := Walk(dataDir)
	require.NoError(t, err)
	require.Len(t, users, 3)

	require.Equal(t, "010", users[0].ID)
	require.Len(t, users[0].TrackFiles, 2)
	require.NotEmpty(t, users[0].LabelsPath)
	// Track files are sorted, which is chronological for GeoLife names.
	require.True(t, users[0].TrackFiles[0] < users[0].TrackFiles[1])

	require.Equal(t, "011", users[1].ID)
	require.Len(t, users[1].TrackFiles, 1, "non-.plt files are ignored")
	require.Empty(t, users[1].LabelsPath)

	require.Equal(t, "012", users[2].ID)
	require.Empty(t, users[2].TrackFiles)
}

func TestWalkMissingDir(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nowhere"))
	require.Error(t, err)
}

func TestLabeledIDs(t *testing.T) {
	dataDir := writeDataset(t)

	ids, err := LabeledIDs(dataDir)
	require.NoError(t, err)
	require.True(t, ids["010"])
	require.False(t, ids["011"])
}

func TestLabeledIDsMissingFile(t *testing.T) {
	ids, err := LabeledIDs(filepath.Join(t.TempDir(), "Data"))
	require.NoError(t, err)
	require.Empty(t, ids)
}
