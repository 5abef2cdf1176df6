package geolife

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// UserDir is one user's slice of the dataset tree: the Trajectory/*.plt
// files to ingest and the labels.txt path when one exists.
type UserDir struct {
	ID         string
	TrackFiles []string
	LabelsPath string // empty when the user has no label file
}

// Walk enumerates the user directories under dataDir. Users are sorted
// by ID and each user's track files are sorted by name, which for
// GeoLife file naming is also chronological order.
func Walk(dataDir string) ([]UserDir, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset directory: %w", err)
	}

	var users []UserDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		userID := entry.Name()
		userPath := filepath.Join(dataDir, userID)

		trajDir := filepath.Join(userPath, "Trajectory")
		trackFiles, err := listTrackFiles(trajDir)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}

		user := UserDir{ID: userID, TrackFiles: trackFiles}
		labelsPath := filepath.Join(userPath, "labels.txt")
		if _, err := os.Stat(labelsPath); err == nil {
			user.LabelsPath = labelsPath
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func listTrackFiles(trajDir string) ([]string, error) {
	entries, err := os.ReadDir(trajDir)
	if os.IsNotExist(err) {
		return nil, nil // user directory without a Trajectory folder
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list trajectory directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".plt") {
			continue
		}
		files = append(files, filepath.Join(trajDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LabeledIDs reads the dataset's optional labeled_ids.txt at the dataset
// root, returning the set of user IDs expected to carry labels. A
// missing file yields an empty set: label presence is then decided per
// user by labels.txt alone.
func LabeledIDs(dataDir string) (map[string]bool, error) {
	path := filepath.Join(filepath.Dir(dataDir), "labeled_ids.txt")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open labeled_ids.txt: %w", err)
	}
	defer f.Close()

	ids := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labeled_ids.txt: %w", err)
	}
	return ids, nil
}
