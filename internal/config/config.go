// Package config loads the pipeline configuration from a JSON file with
// defaults for every dataset-specific constant. The altitude floor and
// invalid sentinel come from the dataset's own conventions, so they are
// configuration rather than hardcoded policy.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/trajectory.report/internal/geo"
)

// Config holds every tunable of the ingestion pipeline and the query
// battery. Fields omitted from the JSON file keep their defaults, so
// partial configs are safe.
type Config struct {
	// DataDir is the dataset root: one directory per user, each holding
	// a Trajectory/ folder of .plt files and an optional labels.txt.
	DataDir string `json:"data_dir"`

	// HeaderLines is the fixed .plt header skipped unconditionally.
	HeaderLines int `json:"header_lines"`

	// MaxRawLines caps the raw line count (header included) of an
	// ingestible file. Oversized files are dropped whole, not trimmed.
	MaxRawLines int `json:"max_raw_lines"`

	// AltitudeFloorFeet is the lowest plausible altitude; anything below
	// it is rewritten to AltitudeInvalid rather than dropped.
	AltitudeFloorFeet int `json:"altitude_floor_feet"`

	// AltitudeInvalid is the sentinel stored for unusable altitudes.
	AltitudeInvalid int `json:"altitude_invalid"`

	// GapMinutes is the consecutive-point gap at or above which an
	// activity counts as invalid.
	GapMinutes int `json:"gap_minutes"`

	// Geofence is the landmark bounding box for the visit query.
	// Defaults to the Forbidden City of Beijing.
	Geofence geo.Box `json:"geofence"`

	// GeofenceName labels the geofence query in reports.
	GeofenceName string `json:"geofence_name"`

	// TopN bounds the ranking queries.
	TopN int `json:"top_n"`

	// WalkUserID and WalkYear parameterize the distance-walked query.
	WalkUserID string `json:"walk_user_id"`
	WalkYear   int    `json:"walk_year"`

	// ModeOfInterest parameterizes the users-by-mode query.
	ModeOfInterest string `json:"mode_of_interest"`

	// PreviewRows is the number of first-rows shown per entity.
	PreviewRows int `json:"preview_rows"`

	// Workers bounds the number of user directories ingested in parallel.
	Workers int `json:"workers"`

	// Driver selects the storage backend: "sqlite" or "postgres".
	Driver string `json:"driver"`

	// DBPath is the SQLite database file (driver "sqlite").
	DBPath string `json:"db_path"`

	// PostgresDSN is the connection string (driver "postgres").
	PostgresDSN string `json:"postgres_dsn"`

	// ReportDir receives the text report and charts.
	ReportDir string `json:"report_dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:           "dataset/Data",
		HeaderLines:       6,
		MaxRawLines:       2507,
		AltitudeFloorFeet: -505,
		AltitudeInvalid:   -777,
		GapMinutes:        5,
		Geofence: geo.Box{
			MinLat: 39.9155,
			MaxLat: 39.9165,
			MinLon: 116.3965,
			MaxLon: 116.3975,
		},
		GeofenceName:   "Forbidden City",
		TopN:           20,
		WalkUserID:     "112",
		WalkYear:       2008,
		ModeOfInterest: "taxi",
		PreviewRows:    10,
		Workers:        8,
		Driver:         "sqlite",
		DBPath:         "trajectory.db",
		ReportDir:      "reports",
	}
}

// Gap returns the invalid-activity threshold as a duration.
func (c *Config) Gap() time.Duration {
	return time.Duration(c.GapMinutes) * time.Minute
}

// Load reads a JSON config file over the defaults. The path must have a
// .json extension; an oversized file is rejected outright.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.HeaderLines < 0 {
		return fmt.Errorf("header_lines must be >= 0, got %d", c.HeaderLines)
	}
	if c.MaxRawLines <= c.HeaderLines {
		return fmt.Errorf("max_raw_lines (%d) must exceed header_lines (%d)", c.MaxRawLines, c.HeaderLines)
	}
	if c.AltitudeInvalid >= c.AltitudeFloorFeet {
		return fmt.Errorf("altitude_invalid (%d) must sit below altitude_floor_feet (%d)", c.AltitudeInvalid, c.AltitudeFloorFeet)
	}
	if c.GapMinutes <= 0 {
		return fmt.Errorf("gap_minutes must be positive, got %d", c.GapMinutes)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("driver must be sqlite or postgres, got %q", c.Driver)
	}
	if c.Geofence.MinLat > c.Geofence.MaxLat || c.Geofence.MinLon > c.Geofence.MaxLon {
		return fmt.Errorf("geofence box has inverted bounds")
	}
	return nil
}
