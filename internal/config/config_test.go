package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"data_dir": "/srv/geolife", "workers": 2, "gap_minutes": 10}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/srv/geolife" {
		t.Errorf("DataDir = %q, want /srv/geolife", cfg.DataDir)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.GapMinutes != 10 {
		t.Errorf("GapMinutes = %d, want 10", cfg.GapMinutes)
	}

	// Fields absent from the file keep their defaults.
	if cfg.MaxRawLines != 2507 {
		t.Errorf("MaxRawLines = %d, want default 2507", cfg.MaxRawLines)
	}
	if cfg.AltitudeInvalid != -777 {
		t.Errorf("AltitudeInvalid = %d, want default -777", cfg.AltitudeInvalid)
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("config.yaml"); err == nil {
		t.Fatal("expected error for non-.json extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max lines below header", func(c *Config) { c.MaxRawLines = 3; c.HeaderLines = 6 }},
		{"sentinel above floor", func(c *Config) { c.AltitudeInvalid = -100 }},
		{"zero gap", func(c *Config) { c.GapMinutes = 0 }},
		{"zero top-n", func(c *Config) { c.TopN = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"unknown driver", func(c *Config) { c.Driver = "duckdb" }},
		{"inverted geofence", func(c *Config) { c.Geofence.MinLat = 50; c.Geofence.MaxLat = 40 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
