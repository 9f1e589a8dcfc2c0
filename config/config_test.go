package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("explicit missing file should error")
	}

	// No explicit path: defaults apply even without a config file on disk.
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Listen != ":8080" {
		t.Fatalf("listen = %q", cfg.General.Listen)
	}
	if cfg.Limits.MaxTripsPerHour != 5 || cfg.Limits.MaxTripsPerDay != 20 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.DailyCostCapUSD != 10.0 || cfg.Limits.EstimatedCostPerTrip != 0.03 {
		t.Fatalf("cost limits = %+v", cfg.Limits)
	}
	if cfg.Pipeline.JobTimeout != 10*time.Minute {
		t.Fatalf("job timeout = %s", cfg.Pipeline.JobTimeout)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("backend = %q", cfg.Storage.Backend)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"general": {"listen": ":9191"},
		"limits": {"max_trips_per_hour": 2, "max_trips_per_day": 4},
		"pipeline": {"job_timeout": "30s"},
		"storage": {"backend": "redis", "redis": {"host": "localhost"}}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Listen != ":9191" {
		t.Fatalf("listen = %q", cfg.General.Listen)
	}
	if cfg.Limits.MaxTripsPerHour != 2 || cfg.Limits.MaxTripsPerDay != 4 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Pipeline.JobTimeout != 30*time.Second {
		t.Fatalf("job timeout = %s", cfg.Pipeline.JobTimeout)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.Redis.Host != "localhost" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	// Default survives alongside the overridden host.
	if cfg.Storage.Redis.Port != "6379" {
		t.Fatalf("redis port = %q", cfg.Storage.Redis.Port)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"day below hour": `{"limits": {"max_trips_per_hour": 10, "max_trips_per_day": 5}}`,
		"zero hour":      `{"limits": {"max_trips_per_hour": 0}}`,
		"bad backend":    `{"storage": {"backend": "dynamo"}}`,
		"redis no host":  `{"storage": {"backend": "redis", "redis": {"host": ""}}}`,
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
