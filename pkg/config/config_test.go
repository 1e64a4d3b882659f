package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadDefaults verifies Load without a file yields the documented
// defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Builder.BatchSize != 100 || cfg.Builder.Workers != 4 {
		t.Errorf("Builder = %+v, want batchSize 100, workers 4", cfg.Builder)
	}
	if cfg.Search.MaxResults != 100 || cfg.Search.DefaultLimit != 20 {
		t.Errorf("Search = %+v, want maxResults 100, defaultLimit 20", cfg.Search)
	}
	if cfg.Search.SituationWeight != 0.9 || cfg.Search.TopicWeight != 0.8 || cfg.Search.SemanticWeight != 0.6 {
		t.Errorf("strategy weights = %v/%v/%v, want 0.9/0.8/0.6",
			cfg.Search.SituationWeight, cfg.Search.TopicWeight, cfg.Search.SemanticWeight)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Capacity != 500 || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache = %+v, want enabled, capacity 500, ttl 5m", cfg.Cache)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

// TestLoadFromFile verifies YAML values override defaults and untouched
// sections keep theirs.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9999
  readTimeout: 10s
search:
  defaultLimit: 5
  queryBudget: 100ms
cache:
  ttl: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 || cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server = %+v, want port 9999, readTimeout 10s", cfg.Server)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.QueryBudget != 100*time.Millisecond {
		t.Errorf("Search = %+v, want defaultLimit 5, queryBudget 100ms", cfg.Search)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	// Unset fields keep defaults.
	if cfg.Server.WriteTimeout != 30*time.Second || cfg.Cache.Capacity != 500 {
		t.Error("unset fields must keep their defaults")
	}
}

// TestLoadEnvOverrides verifies HD_* variables win over both defaults and
// file values.
func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HD_SERVER_PORT", "7777")
	t.Setenv("HD_CACHE_TTL", "90s")
	t.Setenv("HD_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
}

// TestLoadInvalidEnvIgnored: malformed overrides are skipped, not fatal.
func TestLoadInvalidEnvIgnored(t *testing.T) {
	t.Setenv("HD_SERVER_PORT", "not-a-port")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadValidation covers the rejection paths.
func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero batch size", "builder:\n  batchSize: 0\n", "batchSize"},
		{"negative workers", "builder:\n  workers: -1\n", "workers"},
		{"inverted thresholds", "builder:\n  softMemoryThreshold: 200\n  hardMemoryThreshold: 100\n", "softMemoryThreshold"},
		{"zero cache capacity", "cache:\n  capacity: -5\n", "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
