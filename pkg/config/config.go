// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Builder, Search, Cache, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Builder BuilderConfig `yaml:"builder"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// BuilderConfig controls the offline index builder: batch size, worker pool,
// and the estimated-memory thresholds checked after every batch.
type BuilderConfig struct {
	BatchSize           int   `yaml:"batchSize"`
	Workers             int   `yaml:"workers"`
	SoftMemoryThreshold int64 `yaml:"softMemoryThreshold"`
	HardMemoryThreshold int64 `yaml:"hardMemoryThreshold"`
	MaxSkippedChapters  int   `yaml:"maxSkippedChapters"`
}

// SearchConfig controls query execution limits and the retrieval strategy
// weights. The weights are empirically chosen defaults, not derived values.
type SearchConfig struct {
	MaxResults       int           `yaml:"maxResults"`
	DefaultLimit     int           `yaml:"defaultLimit"`
	MinScore         float64       `yaml:"minScore"`
	SituationWeight  float64       `yaml:"situationWeight"`
	TopicWeight      float64       `yaml:"topicWeight"`
	SemanticWeight   float64       `yaml:"semanticWeight"`
	SemanticFallback bool          `yaml:"semanticFallback"`
	QueryBudget      time.Duration `yaml:"queryBudget"`
}

// CacheConfig controls the in-process LRU result cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Builder: BuilderConfig{
			BatchSize:           100,
			Workers:             4,
			SoftMemoryThreshold: 64 * 1024 * 1024,
			HardMemoryThreshold: 128 * 1024 * 1024,
			MaxSkippedChapters:  25,
		},
		Search: SearchConfig{
			MaxResults:       100,
			DefaultLimit:     20,
			MinScore:         0.0,
			SituationWeight:  0.9,
			TopicWeight:      0.8,
			SemanticWeight:   0.6,
			SemanticFallback: true,
			QueryBudget:      250 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 500,
			TTL:      5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

func (c *Config) validate() error {
	if c.Builder.BatchSize <= 0 {
		return fmt.Errorf("builder.batchSize must be positive, got %d", c.Builder.BatchSize)
	}
	if c.Builder.Workers <= 0 {
		return fmt.Errorf("builder.workers must be positive, got %d", c.Builder.Workers)
	}
	if c.Builder.SoftMemoryThreshold > c.Builder.HardMemoryThreshold {
		return fmt.Errorf("builder.softMemoryThreshold %d exceeds hardMemoryThreshold %d",
			c.Builder.SoftMemoryThreshold, c.Builder.HardMemoryThreshold)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	return nil
}

// applyEnvOverrides reads HD_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HD_BUILDER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Builder.BatchSize = n
		}
	}
	if v := os.Getenv("HD_BUILDER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Builder.Workers = n
		}
	}
	if v := os.Getenv("HD_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("HD_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Capacity = n
		}
	}
	if v := os.Getenv("HD_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("HD_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HD_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HD_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
