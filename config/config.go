package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trip planning service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Report    ReportConfig    `mapstructure:"report"`
	Rendering RenderingConfig `mapstructure:"rendering"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains HTTP server and logging settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// LimitsConfig contains per-client rate and cost limits. The window semantics
// are rolling: trips in the last hour and trips in the last 24 hours. The cost
// accumulator resets at local midnight.
type LimitsConfig struct {
	MaxTripsPerHour      int     `mapstructure:"max_trips_per_hour"`
	MaxTripsPerDay       int     `mapstructure:"max_trips_per_day"`
	DailyCostCapUSD      float64 `mapstructure:"daily_cost_cap_usd"`
	EstimatedCostPerTrip float64 `mapstructure:"estimated_cost_per_trip"`
}

func (l LimitsConfig) Validate() error {
	if l.MaxTripsPerHour <= 0 {
		return fmt.Errorf("limits.max_trips_per_hour must be > 0")
	}
	if l.MaxTripsPerDay < l.MaxTripsPerHour {
		return fmt.Errorf("limits.max_trips_per_day must be >= max_trips_per_hour")
	}
	if l.DailyCostCapUSD <= 0 {
		return fmt.Errorf("limits.daily_cost_cap_usd must be > 0")
	}
	if l.EstimatedCostPerTrip < 0 {
		return fmt.Errorf("limits.estimated_cost_per_trip cannot be negative")
	}
	return nil
}

// PipelineConfig contains agent pipeline settings.
type PipelineConfig struct {
	JobTimeout      time.Duration `mapstructure:"job_timeout"`
	StageTimeout    time.Duration `mapstructure:"stage_timeout"`
	VerifyLinks     bool          `mapstructure:"verify_links"`
	MaxVerifyFetch  int           `mapstructure:"max_verify_fetch"`
	JobRetention    time.Duration `mapstructure:"job_retention"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	MaxRetainedJobs int           `mapstructure:"max_retained_jobs"`
}

func (p PipelineConfig) Validate() error {
	if p.JobTimeout <= 0 {
		return fmt.Errorf("pipeline.job_timeout must be > 0")
	}
	if p.JobRetention <= 0 {
		return fmt.Errorf("pipeline.job_retention must be > 0")
	}
	if p.MaxRetainedJobs <= 0 {
		return fmt.Errorf("pipeline.max_retained_jobs must be > 0")
	}
	return nil
}

// ProvidersConfig contains external provider credentials and tuning.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Serper SerperConfig `mapstructure:"serper"`
	Places PlacesConfig `mapstructure:"google_places"`
}

// OpenAIConfig contains the LLM provider settings.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CostPer1KInput  float64       `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64       `mapstructure:"cost_per_1k_output"`
}

// SerperConfig contains web search settings.
type SerperConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PlacesConfig contains Google Places API settings.
type PlacesConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ReportConfig tunes the advisory itinerary report checks.
type ReportConfig struct {
	ExpectedAccommodations int      `mapstructure:"expected_accommodations"`
	ForbiddenPhrases       []string `mapstructure:"forbidden_phrases"`
}

// RenderingConfig controls the headless-Chrome PDF derivation. When disabled
// the PDF endpoint reports rendering as unavailable.
type RenderingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the artifact/job snapshot backend.
type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // memory or redis
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "", "memory":
		return nil
	case "redis":
		if strings.TrimSpace(s.Redis.Host) == "" {
			return fmt.Errorf("storage.redis.host required when backend is redis")
		}
		if strings.TrimSpace(s.Redis.Port) == "" {
			return fmt.Errorf("storage.redis.port required when backend is redis")
		}
		return nil
	default:
		return fmt.Errorf("storage.backend must be memory or redis, got %q", s.Backend)
	}
}

// TelemetryConfig contains monitoring and cost tracking settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// LoadConfig loads config from file with environment overrides (TRIPWEAVER_*).
// A missing config file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetDefault("general.listen", ":8080")
	v.SetDefault("general.log_level", "info")

	v.SetDefault("limits.max_trips_per_hour", 5)
	v.SetDefault("limits.max_trips_per_day", 20)
	v.SetDefault("limits.daily_cost_cap_usd", 10.0)
	v.SetDefault("limits.estimated_cost_per_trip", 0.03)

	v.SetDefault("pipeline.job_timeout", "10m")
	v.SetDefault("pipeline.stage_timeout", "4m")
	v.SetDefault("pipeline.verify_links", true)
	v.SetDefault("pipeline.max_verify_fetch", 5)
	v.SetDefault("pipeline.job_retention", "1h")
	v.SetDefault("pipeline.sweep_interval", "5m")
	v.SetDefault("pipeline.max_retained_jobs", 500)

	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.max_tokens", 8192)
	v.SetDefault("providers.openai.temperature", 0.2)
	v.SetDefault("providers.openai.timeout", "120s")
	v.SetDefault("providers.openai.cost_per_1k_input", 0.00015)
	v.SetDefault("providers.openai.cost_per_1k_output", 0.0006)
	v.SetDefault("providers.serper.max_results", 10)
	v.SetDefault("providers.serper.timeout", "15s")
	v.SetDefault("providers.google_places.max_results", 5)
	v.SetDefault("providers.google_places.timeout", "10s")

	v.SetDefault("report.expected_accommodations", 3)

	v.SetDefault("rendering.enabled", false)
	v.SetDefault("rendering.timeout", "30s")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.ttl", "24h")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", true)
	v.SetDefault("telemetry.periodic_logs", false)

	v.SetEnvPrefix("TRIPWEAVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
