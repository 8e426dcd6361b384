// Package config loads application configuration from environment
// variables layered over an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces all environment overrides, e.g. FINCAST_SERVER_PORT
const envPrefix = "FINCAST"

// Config is the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/fincast.log"`
}

// PathsConfig contains input and output locations
type PathsConfig struct {
	EnrichedData string `yaml:"enriched_data" envconfig:"ENRICHED_DATA" default:"data/processed/fi_enriched.csv"`
	ImpactLinks  string `yaml:"impact_links" envconfig:"IMPACT_LINKS" default:"data/processed/fi_impact_links.csv"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"models"`
}

// ForecastConfig contains the forecast horizon and target parameters
type ForecastConfig struct {
	StartYear   int     `yaml:"start_year" envconfig:"START_YEAR" default:"2025" validate:"gt=2000"`
	EndYear     int     `yaml:"end_year" envconfig:"END_YEAR" default:"2027" validate:"gtefield=StartYear"`
	TargetValue float64 `yaml:"target_value" envconfig:"TARGET_VALUE" default:"70" validate:"gt=0,lte=100"`
	TargetYear  int     `yaml:"target_year" envconfig:"TARGET_YEAR" default:"2025" validate:"gt=2000"`
	Concurrency int     `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4" validate:"gt=0"`
}

// Years expands the configured horizon into the list of forecast years
func (fc ForecastConfig) Years() []int {
	years := make([]int, 0, fc.EndYear-fc.StartYear+1)
	for y := fc.StartYear; y <= fc.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

// Load builds the configuration in three layers: struct defaults, then
// environment variables, then the YAML file (when present) on top. The
// result is validated before use.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", configFile, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration invariants
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}
