// Package config loads the application configuration and exchange schedule
// files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"tradecal/internal/calendar"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradecal binaries.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// HTTPAddr returns host:port for the HTTP listener.
func (s Server) HTTPAddr() string { return s.Host + ":" + strconv.Itoa(s.Port) }

// GRPCAddr returns host:grpc_port for the gRPC listener.
func (s Server) GRPCAddr() string { return s.Host + ":" + strconv.Itoa(s.GRPCPort) }

// Alpaca holds credentials and endpoints for the Alpaca calendar API.
type Alpaca struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	BaseURL         string `yaml:"base_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CalendarConfig controls which exchanges are served and how they are
// sampled.
type CalendarConfig struct {
	// ExchangeDir holds one .json/.yaml file per exchange.
	ExchangeDir string `yaml:"exchange_dir"`
	// Frequency is a Go duration string such as "1h" or "24h".
	Frequency         string `yaml:"frequency"`
	SearchHorizonDays int    `yaml:"search_horizon_days"`
	// Exchanges restricts the served set. Empty means every loaded exchange.
	Exchanges []string `yaml:"exchanges"`
}

// FrequencyDuration parses Frequency, falling back to the calendar default
// when it is empty.
func (c CalendarConfig) FrequencyDuration() (time.Duration, error) {
	if c.Frequency == "" {
		return calendar.DefaultFrequency, nil
	}
	d, err := time.ParseDuration(c.Frequency)
	if err != nil {
		return 0, fmt.Errorf("calendar.frequency: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("calendar.frequency: %s must be positive", c.Frequency)
	}
	return d, nil
}

// Options returns the calendar options described by c.
func (c CalendarConfig) Options() ([]calendar.Option, error) {
	freq, err := c.FrequencyDuration()
	if err != nil {
		return nil, err
	}
	return []calendar.Option{
		calendar.WithFrequency(freq),
		calendar.WithSearchHorizon(c.SearchHorizonDays),
	}, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, fills defaults,
// applies environment variable overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given, with
// environment overrides applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.Calendar.FrequencyDuration(); err != nil {
		return err
	}
	if c.Calendar.SearchHorizonDays < 0 {
		return fmt.Errorf("calendar.search_horizon_days: %d must not be negative", c.Calendar.SearchHorizonDays)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port: %d out of range", c.Server.GRPCPort)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/tradecal.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9090
	}
	if cfg.Alpaca.RateLimitPerMin == 0 {
		cfg.Alpaca.RateLimitPerMin = 200
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Calendar.ExchangeDir == "" {
		cfg.Calendar.ExchangeDir = "config/exchanges"
	}
	if cfg.Calendar.SearchHorizonDays == 0 {
		cfg.Calendar.SearchHorizonDays = calendar.DefaultSearchHorizonDays
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TRADECAL_EXCHANGE_DIR"); v != "" {
		cfg.Calendar.ExchangeDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	// Standard Alpaca SDK names win over ours.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
