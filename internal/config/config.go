// Package config loads pumpscope settings from YAML, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pumpscope/internal/solana"
)

// Waitlist drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Solana   SolanaConfig   `yaml:"solana"`
	Pumpfun  PumpfunConfig  `yaml:"pumpfun"`
	Waitlist WaitlistConfig `yaml:"waitlist"`
	Stream   StreamConfig   `yaml:"stream"`
	Log      LogConfig      `yaml:"log"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SolanaConfig configures the chain reader.
type SolanaConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	WSEndpoint  string        `yaml:"ws_endpoint"` // derived from Endpoint when empty
	Network     string        `yaml:"network"`
	ProgramID   string        `yaml:"program_id"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxAccounts int           `yaml:"max_accounts"`
}

// PumpfunConfig configures the launch-feed client and its cache.
type PumpfunConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RecentLimit int           `yaml:"recent_limit"`
	KingLimit   int           `yaml:"king_limit"`
	RecentTTL   time.Duration `yaml:"recent_ttl"`
	KingTTL     time.Duration `yaml:"king_ttl"`
}

// WaitlistConfig selects and configures the waitlist backend.
type WaitlistConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// StreamConfig configures the websocket snapshot stream.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Solana: SolanaConfig{
			Endpoint:    "https://api.devnet.solana.com",
			Network:     "devnet",
			ProgramID:   "D5HsjjMSrCJyEF1aUuionRsx7MXfKEFWtmSnAN3cQBvB",
			Timeout:     10 * time.Second,
			MaxRetries:  0,
			MaxAccounts: 20,
		},
		Pumpfun: PumpfunConfig{
			BaseURL:     "https://frontend-api-v3.pump.fun",
			Timeout:     10 * time.Second,
			RecentLimit: 10,
			KingLimit:   5,
			RecentTTL:   30 * time.Second,
			KingTTL:     60 * time.Second,
		},
		Waitlist: WaitlistConfig{
			Driver: DriverFile,
			Path:   "data/waitlist.json",
		},
		Stream: StreamConfig{
			Interval: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load returns Default overlaid with the YAML file at path (if non-empty) and then
// with environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays non-empty environment variables onto cfg.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":           &c.HTTP.Addr,
		"SOLANA_RPC_ENDPOINT": &c.Solana.Endpoint,
		"SOLANA_WS_ENDPOINT":  &c.Solana.WSEndpoint,
		"SOLANA_NETWORK":      &c.Solana.Network,
		"SOLANA_PROGRAM_ID":   &c.Solana.ProgramID,
		"PUMPFUN_BASE_URL":    &c.Pumpfun.BaseURL,
		"WAITLIST_DRIVER":     &c.Waitlist.Driver,
		"WAITLIST_PATH":       &c.Waitlist.Path,
		"POSTGRES_DSN":        &c.Waitlist.PostgresDSN,
		"LOG_LEVEL":           &c.Log.Level,
		"LOG_FORMAT":          &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("SOLANA_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SOLANA_MAX_RETRIES: %w", err)
		}
		c.Solana.MaxRetries = n
	}

	if v, ok := lookup("STREAM_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse STREAM_INTERVAL: %w", err)
		}
		c.Stream.Interval = d
	}

	return nil
}

// Validate checks required values.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.Solana.Endpoint == "" {
		errs = append(errs, errors.New("solana.endpoint is required"))
	}
	if _, err := solana.ParsePubkey(c.Solana.ProgramID); err != nil {
		errs = append(errs, fmt.Errorf("solana.program_id: %w", err))
	}
	if c.Solana.MaxRetries < 0 {
		errs = append(errs, errors.New("solana.max_retries must be >= 0"))
	}
	if c.Pumpfun.BaseURL == "" {
		errs = append(errs, errors.New("pumpfun.base_url is required"))
	}
	if c.Stream.Interval <= 0 {
		errs = append(errs, errors.New("stream.interval must be positive"))
	}

	switch c.Waitlist.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.Waitlist.Path == "" {
			errs = append(errs, fmt.Errorf("waitlist.path is required for driver %q", c.Waitlist.Driver))
		}
	case DriverPostgres:
		if c.Waitlist.PostgresDSN == "" {
			errs = append(errs, errors.New("waitlist.postgres_dsn is required for driver \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown waitlist driver %q", c.Waitlist.Driver))
	}

	return errors.Join(errs...)
}
