package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for veriqa-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password) must only come from environment variables.
type Config struct {
	// Source describes the database under inspection.
	Source SourceConfig `yaml:"source"`

	// Checks holds execution settings for quality-check runs.
	Checks ChecksConfig `yaml:"checks"`

	// Log holds logger settings.
	Log LogConfig `yaml:"log"`

	Version string `yaml:"-"` // Set at load time, not from config
}

// SourceConfig describes the connection profile for the database under
// inspection. Port 0 means "use the backend's default port"; each connector
// fills in its own default. The password is never read from YAML.
type SourceConfig struct {
	Kind     string `yaml:"kind" env:"VERIQA_DB_KIND" env-default:"postgres"`
	Host     string `yaml:"host" env:"VERIQA_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"VERIQA_DB_PORT" env-default:"0"`
	User     string `yaml:"user" env:"VERIQA_DB_USER" env-default:""`
	Password string `yaml:"-" env:"VERIQA_DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"VERIQA_DB_NAME" env-default:""`
	Schema   string `yaml:"schema" env:"VERIQA_DB_SCHEMA" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"VERIQA_DB_SSLMODE" env-default:"disable"`

	// MaxOpenConns caps the pool for the session. Profiling runs are
	// sequential, so a small pool is enough.
	MaxOpenConns int `yaml:"max_open_conns" env:"VERIQA_DB_MAX_OPEN_CONNS" env-default:"5"`

	// ConnectTimeoutSeconds bounds the initial dial and liveness probes.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"VERIQA_DB_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// ChecksConfig holds execution settings for quality-check runs.
type ChecksConfig struct {
	// SampleLimit caps the number of violating rows fetched per failed check.
	SampleLimit int `yaml:"sample_limit" env:"VERIQA_SAMPLE_LIMIT" env-default:"100"`

	// QueryTimeoutSeconds bounds each individual check query.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"VERIQA_QUERY_TIMEOUT_SECONDS" env-default:"30"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"VERIQA_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"VERIQA_LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. When config.yaml does not exist the configuration comes
// from environment variables alone, so the CLI works without a config file.
// The database password (VERIQA_DB_PASSWORD) must come from the environment
// (yaml:"-" field).
func Load(version string) (*Config, error) {
	return LoadFile("config.yaml", version)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects settings that would make a run nonsensical.
func (c *Config) validate() error {
	if c.Checks.SampleLimit < 1 {
		return fmt.Errorf("checks.sample_limit must be at least 1, got %d", c.Checks.SampleLimit)
	}
	if c.Checks.QueryTimeoutSeconds < 1 {
		return fmt.Errorf("checks.query_timeout_seconds must be at least 1, got %d", c.Checks.QueryTimeoutSeconds)
	}
	if c.Source.MaxOpenConns < 1 {
		return fmt.Errorf("source.max_open_conns must be at least 1, got %d", c.Source.MaxOpenConns)
	}
	if c.Source.ConnectTimeoutSeconds < 1 {
		return fmt.Errorf("source.connect_timeout_seconds must be at least 1, got %d", c.Source.ConnectTimeoutSeconds)
	}
	return nil
}

// ResolvedHost returns the host to dial, adjusted for Docker networking.
func (c *SourceConfig) ResolvedHost() string {
	return ResolveHostForDocker(c.Host)
}

// QueryTimeout returns the per-query timeout as a duration.
func (c *ChecksConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// ConnectTimeout returns the dial timeout as a duration.
func (c *SourceConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}
