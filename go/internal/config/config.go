package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEndpointURL is the league deployment that serves rosters and receives game logs
const DefaultEndpointURL = "https://script.google.com/macros/s/AKfycbzcg2i_dSDPwpgs5aHZz6glU4K0z2K6A3CfNxrinzDDff9rYQ6uSA35Btp2hUebFU4/exec"

// Storage backends for the durable scope
const (
	StorageBolt     = "bolt"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Roster sources
const (
	RosterEndpoint = "endpoint"
	RosterPostgres = "postgres"
)

type Config struct {
	Port     string         `yaml:"port"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Storage  StorageConfig  `yaml:"storage"`
	Rosters  RosterConfig   `yaml:"rosters"`
	Submit   SubmitConfig   `yaml:"submit"`
	Timers   TimersConfig   `yaml:"timers"`
	NATS     NATSConfig     `yaml:"nats"`
	Log      LogConfig      `yaml:"log"`
}

type EndpointConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"`
	BoltPath string `yaml:"bolt_path"`
	// Scope separates devices sharing one Postgres database
	Scope string `yaml:"scope"`
	// PersistSession keeps the session scope (score log, rosters) in the durable backend so it
	// survives a restart. Off, the session lives in memory for the life of the process.
	PersistSession bool `yaml:"persist_session"`
}

type RosterConfig struct {
	Source string `yaml:"source"`
}

type SubmitConfig struct {
	Timeout    time.Duration  `yaml:"-"`
	RawTimeout string         `yaml:"timeout"`
	Location   *time.Location `yaml:"-"`
	RawZone    string         `yaml:"timezone"`
}

type TimersConfig struct {
	DefaultDuration time.Duration `yaml:"-"`
	RawDefault      string        `yaml:"default_duration"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads the YAML file at path, applies environment overrides and fills defaults. A missing
// file is not an error; the service runs on defaults and environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Endpoint.URL = getEnv("SCOREKEEPER_ENDPOINT_URL", c.Endpoint.URL)
	c.Storage.Backend = getEnv("SCOREKEEPER_STORAGE", c.Storage.Backend)
	c.Storage.BoltPath = getEnv("SCOREKEEPER_BOLT_PATH", c.Storage.BoltPath)
	c.Storage.PersistSession = getEnvAsBool("SCOREKEEPER_PERSIST_SESSION", c.Storage.PersistSession)
	c.Rosters.Source = getEnv("SCOREKEEPER_ROSTER_SOURCE", c.Rosters.Source)
	c.Submit.RawTimeout = getEnv("SCOREKEEPER_SUBMIT_TIMEOUT", c.Submit.RawTimeout)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

func (c *Config) setDefaults() error {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Endpoint.URL == "" {
		c.Endpoint.URL = DefaultEndpointURL
	}

	var err error
	if c.Endpoint.Timeout, err = parseDuration("endpoint.timeout", c.Endpoint.RawTimeout, "30s"); err != nil {
		return err
	}
	if c.Submit.Timeout, err = parseDuration("submit.timeout", c.Submit.RawTimeout, "15s"); err != nil {
		return err
	}
	if c.Timers.DefaultDuration, err = parseDuration("timers.default_duration", c.Timers.RawDefault, "20m"); err != nil {
		return err
	}

	if c.Submit.RawZone == "" {
		c.Submit.RawZone = "Local"
	}
	loc, err := time.LoadLocation(c.Submit.RawZone)
	if err != nil {
		return fmt.Errorf("parse submit.timezone %q: %w", c.Submit.RawZone, err)
	}
	c.Submit.Location = loc

	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageBolt
	}
	if c.Storage.BoltPath == "" {
		c.Storage.BoltPath = "scorekeeper.db"
	}
	if c.Storage.Scope == "" {
		c.Storage.Scope = "default"
	}
	if c.Rosters.Source == "" {
		c.Rosters.Source = RosterEndpoint
	}

	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.StreamName == "" {
		c.NATS.StreamName = "SCOREKEEPER_GAMELOGS"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "scorekeeper.gamelogs"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageBolt, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q (bolt|postgres|memory)", c.Storage.Backend)
	}
	switch c.Rosters.Source {
	case RosterEndpoint, RosterPostgres:
	default:
		return fmt.Errorf("invalid rosters.source %q (endpoint|postgres)", c.Rosters.Source)
	}
	if c.Submit.Timeout <= 0 {
		return fmt.Errorf("submit.timeout must be positive, got %s", c.Submit.RawTimeout)
	}
	if c.Timers.DefaultDuration < time.Minute {
		return fmt.Errorf("timers.default_duration must be at least 1m, got %s", c.Timers.RawDefault)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	return nil
}

func parseDuration(field, raw, fallback string) (time.Duration, error) {
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
