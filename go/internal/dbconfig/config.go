package dbconfig

import (
	"net"
	"net/url"
	"os"
	"strconv"
)

// Config holds Postgres connection settings shared by the durable store, the roster source and
// the seed tool.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewConfigFromEnv reads DB_* environment variables, falling back to a local development database
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	if err != nil || port <= 0 {
		port = 5432
	}

	return Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     port,
		User:     envOr("DB_USER", "postgres"),
		Password: envOr("DB_PASSWORD", "postgres"),
		Database: envOr("DB_NAME", "scorekeeper"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
}

// DSN returns the connection URL with user and password escaped
func (c Config) DSN() string {
	return c.url(url.UserPassword(c.User, c.Password)).String()
}

// Redacted is the DSN with the password masked, for logs
func (c Config) Redacted() string {
	return c.url(url.UserPassword(c.User, c.Password)).Redacted()
}

func (c Config) url(user *url.Userinfo) *url.URL {
	return &url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
