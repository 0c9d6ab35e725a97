package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// clearEnv blanks every override so the host environment cannot leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SCOREKEEPER_ENDPOINT_URL", "SCOREKEEPER_STORAGE", "SCOREKEEPER_BOLT_PATH",
		"SCOREKEEPER_PERSIST_SESSION", "SCOREKEEPER_ROSTER_SOURCE", "SCOREKEEPER_SUBMIT_TIMEOUT", "NATS_URL", "NATS_ENABLED",
		"LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultEndpointURL, cfg.Endpoint.URL)
	assert.Equal(t, 30*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Submit.Timeout)
	assert.Equal(t, 20*time.Minute, cfg.Timers.DefaultDuration)
	assert.Equal(t, StorageBolt, cfg.Storage.Backend)
	assert.Equal(t, RosterEndpoint, cfg.Rosters.Source)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Storage.PersistSession)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotNil(t, cfg.Submit.Location)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: "9090"
endpoint:
  url: https://league.example/exec
  timeout: 5s
storage:
  backend: postgres
  scope: field-2
  persist_session: true
rosters:
  source: postgres
submit:
  timeout: 20s
  timezone: UTC
timers:
  default_duration: 25m
nats:
  enabled: true
  url: nats://nats:4222
log:
  level: debug
  file: logs/scorekeeper.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://league.example/exec", cfg.Endpoint.URL)
	assert.Equal(t, 5*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, "field-2", cfg.Storage.Scope)
	assert.True(t, cfg.Storage.PersistSession)
	assert.Equal(t, RosterPostgres, cfg.Rosters.Source)
	assert.Equal(t, 20*time.Second, cfg.Submit.Timeout)
	assert.Equal(t, time.UTC, cfg.Submit.Location)
	assert.Equal(t, 25*time.Minute, cfg.Timers.DefaultDuration)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "SCOREKEEPER_GAMELOGS", cfg.NATS.StreamName)
	assert.Equal(t, "logs/scorekeeper.log", cfg.Log.File)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: \"9090\"\nstorage:\n  backend: bolt\n")
	t.Setenv("PORT", "7070")
	t.Setenv("SCOREKEEPER_STORAGE", "memory")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.True(t, cfg.NATS.Enabled)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "bad yaml", body: "port: [", wantErr: "parse config"},
		{name: "bad backend", body: "storage:\n  backend: redis\n", wantErr: "storage.backend"},
		{name: "bad roster source", body: "rosters:\n  source: csv\n", wantErr: "rosters.source"},
		{name: "bad duration", body: "submit:\n  timeout: soon\n", wantErr: "submit.timeout"},
		{name: "zero timeout", body: "submit:\n  timeout: 0s\n", wantErr: "must be positive"},
		{name: "short timer", body: "timers:\n  default_duration: 30s\n", wantErr: "at least 1m"},
		{name: "bad zone", body: "submit:\n  timezone: Mars/Olympus\n", wantErr: "submit.timezone"},
		{name: "bad level", body: "log:\n  level: loud\n", wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
