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

func TestLoadFromFile_MemoryDriverDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: creator-workflow
database:
  driver: memory
workers:
  transition-application:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "creator-workflow", cfg.App.Name)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 8, cfg.Engine.BulkMaxConcurrency)
	assert.Equal(t, 3, cfg.Engine.ConversationMaxAttempts)
	assert.Equal(t, 100, cfg.Engine.ListingMaxPageSize)
	assert.Equal(t, TransportNone, cfg.Notifications.Transport)

	w := cfg.Workers["transition-application"]
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_HOST", "db.internal")
	path := writeConfig(t, `
database:
  driver: postgres
  postgres:
    host: ${TEST_PG_HOST}
    database: marketplace
    user: workflow
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "host=db.internal")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "sslmode=disable")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "memory store needs no postgres",
			mutate: func(c *Config) {},
		},
		{
			name:    "camunda enabled without broker",
			mutate:  func(c *Config) { c.Camunda.Enabled = true },
			wantErr: "camunda.broker_address",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Database.Driver = DriverPostgres },
			wantErr: "database.postgres.host",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite" },
			wantErr: "not supported",
		},
		{
			name:    "sns without topic",
			mutate:  func(c *Config) { c.Notifications.Transport = TransportSNS },
			wantErr: "topic_arn",
		},
		{
			name:    "amqp without url",
			mutate:  func(c *Config) { c.Notifications.Transport = TransportAMQP },
			wantErr: "amqp.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{Driver: DriverMemory}}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"rank-listing": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "rank-listing"))
	assert.True(t, IsWorkerEnabled(cfg, "calculate-match-score"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "calculate-match-score").MaxJobsActive)
	assert.Equal(t, 2, GetWorkerConfig(cfg, "rank-listing").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
