package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"event-server/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSecretsDir(t *testing.T, dir string) {
	t.Helper()
	prev := utils.SecretsDir
	utils.SecretsDir = dir
	t.Cleanup(func() { utils.SecretsDir = prev })
}

func TestLoadConfig_Defaults(t *testing.T) {
	useSecretsDir(t, t.TempDir())
	t.Setenv("DB_HOST", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, PushProviderStub, cfg.Push.Provider)
	assert.Equal(t, 100, cfg.Push.BatchSize)
	assert.Equal(t, 4, cfg.Push.Parallelism)
	assert.Equal(t, 10*time.Second, cfg.Push.BatchTimeout)
	assert.Equal(t, "fr", cfg.Push.Locale)
	assert.Equal(t, "event_created", cfg.RabbitMQ.EventCreatedQueue)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TicketTTL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DispatchMarkerTTL)
	assert.False(t, cfg.Postgres.Enabled())
}

func TestLoadConfig_YAMLAndSecrets(t *testing.T) {
	dir := t.TempDir()
	secretsDir := filepath.Join(dir, "secrets")
	useSecretsDir(t, secretsDir)
	require.NoError(t, os.MkdirAll(secretsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "db_password"), []byte("s3cret\n"), 0o600))

	yml := `
push:
  provider: EXPO
  batch_size: 50
  parallelism: 8
  batch_timeout: 5s
  locale: en
postgres:
  host: db
  user: app
  name: events
`
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o600))

	cfg, err := LoadConfig(cfgPath, "")
	require.NoError(t, err)

	assert.Equal(t, PushProviderExpo, cfg.Push.Provider)
	assert.Equal(t, 50, cfg.Push.BatchSize)
	assert.Equal(t, 8, cfg.Push.Parallelism)
	assert.Equal(t, 5*time.Second, cfg.Push.BatchTimeout)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.True(t, cfg.Postgres.Enabled())
	assert.Equal(t, "postgres://app:s3cret@db:5432/events?sslmode=disable", cfg.Postgres.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Push:     PushConfig{Provider: "stub", BatchSize: 100, Parallelism: 4, BatchTimeout: time.Second, Locale: "fr"},
			Notifier: NotifierConfig{QueueSize: 1, Workers: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Push.Provider = "pigeon" }},
		{"zero batch size", func(c *Config) { c.Push.BatchSize = 0 }},
		{"too much parallelism", func(c *Config) { c.Push.Parallelism = 64 }},
		{"zero timeout", func(c *Config) { c.Push.BatchTimeout = 0 }},
		{"unsupported locale", func(c *Config) { c.Push.Locale = "jp" }},
		{"no notifier workers", func(c *Config) { c.Notifier.Workers = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
