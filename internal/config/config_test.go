package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BOT_TOKEN", "BOT_HANDLE", "DATABASE_URL", "JWT_SECRET", "PORT", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_BUCKET"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, 12, cfg.Session.MaxPhotos)
	assert.Equal(t, 1200, cfg.Media.MaxWidth)
	assert.Equal(t, 800, cfg.Media.MaxHeight)
	assert.Equal(t, 90, cfg.Media.JPEGQuality)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Publish.Backend)
	assert.Equal(t, "https://t.me", cfg.Publish.LinkBase)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
session:
  idle_timeout: 10m
publish:
  dir: /var/www/sites
  base_url: https://listings.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "/var/www/sites", cfg.Publish.Dir)
	assert.Equal(t, "https://listings.example.com", cfg.Publish.BaseURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BOT_HANDLE", "listing_bot")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SecretString("123:abc"), cfg.Bot.Token)
	assert.Equal(t, "listing_bot", cfg.Bot.Handle)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, SecretString("s3cret"), cfg.Server.JWTSecret)
}

func TestLoad_UnknownField(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "version: 1\nunknown_field: value\n"))
	assert.Error(t, err)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"quality", "media:\n  jpeg_quality: 10\n"},
		{"driver", "database:\n  driver: mysql\n"},
		{"postgres without url", "database:\n  driver: postgres\n"},
		{"supabase without credentials", "publish:\n  backend: supabase\n"},
		{"logging level", "logging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SupabaseFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")

	cfg, err := Load(writeConfig(t, "publish:\n  backend: supabase\n"))
	require.NoError(t, err)
	assert.Equal(t, "listing-sites", cfg.Supabase.Bucket)
}

func TestDump_HidesSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load("")
	require.NoError(t, err)

	data, err := Dump(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "123:abc")
	assert.Contains(t, string(data), SecretStringValue)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Contains(t, back, "session")
}

func TestDefaults_AreValidYAML(t *testing.T) {
	data := Defaults()
	require.NotEmpty(t, data)
	_, err := unmarshalConfig(data, &Config{})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "version: 1"))
}

func TestLoggingPrepare(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: filepath.Join(t.TempDir(), "test.log"), Mode: "overwrite"},
	}
	log, err := conf.Prepare()
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(conf.FileLogger.Destination)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
