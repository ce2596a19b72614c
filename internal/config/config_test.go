package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Feeds)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "GOOGLE_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, 15*time.Second, cfg.Extract.Timeout)
	assert.Equal(t, 3, cfg.Judge.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Judge.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.Judge.MaxBackoff)
	assert.Equal(t, 8000, cfg.Server.Port)
	require.NoError(t, cfg.Validate())
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
server:
  port: 9000
`)
	cfg, err := parse(data)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Defaults should still be set for unspecified fields
	assert.Equal(t, "browser", cfg.Extract.Renderer)
	assert.Equal(t, 10*time.Second, cfg.Judge.MaxBackoff)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Feeds)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Extract.Mode)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:password@db:5432/signal_engine")
	t.Setenv("SIGNAL_PORT", "9100")
	t.Setenv("SIGNAL_RENDERER", "http")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:password@db:5432/signal_engine", cfg.DatabaseURL())
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Extract.Renderer)
}

func TestSignalDatabaseURLWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://shared/db")
	t.Setenv("SIGNAL_DATABASE_URL", "/tmp/signal.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/signal.db", cfg.DatabaseURL())
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	cfg.LLM.Provider = "anthropic-by-carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Extract.Mode = "ocr"
	assert.Error(t, cfg.Validate())

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Judge.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = parse(DefaultConfigYAML)
	cfg.Judge.MaxBackoff = time.Second
	assert.Error(t, cfg.Validate())
}

func TestAPIKeyFromNamedEnv(t *testing.T) {
	cfg := &Config{LLM: LLM{APIKeyEnv: "SIGNAL_TEST_KEY"}}
	t.Setenv("SIGNAL_TEST_KEY", "")
	assert.Empty(t, cfg.APIKey())
	t.Setenv("SIGNAL_TEST_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	assert.NotEmpty(t, cfg.GetDataDir())

	cfg.Output.DataDir = "/custom/path"
	assert.Equal(t, "/custom/path", cfg.GetDataDir())
	assert.Equal(t, filepath.Join("/custom/path", "signalengine.db"), cfg.DatabaseURL())
}
