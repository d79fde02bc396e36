package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8390", cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.modelOrDefault())
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.baseURLOrDefault())
	assert.Equal(t, 5*time.Minute, cfg.Reminders.sweepIntervalOrDefault())
	assert.Equal(t, "info", cfg.Logging.levelOrDefault())
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"listenAddr": "0.0.0.0:9000",
		"dataDir": "/tmp/lunchbox-test",
		"groq": {"apiKey": "gk-plain", "model": "llama-3.3-70b-versatile"},
		"reminders": {"sweepInterval": "30s"},
		"logging": {"level": "debug", "format": "json"}
	}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/lunchbox-test", cfg.DataDir)
	assert.Equal(t, "gk-plain", cfg.Groq.APIKey)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.modelOrDefault())
	assert.Equal(t, 30*time.Second, cfg.Reminders.sweepIntervalOrDefault())
	assert.Equal(t, "debug", cfg.Logging.levelOrDefault())
}

func TestLoadConfig_ExpandsEnvRefs(t *testing.T) {
	t.Setenv("LB_TEST_BOT_TOKEN", "tok-from-env")
	path := writeConfigFile(t, `{"discord": {"botToken": "$LB_TEST_BOT_TOKEN"}}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-from-env", cfg.Discord.BotToken)
}

func TestLoadConfig_EnvFallbackForSecrets(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok-fallback")
	t.Setenv("GROQ_API_KEY", "gk-fallback")
	path := writeConfigFile(t, `{}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-fallback", cfg.Discord.BotToken)
	assert.Equal(t, "gk-fallback", cfg.Groq.APIKey)
}

func TestLoadConfig_RejectsMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, `{"listenAddr": `)
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestSweepIntervalIgnoresBadValues(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ReminderConfig{SweepInterval: "soon"}.sweepIntervalOrDefault())
	assert.Equal(t, 5*time.Minute, ReminderConfig{SweepInterval: "-1m"}.sweepIntervalOrDefault())
}
