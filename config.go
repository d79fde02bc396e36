package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// --- Config Types ---

type Config struct {
	ListenAddr string         `json:"listenAddr"`
	DataDir    string         `json:"dataDir"`
	Discord    DiscordConfig  `json:"discord"`
	Groq       GroqConfig     `json:"groq"`
	Reminders  ReminderConfig `json:"reminders"`
	Logging    LoggingConfig  `json:"logging"`
}

// DiscordConfig holds credentials for the Discord REST API.
type DiscordConfig struct {
	BotToken string `json:"botToken"` // $ENV_VAR supported
	APIBase  string `json:"apiBase,omitempty"`
}

// GroqConfig configures the hosted-LLM categorization call. Groq speaks the
// OpenAI wire API, so BaseURL defaults to their OpenAI-compatible endpoint.
type GroqConfig struct {
	APIKey  string `json:"apiKey"` // $ENV_VAR supported
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
}

func (g GroqConfig) modelOrDefault() string {
	if g.Model != "" {
		return g.Model
	}
	return "llama-3.1-8b-instant"
}

func (g GroqConfig) baseURLOrDefault() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return "https://api.groq.com/openai/v1"
}

// ReminderConfig configures the reminder scheduler.
type ReminderConfig struct {
	SweepInterval string `json:"sweepInterval,omitempty"` // default "5m"
}

func (rc ReminderConfig) sweepIntervalOrDefault() time.Duration {
	if rc.SweepInterval != "" {
		if d, err := time.ParseDuration(rc.SweepInterval); err == nil && d > 0 {
			return d
		}
	}
	return 5 * time.Minute
}

type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // text, json
}

func (lc LoggingConfig) levelOrDefault() string {
	if lc.Level != "" {
		return lc.Level
	}
	return "info"
}

// --- Loading ---

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lunchbox.json"
	}
	return filepath.Join(home, ".lunchbox", "config.json")
}

// loadConfig reads the config file and applies defaults. A missing file is not
// an error; the zero config with defaults is returned.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8390"
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			cfg.DataDir = "data"
		} else {
			cfg.DataDir = filepath.Join(home, ".lunchbox", "data")
		}
	}

	// Secrets may reference environment variables.
	cfg.Discord.BotToken = expandEnvRef(cfg.Discord.BotToken)
	cfg.Groq.APIKey = expandEnvRef(cfg.Groq.APIKey)
	if cfg.Discord.BotToken == "" {
		cfg.Discord.BotToken = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.Groq.APIKey == "" {
		cfg.Groq.APIKey = os.Getenv("GROQ_API_KEY")
	}
	return cfg, nil
}

// expandEnvRef resolves "$VAR" values to the environment variable contents.
func expandEnvRef(s string) string {
	if strings.HasPrefix(s, "$") {
		return os.Getenv(strings.TrimPrefix(s, "$"))
	}
	return s
}
