package config

import (
	"os"
	"strings"
	"time"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODO_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TODO_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("TODO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("TODO_LOCAL"); v != "" {
		cfg.Local = boolFromString(v)
	}
	if v := os.Getenv("TODO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TODO_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TODO_DEBUG"); v != "" {
		cfg.Debug = boolFromString(v)
	}
	if v := os.Getenv("TODO_SPEECH_CMD"); v != "" {
		if fields := strings.Fields(v); len(fields) > 0 {
			cfg.SpeechCommand = fields[0]
			cfg.SpeechArgs = fields[1:]
		}
	}
	if v := os.Getenv("TODO_LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv("TODO_NOTIFY"); v != "" {
		cfg.Notifications = boolFromString(v)
	}
	if v := os.Getenv("TODO_THEME"); v != "" {
		cfg.Theme = v
	}
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
