package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dori/todo/internal/db"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file ($XDG_CONFIG_HOME/todo/config.toml)
// 3. File named by --config or TODO_CONFIG
// 4. Environment variables
// 5. CLI flags
//
// Flags are defined on fs, which may already hold command specific flags.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := userConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	explicit := explicitConfigFile(args)
	if explicit != "" {
		if err := loadConfigFile(cfg, expandPath(explicit)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
		cfg.ConfigFile = explicit
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, err
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// userConfigFile returns the user config path if the file exists.
func userConfigFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	path := filepath.Join(dir, "todo", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// explicitConfigFile finds --config ahead of flag parsing so that flags can
// still override the file.
func explicitConfigFile(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("TODO_CONFIG")
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	cfg.ServerURL = strings.TrimSpace(cfg.ServerURL)
	if cfg.ServerURL != "" {
		u, err := url.Parse(cfg.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server_url %q must be an http or https URL", cfg.ServerURL)
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = db.DefaultDataDir()
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "todo.db")
	}
	cfg.DBPath = expandPath(cfg.DBPath)
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "todo.log")
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	if cfg.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if cfg.NoticeDuration <= 0 {
		return errors.New("notice_duration must be positive")
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = DefaultLocale
	}
	return nil
}
