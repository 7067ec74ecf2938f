package config

import (
	"flag"
	"fmt"
)

// parseFlags defines the shared flags on fs and parses args.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}

	var configFile string
	fs.StringVar(&configFile, "config", cfg.ConfigFile, "Config file")
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Todo server base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	fs.BoolVar(&cfg.Local, "local", cfg.Local, "Use the local sqlite store")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Write debug logs")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Speech capture language")
	fs.BoolVar(&cfg.Notifications, "notify", cfg.Notifications, "Send desktop notifications on failures")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "Theme name")
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address for serve")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}
