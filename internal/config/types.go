// Package config loads settings for the todo client and development server.
package config

import "time"

const (
	// DefaultTimeout of zero leaves requests to the transport default.
	DefaultTimeout        time.Duration = 0
	DefaultLocale                       = "ko-KR"
	DefaultNoticeDuration               = 2000 * time.Millisecond
	DefaultTheme                        = "nord"
	DefaultListenAddr                   = "127.0.0.1:8080"
)

// Config holds every setting. Zero values are filled in by Load.
type Config struct {
	// Remote store
	ServerURL string        `toml:"server_url"`
	Token     string        `toml:"token"`
	Timeout   time.Duration `toml:"timeout"`

	// Local store; also used when no server is configured.
	Local   bool   `toml:"local"`
	DataDir string `toml:"data_dir"`
	DBPath  string `toml:"db_path"`

	LogFile string `toml:"log_file"`
	Debug   bool   `toml:"debug"`

	// Speech capture runs SpeechCommand with SpeechArgs. Empty disables it.
	SpeechCommand string   `toml:"speech_command"`
	SpeechArgs    []string `toml:"speech_args"`
	Locale        string   `toml:"locale"`

	NoticeDuration time.Duration `toml:"notice_duration"`
	Notifications  bool          `toml:"notifications"`
	Theme          string        `toml:"theme"`

	// Development server
	ListenAddr string `toml:"listen_addr"`

	// ConfigFile is the explicit file passed with --config, if any.
	ConfigFile string `toml:"-"`
}

// UsesLocalStore reports whether the client should use the sqlite store.
func (c *Config) UsesLocalStore() bool {
	return c.Local || c.ServerURL == ""
}

func setDefaults(cfg *Config) {
	cfg.Timeout = DefaultTimeout
	cfg.Locale = DefaultLocale
	cfg.NoticeDuration = DefaultNoticeDuration
	cfg.Theme = DefaultTheme
	cfg.ListenAddr = DefaultListenAddr
}
