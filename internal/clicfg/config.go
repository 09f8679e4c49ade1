// Package clicfg loads runtime settings for the news CLI: defaults first,
// then an optional JSON file, then command-line flags. Later sources win.
package clicfg

import "time"

// Config holds the CLI's runtime settings.
type Config struct {
	// BaseURL is the backend API root.
	BaseURL string

	// DSN is the sqlite database location.
	DSN string

	// UserID is the initial user scope.
	UserID string

	// ProbeInterval is how often connectivity is probed.
	ProbeInterval time.Duration

	// SyncInterval is the background sync cadence; negative disables it.
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.DSN = "file:news.db"
	c.UserID = "guest"
	c.ProbeInterval = 30 * time.Second
	c.SyncInterval = 15 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a -c/-config file is given) and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
