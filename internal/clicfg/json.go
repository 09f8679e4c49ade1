package clicfg

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/newssync/internal/flagx"
)

// jsonConfig is the DTO for JSON unmarshalling. Intervals are duration
// strings like "30s" or "15m".
type jsonConfig struct {
	BaseURL       string `json:"base_url"`
	DSN           string `json:"dsn"`
	UserID        string `json:"user_id"`
	ProbeInterval string `json:"probe_interval"`
	SyncInterval  string `json:"sync_interval"`
}

// parseJson overlays Config with values from the JSON file named by the
// -c/-config flag. No flag, no file, no overlay. Read or parse errors
// panic; the CLI has no useful recovery from a broken config file.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.DSN != "" {
		cfg.DSN = jc.DSN
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.ProbeInterval != "" {
		if d, err := time.ParseDuration(jc.ProbeInterval); err == nil {
			cfg.ProbeInterval = d
		}
	}
	if jc.SyncInterval != "" {
		if d, err := time.ParseDuration(jc.SyncInterval); err == nil {
			cfg.SyncInterval = d
		}
	}
}
