package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spotlight/internal/client/upload"
	"github.com/dmitrijs2005/spotlight/internal/flagx"
	"github.com/dmitrijs2005/spotlight/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "30s" style strings or integer nanoseconds. Zero values leave the current
// setting untouched.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DatabasePath   string         `json:"database_path"`
	PageLimit      int            `json:"page_limit"`
	SearchDebounce timex.Duration `json:"search_debounce"`
	RateLimit      float64        `json:"rate_limit"`
	RateBurst      int            `json:"rate_burst"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
	Upload         *upload.Config `json:"upload"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PageLimit != 0 {
		cfg.PageLimit = jc.PageLimit
	}
	if jc.SearchDebounce.Duration != 0 {
		cfg.SearchDebounce = jc.SearchDebounce.Duration
	}
	if jc.RateLimit != 0 {
		cfg.RateLimit = jc.RateLimit
	}
	if jc.RateBurst != 0 {
		cfg.RateBurst = jc.RateBurst
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	if jc.Upload != nil {
		cfg.Upload = *jc.Upload
	}
	return nil
}
