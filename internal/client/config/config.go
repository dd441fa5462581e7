package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/upload"
	"github.com/dmitrijs2005/spotlight/internal/debounce"
)

// Config holds runtime settings for the Spotlight CLI.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DatabasePath   string
	PageLimit      int
	SearchDebounce time.Duration
	RateLimit      float64
	RateBurst      int
	LogLevel       string
	LogFormat      string
	Upload         upload.Config
}

// LoadDefaults populates c with built-in defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api/v1"
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "spotlight.db"
	c.PageLimit = 10
	c.SearchDebounce = debounce.DefaultWait
	c.RateLimit = 10
	c.RateBurst = 5
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// DefaultEnvFile is read, when present, before the process environment is
// consulted. Variables already set in the environment take precedence.
const DefaultEnvFile = ".env"

// Load builds a Config from defaults, the environment, an optional JSON file
// (-c/-config) and flags, each overriding the previous.
func Load(args []string) (*Config, error) {
	return load(args, DefaultEnvFile, os.LookupEnv)
}

// LoadConfig is Load over os.Args. It panics on invalid configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

func load(args []string, envFile string, lookup lookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := readEnv(envFile, lookup)
	if err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL %q", c.APIBaseURL)
	}
	switch {
	case c.RequestTimeout <= 0:
		return errors.New("request timeout must be positive")
	case c.PageLimit <= 0:
		return errors.New("page limit must be positive")
	case c.SearchDebounce < 0:
		return errors.New("search debounce must not be negative")
	case c.RateLimit <= 0 || c.RateBurst <= 0:
		return errors.New("rate limit and burst must be positive")
	case c.DatabasePath == "":
		return errors.New("database path is required")
	}
	return nil
}
