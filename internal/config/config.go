// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvStorePath   = "MARKUP_CHECKER_STORE"
	EnvLogLevel    = "MARKUP_CHECKER_LOG_LEVEL"
	EnvSeparator   = "MARKUP_CHECKER_SEPARATOR"
	EnvDatabaseURL = "DATABASE_URL"
	EnvPort        = "PORT"
)

// StdinSource as Source reads the markup from standard input.
const StdinSource = "-"

// Defaults applied by MergeWithDefaults when a field is unset.
const (
	DefaultPort                = 8080
	DefaultCheckTimeoutSeconds = 60
	DefaultProbeTimeoutSeconds = 10
	DefaultProbeConcurrency    = 8
	DefaultRateLimit           = 5.0
	DefaultRateBurst           = 10
	DefaultFormat              = "text"
)

// Config represents the configuration that can be loaded from a YAML or JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input
	Source string   `json:"source,omitempty" yaml:"source,omitempty"`                           // Path to an HTML file, or StdinSource
	URL    string   `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`         // Page to fetch and check
	Checks []string `json:"checks,omitempty" yaml:"checks,omitempty" validate:"dive,required"`   // Explicit check ids; empty runs the channel battery
	Format string   `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=text json markdown html"`

	// Channel
	Email bool `json:"email,omitempty" yaml:"email,omitempty"` // Email variant (false = web)
	SEAC  bool `json:"seac,omitempty" yaml:"seac,omitempty"`   // Alternate footer/favicon variant

	// Execution
	Separator           string   `json:"separator,omitempty" yaml:"separator,omitempty"`
	CheckTimeoutSeconds int      `json:"check_timeout_seconds,omitempty" yaml:"check_timeout_seconds,omitempty" validate:"gte=0"`
	ProbeTimeoutSeconds int      `json:"probe_timeout_seconds,omitempty" yaml:"probe_timeout_seconds,omitempty" validate:"gte=0"`
	ProbeConcurrency    int      `json:"probe_concurrency,omitempty" yaml:"probe_concurrency,omitempty" validate:"gte=0"`
	Concurrency         int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`
	FirstPartyDomains   []string `json:"first_party_domains,omitempty" yaml:"first_party_domains,omitempty" validate:"dive,hostname"`
	UseBrowser          bool     `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // Render fetched pages in headless Chrome

	// Storage
	StorePath   string `json:"store_path,omitempty" yaml:"store_path,omitempty"`     // SQLite reference store
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL; wins over StorePath

	// Server
	Port      int     `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" validate:"gte=0"` // Requests per second per client
	RateBurst int     `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty" validate:"gte=0"`

	// Logging
	Verbose  bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// LoadConfig loads configuration from a YAML or JSON file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset variables leave the field alone.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvStorePath); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSeparator); v != "" {
		c.Separator = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be a number, got %q", EnvPort, v)
		}
		c.Port = port
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Source != "" && c.URL != "" {
		return fmt.Errorf("config error: 'source' and 'url' are mutually exclusive")
	}

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Source != "" && c.Source != StdinSource {
		if _, err := os.Stat(c.Source); os.IsNotExist(err) {
			return fmt.Errorf("config error: source file not found: %s", c.Source)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.Separator == "" {
		result.Separator = defaults.Separator
	}
	if result.StorePath == "" {
		result.StorePath = defaults.StorePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Slices
	if len(result.Checks) == 0 {
		result.Checks = defaults.Checks
	}
	if len(result.FirstPartyDomains) == 0 {
		result.FirstPartyDomains = defaults.FirstPartyDomains
	}

	// Int fields: use default if zero
	if result.CheckTimeoutSeconds == 0 {
		result.CheckTimeoutSeconds = defaults.CheckTimeoutSeconds
	}
	if result.ProbeTimeoutSeconds == 0 {
		result.ProbeTimeoutSeconds = defaults.ProbeTimeoutSeconds
	}
	if result.ProbeConcurrency == 0 {
		result.ProbeConcurrency = defaults.ProbeConcurrency
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RateBurst == 0 {
		result.RateBurst = defaults.RateBurst
	}
	if result.RateLimit == 0 {
		result.RateLimit = defaults.RateLimit
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Format:              DefaultFormat,
		StorePath:           DefaultStorePath(),
		CheckTimeoutSeconds: DefaultCheckTimeoutSeconds,
		ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
		ProbeConcurrency:    DefaultProbeConcurrency,
		Port:                DefaultPort,
		RateLimit:           DefaultRateLimit,
		RateBurst:           DefaultRateBurst,
		LogLevel:            "info",
	}
}

// DefaultStorePath is the SQLite reference store under the user config directory.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "markup-checker", "references.db")
}

// CheckTimeout returns the per-check timeout as a duration.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.CheckTimeoutSeconds) * time.Second
}

// ProbeTimeout returns the per-image probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}
