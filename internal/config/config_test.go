package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"url": "https://www.shizensyokuhin.jp/lp/spring/",
		"email": true,
		"checks": ["title", "image_links"],
		"probe_timeout_seconds": 5,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://www.shizensyokuhin.jp/lp/spring/", cfg.URL)
	assert.True(t, cfg.Email)
	assert.Equal(t, []string{"title", "image_links"}, cfg.Checks)
	assert.Equal(t, 5, cfg.ProbeTimeoutSeconds)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
source: mail.html
email: true
seac: true
separator: "\n"
first_party_domains:
  - www.shizensyokuhin.jp
  - cdn.shizensyokuhin.jp
rate_limit: 2.5
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "mail.html", cfg.Source)
	assert.True(t, cfg.SEAC)
	assert.Equal(t, "\n", cfg.Separator)
	assert.Len(t, cfg.FirstPartyDomains, 2)
	assert.InDelta(t, 2.5, cfg.RateLimit, 0.0001)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("checks: [unclosed"), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_MutuallyExclusive(t *testing.T) {
	cfg := &Config{
		Source: "mail.html",
		URL:    "https://example.com/",
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "negative timeout", cfg: Config{ProbeTimeoutSeconds: -1}, field: "ProbeTimeoutSeconds"},
		{name: "unknown format", cfg: Config{Format: "pdf"}, field: "Format"},
		{name: "bad url", cfg: Config{URL: "not a url"}, field: "URL"},
		{name: "port range", cfg: Config{Port: 70000}, field: "Port"},
		{name: "log level", cfg: Config{LogLevel: "loud"}, field: "LogLevel"},
		{name: "empty check id", cfg: Config{Checks: []string{"title", ""}}, field: "Checks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_SourceMissing(t *testing.T) {
	cfg := &Config{Source: filepath.Join(t.TempDir(), "missing.html")}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file not found")
}

func TestValidate_StdinSource(t *testing.T) {
	cfg := &Config{Source: StdinSource}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Checks = []string{"title"}
	cfg.FirstPartyDomains = []string{"www.shizensyokuhin.jp"}

	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvStorePath, "/tmp/refs.db")
	t.Setenv(EnvDatabaseURL, "postgres://localhost/markup")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvPort, "9090")

	cfg := &Config{StorePath: "ignored.db"}
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "/tmp/refs.db", cfg.StorePath)
	assert.Equal(t, "postgres://localhost/markup", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	cfg := &Config{}
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Defaults()

	partial := Config{
		URL:    "https://example.com/",
		Format: "json",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "https://example.com/", merged.URL)
	assert.Equal(t, "json", merged.Format)

	// Default values should fill in empty fields
	assert.Equal(t, DefaultProbeTimeoutSeconds, merged.ProbeTimeoutSeconds)
	assert.Equal(t, DefaultPort, merged.Port)
	assert.Equal(t, defaults.StorePath, merged.StorePath)
	assert.Equal(t, 10*time.Second, merged.ProbeTimeout())
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		Source: "mail.html",
		Email:  true,
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "mail.html", merged.Source)
	assert.True(t, merged.Email)
	assert.Zero(t, merged.Port)
}
