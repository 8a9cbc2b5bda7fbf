package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/checks"
	"github.com/jonathan/markup-checker/internal/config"
	"github.com/jonathan/markup-checker/internal/executor"
	"github.com/jonathan/markup-checker/internal/fetch"
	"github.com/jonathan/markup-checker/internal/logging"
	"github.com/jonathan/markup-checker/internal/types"
)

// Flags shared by every command.
var (
	configPath  string
	verbose     bool
	logLevel    string
	storePath   string
	databaseURL string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&storePath, "store", "", "Path to the SQLite reference store")
	flags.StringVar(&databaseURL, "database-url", "", "PostgreSQL URL for the reference store (overrides --store)")
}

// loadConfig layers the config file, the environment and the global flags
// over the built-in defaults. Command-specific flags are applied by callers.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StorePath = storePath
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the zap logger for cfg. Logs go to stderr so stdout
// stays reserved for command output.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Verbose {
		return logging.NewVerbose(true)
	}
	return logging.New(cfg.LogLevel)
}

func newExecutor(cfg config.Config, logger *zap.Logger) *executor.Executor {
	return executor.New(checks.NewStandardRegistry(), executor.Options{
		Separator:    cfg.Separator,
		CheckTimeout: cfg.CheckTimeout(),
		Concurrency:  cfg.Concurrency,
		Logger:       logger,
	})
}

// newImageLoader probes images over HTTP, sharing results within a process.
func newImageLoader(cfg config.Config) *fetch.CachedLoader {
	return fetch.NewCachedLoader(fetch.NewProber(cfg.ProbeTimeout()), fetch.DefaultProbeCacheTTL)
}

func newInput(cfg config.Config, refs types.ReferenceValues, images fetch.ImageLoader) checks.Input {
	return checks.Input{
		References:        refs,
		Flags:             types.ChannelFlags{Email: cfg.Email, SEAC: cfg.SEAC},
		Images:            images,
		FirstPartyDomains: cfg.FirstPartyDomains,
		ProbeTimeout:      cfg.ProbeTimeout(),
		ProbeConcurrency:  cfg.ProbeConcurrency,
	}
}

// closeQuietly closes c and logs a failure.
func closeQuietly(logger *zap.Logger, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logger.Warn(fmt.Sprintf("Failed to close %s", name), zap.Error(err))
	}
}
