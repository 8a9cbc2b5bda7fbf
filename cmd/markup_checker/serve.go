package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/refstore"
	"github.com/jonathan/markup-checker/internal/server"
	"github.com/jonathan/markup-checker/internal/server/ratelimit"
)

var (
	servePort    int
	serveBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that exposes the fetch proxy (POST /fetch), check runs
(POST /check, GET /checks) and the reference values (GET/PUT /references).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080, or $PORT)")
	serveCmd.Flags().BoolVar(&serveBrowser, "browser", false, "Render fetched pages in headless Chrome")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if serveBrowser {
		cfg.UseBrowser = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := refstore.Open(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open reference store: %w", err)
	}
	defer closeQuietly(logger, "reference store", store)

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		UseBrowser:        cfg.UseBrowser,
		ProbeTimeout:      cfg.ProbeTimeout(),
		ProbeConcurrency:  cfg.ProbeConcurrency,
		FirstPartyDomains: cfg.FirstPartyDomains,
		RateLimit:         ratelimit.LoadConfig(cfg.RateLimit, cfg.RateBurst),
	}, server.Deps{
		Store:    store,
		Executor: newExecutor(cfg, logger),
		Images:   newImageLoader(cfg),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Reference store ready", zap.String("store", describeStore(cfg.DatabaseURL, cfg.StorePath)))
	return srv.Start()
}

func describeStore(databaseURL, storePath string) string {
	switch {
	case databaseURL != "":
		return "postgres"
	case storePath != "":
		return storePath
	default:
		return "memory"
	}
}
