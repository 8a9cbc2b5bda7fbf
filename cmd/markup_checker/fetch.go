package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/markup-checker/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Fetch a page's markup",
	Long:  "Fetches the HTML of a page, decoded to UTF-8, the same way the server's /fetch endpoint does.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

var (
	fetchBrowser bool
	fetchOutput  string
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchBrowser, "browser", false, "Render the page in headless Chrome")
	fetchCmd.Flags().StringVarP(&fetchOutput, "out", "o", "", "Write the HTML to this file instead of stdout")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := fetch.Page(ctx, args[0], fetchBrowser || cfg.UseBrowser, fetch.DefaultOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", args[0], err)
	}

	if fetchOutput == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), result.HTML)
		return err
	}
	if err := os.WriteFile(fetchOutput, []byte(result.HTML), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Fetched %s (%d bytes) to %s\n", result.FinalURL, len(result.HTML), fetchOutput)
	return nil
}
