package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/config"
	"github.com/jonathan/markup-checker/internal/fetch"
	"github.com/jonathan/markup-checker/internal/refstore"
	"github.com/jonathan/markup-checker/internal/report"
	"github.com/jonathan/markup-checker/internal/schemas"
	"github.com/jonathan/markup-checker/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the checklist against an HTML file or URL",
	Long: `Runs the standard check battery (or the checks named with --checks) against
markup read from --source or fetched from --url, and prints the report.

Reference values come from the reference store unless overridden with
--title, --preheader or --prod-cd. The command exits non-zero when any check
does not pass.`,
	Example: `  markup_checker check --source mail.html --email
  markup_checker check --url https://www.shizensyokuhin.jp/lp/spring/ --format markdown
  cat mail.html | markup_checker check --source - --email --checks title,mail_preheader`,
	RunE: runCheck,
}

var (
	checkSource    string
	checkURL       string
	checkEmail     bool
	checkSEAC      bool
	checkBrowser   bool
	checkIDs       []string
	checkFormat    string
	checkOutput    string
	checkTitle     string
	checkPreheader string
	checkProdCd    string
)

func init() {
	checkCmd.Flags().StringVarP(&checkSource, "source", "s", "", "Path to the HTML file (\"-\" reads stdin)")
	checkCmd.Flags().StringVarP(&checkURL, "url", "u", "", "URL of the page to fetch and check")
	checkCmd.Flags().BoolVar(&checkEmail, "email", false, "Check the email variant (default is web)")
	checkCmd.Flags().BoolVar(&checkSEAC, "seac", false, "Check the SEAC footer and favicon variant")
	checkCmd.Flags().BoolVar(&checkBrowser, "browser", false, "Render --url in headless Chrome before checking")
	checkCmd.Flags().StringSliceVarP(&checkIDs, "checks", "c", nil, "Comma-separated check ids (default: every check for the channel)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "", "Output format: "+strings.Join(report.Formats, ", "))
	checkCmd.Flags().StringVarP(&checkOutput, "out", "o", "", "Write the report to this file instead of stdout")
	checkCmd.Flags().StringVar(&checkTitle, "title", "", "Expected title (overrides the stored value)")
	checkCmd.Flags().StringVar(&checkPreheader, "preheader", "", "Expected preheader (overrides the stored value)")
	checkCmd.Flags().StringVar(&checkProdCd, "prod-cd", "", "Expected product code (overrides the stored value)")

	rootCmd.AddCommand(checkCmd)
}

// applyCheckFlags overrides cfg with the flags given on the command line.
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source, cfg.URL = checkSource, ""
	}
	if flags.Changed("url") {
		cfg.URL = checkURL
		if !flags.Changed("source") {
			cfg.Source = ""
		}
	}
	if flags.Changed("email") {
		cfg.Email = checkEmail
	}
	if flags.Changed("seac") {
		cfg.SEAC = checkSEAC
	}
	if flags.Changed("browser") {
		cfg.UseBrowser = checkBrowser
	}
	if flags.Changed("checks") {
		cfg.Checks = checkIDs
	}
	if flags.Changed("format") {
		cfg.Format = checkFormat
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyCheckFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Source == "" && cfg.URL == "" {
		return fmt.Errorf("either --source or --url is required")
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

	refs, err := loadReferences(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}

	source, baseURL, err := readSource(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}

	runner := newExecutor(cfg, logger)
	in := newInput(cfg, refs, newImageLoader(cfg))
	in.BaseURL = baseURL

	var r *types.Report
	var runErr error
	if len(cfg.Checks) > 0 {
		r, runErr = runner.RunIDs(ctx, cfg.Checks, source, in)
	} else {
		r, runErr = runner.RunDefault(ctx, source, in)
	}
	if r == nil {
		return fmt.Errorf("check run failed: %w", runErr)
	}
	if runErr != nil {
		logger.Warn("Some checks failed to execute", zap.Error(runErr))
	}

	if err := writeReport(cmd, r, cfg.Format); err != nil {
		return err
	}

	if !r.Passed() {
		return fmt.Errorf("check found %d violation(s)", len(r.Entries)-r.Count(types.StatusPass))
	}
	return nil
}

// loadReferences reads the stored reference values and applies flag overrides.
// The store is only opened when at least one value is not overridden.
func loadReferences(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (types.ReferenceValues, error) {
	flags := cmd.Flags()
	var refs types.ReferenceValues

	if !(flags.Changed("title") && flags.Changed("preheader") && flags.Changed("prod-cd")) {
		store, err := refstore.Open(ctx, cfg, logger)
		if err != nil {
			return refs, err
		}
		defer closeQuietly(logger, "reference store", store)

		refs, err = refstore.Load(ctx, store)
		if err != nil {
			return refs, fmt.Errorf("failed to load reference values: %w", err)
		}
	}

	if flags.Changed("title") {
		refs.Title = checkTitle
	}
	if flags.Changed("preheader") {
		refs.Preheader = checkPreheader
	}
	if flags.Changed("prod-cd") {
		refs.ProductCode = checkProdCd
	}
	if err := refs.Validate(); err != nil {
		return refs, fmt.Errorf("invalid reference values: %w", err)
	}
	return refs, nil
}

// readSource returns the markup to check and the base URL for relative image sources.
func readSource(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (string, string, error) {
	switch {
	case cfg.URL != "":
		result, err := fetch.Page(ctx, cfg.URL, cfg.UseBrowser, fetch.DefaultOptions(), logger)
		if err != nil {
			return "", "", fmt.Errorf("failed to fetch %s: %w", cfg.URL, err)
		}
		return result.HTML, result.FinalURL, nil

	case cfg.Source == config.StdinSource:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "", nil

	default:
		data, err := os.ReadFile(cfg.Source)
		if err != nil {
			return "", "", fmt.Errorf("failed to read source file: %w", err)
		}
		return string(data), "", nil
	}
}

// writeReport renders r to --out or stdout. JSON written to a file is
// checked against the report schema; a mismatch is only a warning.
func writeReport(cmd *cobra.Command, r *types.Report, format string) error {
	if checkOutput == "" {
		return report.Write(cmd.OutOrStdout(), r, format)
	}

	outputDir := filepath.Dir(checkOutput)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(checkOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.Write(f, r, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if format == report.FormatJSON {
		if err := schemas.ValidateReport(r); err != nil {
			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Generated report does not validate against schema: %v\n", err)
			} else {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Could not validate report against schema: %v\n", err)
			}
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", checkOutput)
	return nil
}
