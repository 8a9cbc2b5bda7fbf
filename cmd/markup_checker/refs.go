package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/refstore"
	"github.com/jonathan/markup-checker/internal/types"
)

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Show or update the stored reference values",
	Long: `Reads and writes the reference values the checks compare against:
title, preheader and prod_cd. Values persist in the SQLite store (--store),
or in PostgreSQL when --database-url or DATABASE_URL is set.`,
}

var refsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print all reference values",
	Args:  cobra.NoArgs,
	RunE:  runRefsShow,
}

var refsGetCmd = &cobra.Command{
	Use:       "get KEY",
	Short:     "Print one reference value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: types.ReferenceKeys,
	RunE:      runRefsGet,
}

var refsSetCmd = &cobra.Command{
	Use:       "set KEY VALUE",
	Short:     "Update one reference value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: types.ReferenceKeys,
	RunE:      runRefsSet,
}

var refsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Replace all three reference values at once",
	Long:  "Replaces title, preheader and prod_cd together. Omitted flags store an empty value.",
	Args:  cobra.NoArgs,
	RunE:  runRefsSave,
}

var (
	refsTitle     string
	refsPreheader string
	refsProdCd    string
)

func init() {
	refsSaveCmd.Flags().StringVar(&refsTitle, "title", "", "Expected title")
	refsSaveCmd.Flags().StringVar(&refsPreheader, "preheader", "", "Expected preheader")
	refsSaveCmd.Flags().StringVar(&refsProdCd, "prod-cd", "", "Expected product code")

	refsCmd.AddCommand(refsShowCmd, refsGetCmd, refsSetCmd, refsSaveCmd)
	rootCmd.AddCommand(refsCmd)
}

// withStore opens the configured reference store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store refstore.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
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

	store, err := refstore.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, "reference store", store)

	if err := fn(ctx, store); err != nil {
		return err
	}
	logger.Debug("Reference store command finished", zap.String("command", cmd.Name()))
	return nil
}

func runRefsShow(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store refstore.Store) error {
		values, err := refstore.Load(ctx, store)
		if err != nil {
			return err
		}
		printReferences(cmd, values)
		return nil
	})
}

func runRefsGet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	return withStore(cmd, func(ctx context.Context, store refstore.Store) error {
		values, err := refstore.Load(ctx, store)
		if err != nil {
			return err
		}
		value, ok := values.Value(key)
		if !ok {
			return fmt.Errorf("unknown key '%s' (expected one of %v)", key, types.ReferenceKeys)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	})
}

func runRefsSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	return withStore(cmd, func(ctx context.Context, store refstore.Store) error {
		if err := refstore.SetOne(ctx, store, key, args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", key)
		return nil
	})
}

func runRefsSave(cmd *cobra.Command, _ []string) error {
	values := types.ReferenceValues{Title: refsTitle, Preheader: refsPreheader, ProductCode: refsProdCd}
	return withStore(cmd, func(ctx context.Context, store refstore.Store) error {
		if err := refstore.Save(ctx, store, values); err != nil {
			return err
		}
		printReferences(cmd, values)
		return nil
	})
}

func printReferences(cmd *cobra.Command, values types.ReferenceValues) {
	for _, key := range types.ReferenceKeys {
		v, _ := values.Value(key)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", key+":", v)
	}
}
