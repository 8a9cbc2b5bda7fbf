package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/markup-checker/internal/checks"
	"github.com/jonathan/markup-checker/internal/types"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the available checks",
	Long:  "Lists every registered check id with its label and the channel it applies to, in report order.",
	RunE:  runChecks,
}

var (
	checksEmail bool
	checksWeb   bool
)

func init() {
	checksCmd.Flags().BoolVar(&checksEmail, "email", false, "Only list checks that run for email")
	checksCmd.Flags().BoolVar(&checksWeb, "web", false, "Only list checks that run for web")
	checksCmd.MarkFlagsMutuallyExclusive("email", "web")

	rootCmd.AddCommand(checksCmd)
}

func runChecks(cmd *cobra.Command, _ []string) error {
	registry := checks.NewStandardRegistry()

	descriptors := registry.List()
	if checksEmail || checksWeb {
		descriptors = registry.ForFlags(types.ChannelFlags{Email: checksEmail})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLABEL\tCHANNEL")
	for _, d := range descriptors {
		variant := d.Variant
		if variant == "" {
			variant = checks.VariantAny
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Label, variant)
	}
	return w.Flush()
}
