// Package main provides the markup_checker CLI: check runs, reference
// values, the fetch proxy server and report validation.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "markup_checker",
	Short: "Checklist validator for marketing email and web markup",
	Long: `markup_checker runs a battery of checks (titles, preheaders, tracking
variables, image links, device-dependent characters and more) against email or
web HTML and reports every violation in Japanese.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
