package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/markup-checker/internal/config"
	"github.com/jonathan/markup-checker/internal/schemas"
	rootschemas "github.com/jonathan/markup-checker/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON report against the report schema",
	Long: `Validates a report written by 'check --format json' against the JSON Schema.
Uses --schema when given, then schemas/report.schema.json near the working
directory, then the schema built into the binary.`,
	RunE: runValidate,
}

var (
	validateJSON   string
	validateSchema string
)

func init() {
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the report JSON file, or - for stdin (required)")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	schemaPath := validateSchema
	if schemaPath == "" {
		schemaPath = schemas.ResolveSchemaPath(rootschemas.ReportPath)
	}

	var err error
	if validateJSON == config.StdinSource {
		var data []byte
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read JSON from stdin: %w", err)
		}
		err = validateReportData(data, schemaPath)
	} else if schemaPath != "" {
		err = schemas.ValidateJSON(schemaPath, validateJSON)
	} else {
		var data []byte
		data, err = os.ReadFile(validateJSON)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		err = schemas.ValidateReportJSON(data)
	}

	if err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation failed:\n%s", validationErr.Error())
			return fmt.Errorf("report does not match the schema")
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}

// validateReportData checks in-memory report JSON against the schema file,
// or the built-in schema when schemaPath is empty.
func validateReportData(data []byte, schemaPath string) error {
	if schemaPath == "" {
		return schemas.ValidateReportJSON(data)
	}
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return schemas.ValidateJSONString(string(schema), string(data))
}
