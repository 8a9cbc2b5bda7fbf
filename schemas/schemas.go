// Package schemas embeds the JSON Schemas for the checker's output documents.
package schemas

import _ "embed"

// Report is the JSON Schema for a serialized check report.
//
//go:embed report.schema.json
var Report string

// ReportPath is the repository-relative location of the report schema.
const ReportPath = "schemas/report.schema.json"
