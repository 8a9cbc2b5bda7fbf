package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/markup-checker/internal/types"
	"github.com/jonathan/markup-checker/schemas"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleReport() *types.Report {
	return &types.Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Flags:     types.ChannelFlags{Email: true},
		Separator: types.DefaultSeparator,
		Entries: []types.Entry{
			{ID: "title", Label: "タイトル", Status: types.StatusPass},
			{
				ID:       "image_links",
				Label:    "画像リンク",
				Status:   types.StatusFail,
				Messages: []string{"・画像1のsrc属性が空です。"},
				Display:  "・画像1のsrc属性が空です。",
			},
			{ID: "buttons", Label: "ボタン", Status: types.StatusError, Error: "boom"},
		},
	}
}

func TestValidateJSON_Files(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "person.schema.json", personSchema)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"name": "test", "age": 3}`, false},
		{"missing field", `{"age": 3}`, true},
		{"wrong type", `{"name": "test", "age": "three"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonPath := writeFile(t, dir, tt.name+".json", tt.content)
			err := ValidateJSON(schemaPath, jsonPath)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateJSON_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "person.schema.json", personSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"name": "x"}`)

	err := ValidateJSON(filepath.Join(dir, "nonexistent_schema.json"), jsonPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "nonexistent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "person.schema.json", personSchema)
	malformed := writeFile(t, dir, "malformed.json", "{ invalid json }")

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, ValidateJSON(schemaPath, malformed), &loadErr)
}

func TestValidateJSONString(t *testing.T) {
	assert.NoError(t, ValidateJSONString(personSchema, `{"name": "test"}`))

	err := ValidateJSONString(personSchema, `{"age": 30}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. name")
	assert.Contains(t, errorMsg, "2. age")
}

func TestValidateReport_Valid(t *testing.T) {
	assert.NoError(t, ValidateReport(sampleReport()))
}

func TestValidateReport_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *types.Report)
	}{
		{"unknown status", func(r *types.Report) { r.Entries[0].Status = "skipped" }},
		{"fail without messages", func(r *types.Report) { r.Entries[1].Messages = nil }},
		{"pass with messages", func(r *types.Report) { r.Entries[0].Messages = []string{"x"} }},
		{"empty message", func(r *types.Report) { r.Entries[1].Messages = []string{""} }},
		{"bad run id", func(r *types.Report) { r.RunID = "run-1" }},
		{"empty id", func(r *types.Report) { r.Entries[2].ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := sampleReport()
			tt.mutate(report)

			var validationErr *ValidationError
			assert.ErrorAs(t, ValidateReport(report), &validationErr)
		})
	}
}

func TestValidateReportJSON_Malformed(t *testing.T) {
	err := ValidateReportJSON([]byte(`{"run_id":`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, schemas.ReportPath, loadErr.Path)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestResolveSchemaPath(t *testing.T) {
	// Tests run from internal/schemas; the repo root is two levels up
	path := ResolveSchemaPath(schemas.ReportPath)
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))

	assert.Empty(t, ResolveSchemaPath("schemas/nope.schema.json"))
}

func TestValidateJSON_ReportSchemaFile(t *testing.T) {
	path := ResolveSchemaPath(schemas.ReportPath)
	require.NotEmpty(t, path)

	dir := t.TempDir()
	doc := writeFile(t, dir, "report.json", `{"run_id":"9b2f3c4e-1a2b-4c3d-8e9f-0a1b2c3d4e5f","created_at":"2026-04-01T09:00:00Z","flags":{"email":false,"seac":true},"separator":"<br>","entries":[]}`)
	assert.NoError(t, ValidateJSON(path, doc))
}
