// Package report renders check reports for terminals, files and browsers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/jonathan/markup-checker/internal/types"
)

// Output formats accepted by Write.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatHTML}

// UnsupportedFormatError is returned for an unknown output format
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported report format '%s' (expected one of %v)", e.Format, Formats)
}

// Write renders r to w in the given format. Text output is colored only
// when the terminal supports it.
func Write(w io.Writer, r *types.Report, format string) error {
	if !slices.Contains(Formats, format) {
		return &UnsupportedFormatError{Format: format}
	}
	if r == nil {
		return fmt.Errorf("report is nil")
	}

	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		NewPrinter(w).PrintReport(r)
		return nil
	}
}

// WriteJSON writes r as indented JSON. HTML characters are left unescaped
// so separators such as "<br>" stay readable.
func WriteJSON(w io.Writer, r *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// statusMark is the glyph shown next to each entry.
func statusMark(status types.Status) string {
	switch status {
	case types.StatusPass:
		return "✓"
	case types.StatusFail:
		return "✗"
	case types.StatusUnverified:
		return "?"
	default:
		return "!"
	}
}

// statusLabel is the Japanese status name used in documents.
func statusLabel(status types.Status) string {
	switch status {
	case types.StatusPass:
		return "OK"
	case types.StatusFail:
		return "NG"
	case types.StatusUnverified:
		return "未確認"
	default:
		return "エラー"
	}
}
