package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jonathan/markup-checker/internal/types"
)

// markdownEscaper backslash-escapes characters with inline meaning.
// Raw HTML in messages must never reach the rendered page.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "|", `\|`, "#", `\#`, "&", `\&`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Markdown renders r as a Markdown document: a summary table followed by
// one section per check that did not pass.
func Markdown(r *types.Report) string {
	var sb strings.Builder

	sb.WriteString("# マークアップチェック結果\n\n")
	fmt.Fprintf(&sb, "- チャネル: %s\n", channelName(r.Flags))
	fmt.Fprintf(&sb, "- 実行ID: `%s`\n", r.RunID)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "- 実行日時: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&sb, "- 集計: %s\n\n", summary(r))

	sb.WriteString("| 項目 | ID | 結果 | 件数 |\n")
	sb.WriteString("|---|---|---|---:|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&sb, "| %s | `%s` | %s %s | %d |\n",
			escapeMarkdown(e.Label), e.ID, statusMark(e.Status), statusLabel(e.Status), len(e.Messages))
	}

	for _, e := range r.Entries {
		if e.Status == types.StatusPass {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s %s\n\n", statusMark(e.Status), escapeMarkdown(e.Label))
		for _, msg := range e.Messages {
			fmt.Fprintf(&sb, "- %s\n", escapeMarkdown(msg))
		}
		if e.Error != "" {
			fmt.Fprintf(&sb, "\n> %s\n", escapeMarkdown(e.Error))
		}
	}

	return sb.String()
}

// markdownRenderer converts report Markdown to HTML. Raw HTML stays disabled.
var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts the report's Markdown into an HTML fragment.
func RenderHTML(r *types.Report) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(Markdown(r)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// WriteHTML writes a standalone HTML page for r.
func WriteHTML(w io.Writer, r *types.Report) error {
	body, err := RenderHTML(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>マークアップチェック結果 %s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(r.RunID), body)
	return err
}
