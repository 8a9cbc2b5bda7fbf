package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/jonathan/markup-checker/internal/types"
)

const (
	// boxWidth is the outer width of the report box in terminal cells
	boxWidth = 72
	// innerWidth excludes the borders and one cell of padding on each side
	innerWidth = boxWidth - 4
	// messageIndent aligns messages under the check label
	messageIndent = "    "
)

// Printer renders reports as a bordered box for terminals.
// Widths are measured in terminal cells so full-width text lines up.
type Printer struct {
	out    io.Writer
	colors map[types.Status]*color.Color
	title  *color.Color
}

// NewPrinter creates a Printer that writes to out. Colors follow the
// terminal detection of github.com/fatih/color.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out: out,
		colors: map[types.Status]*color.Color{
			types.StatusPass:       color.New(color.FgGreen),
			types.StatusFail:       color.New(color.FgRed, color.Bold),
			types.StatusUnverified: color.New(color.FgYellow),
			types.StatusError:      color.New(color.FgMagenta, color.Bold),
		},
		title: color.New(color.Bold),
	}
}

// WithColor forces colors on or off.
func (p *Printer) WithColor(enabled bool) *Printer {
	for _, c := range append(mapValues(p.colors), p.title) {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func mapValues(m map[types.Status]*color.Color) []*color.Color {
	out := make([]*color.Color, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// PrintReport writes every entry in report order followed by a status summary.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReport(r *types.Report) {
	if r == nil {
		return
	}

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	p.row(p.title, fmt.Sprintf("マークアップチェック (%s)", channelName(r.Flags)), "")
	fmt.Fprintf(p.out, "├%s┤\n", border)

	if len(r.Entries) == 0 {
		p.row(nil, "チェック対象がありません", "")
	}
	for _, e := range r.Entries {
		c := p.colors[e.Status]
		p.row(c, statusMark(e.Status), " "+e.Label)

		for _, msg := range e.Messages {
			p.wrapped(messageIndent, msg)
		}
		if e.Error != "" && e.Status != types.StatusPass {
			p.wrapped(messageIndent, "("+e.Error+")")
		}
	}

	fmt.Fprintf(p.out, "├%s┤\n", border)
	p.row(nil, summary(r), "")
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// row prints one boxed line. The colored prefix and the plain rest are
// measured together so padding ignores escape sequences.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) row(c *color.Color, prefix, rest string) {
	text := runewidth.Truncate(prefix+rest, innerWidth, "…")
	pad := innerWidth - runewidth.StringWidth(text)
	if c != nil && strings.HasPrefix(text, prefix) {
		text = c.Sprint(prefix) + text[len(prefix):]
	}
	fmt.Fprintf(p.out, "│ %s%s │\n", text, strings.Repeat(" ", pad))
}

// wrapped prints text across as many boxed lines as it needs.
func (p *Printer) wrapped(indent, text string) {
	width := innerWidth - runewidth.StringWidth(indent)
	for _, line := range strings.Split(runewidth.Wrap(text, width), "\n") {
		p.row(nil, indent+line, "")
	}
}

func channelName(flags types.ChannelFlags) string {
	name := "Web"
	if flags.Email {
		name = "メール"
	}
	if flags.SEAC {
		name += " / SEAC"
	}
	return name
}

func summary(r *types.Report) string {
	return fmt.Sprintf("OK %d  NG %d  未確認 %d  エラー %d",
		r.Count(types.StatusPass),
		r.Count(types.StatusFail),
		r.Count(types.StatusUnverified),
		r.Count(types.StatusError))
}
