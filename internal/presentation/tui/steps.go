package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/layouts/pkg/wizard"
	"github.com/muesli/termenv"
)

// Printer writes wizard views to a terminal.
type Printer struct {
	out      *termenv.Output
	markdown func(string) (string, error)
}

// NewPrinter creates a printer over w. interactive selects colors and glamour rendering.
func NewPrinter(w io.Writer, interactive bool) *Printer {
	opts := []termenv.OutputOption{}
	if !interactive {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Printer{
		out:      termenv.NewOutput(w, opts...),
		markdown: NewRenderer(interactive),
	}
}

// Indicator renders the progress bar, e.g. "✔ project ─ ● instance ─ ○ confirm".
func (p *Printer) Indicator(v wizard.View) string {
	parts := make([]string, len(v.Indicators))
	for i, ind := range v.Indicators {
		label := ind.Title
		if label == "" {
			label = ind.ID
		}
		var s termenv.Style
		switch {
		case ind.Error:
			s = p.out.String("✖ " + label).Foreground(p.out.Color("#ef4444"))
		case ind.Loading:
			s = p.out.String("◌ " + label).Foreground(p.out.Color("#f59e0b"))
		case ind.Active:
			s = p.out.String("● " + label).Foreground(p.out.Color("#818cf8")).Bold()
		case ind.Completed:
			s = p.out.String("✔ " + label).Foreground(p.out.Color("#22c55e"))
		default:
			s = p.out.String("○ " + label).Faint()
		}
		parts[i] = s.String()
	}
	return strings.Join(parts, " ─ ")
}

// PrintView writes the indicator, the active step and any warnings.
func (p *Printer) PrintView(v wizard.View) {
	fmt.Fprintln(p.out, p.Indicator(v))
	fmt.Fprintln(p.out)

	if v.Step == nil {
		fmt.Fprintf(p.out, "%s\n", p.out.String(fmt.Sprintf("No step at position %d", v.Active)).Faint())
	} else {
		title := v.Step.Title
		if title == "" {
			title = v.Step.ID
		}
		fmt.Fprintf(p.out, "%s\n", p.out.String(fmt.Sprintf("Step %d/%d: %s", v.Active+1, v.Total, title)).Bold())
		if v.Step.Description != "" {
			body, err := p.markdown(v.Step.Description)
			if err != nil {
				body = v.Step.Description
			}
			fmt.Fprintln(p.out, strings.TrimRight(body, "\n"))
		}
	}

	for _, w := range v.Warnings {
		fmt.Fprintln(p.out, p.out.String("⚠ "+w).Foreground(p.out.Color("#f59e0b")))
	}
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.out, p.out.String(fmt.Sprintf(format, args...)).Foreground(p.out.Color("#ef4444")))
}
