// cmd/docsmith/ui.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/julianshen/docsmith/internal/output"
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"})
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"})
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFB74D"})
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"})
)

// painter applies styles only when colour output is enabled.
type painter bool

func (p painter) paint(st lipgloss.Style, s string) string {
	if !p {
		return s
	}
	return st.Render(s)
}

func (p painter) label(s string) string {
	if !p {
		return fmt.Sprintf("%-12s", s)
	}
	return labelStyle.Render(s)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or fallback when it is not a
// terminal.
func terminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// renderSummary formats a short run summary for the terminal.
func renderSummary(r *output.Report, color bool) string {
	p := painter(color)
	var b strings.Builder

	if r.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", p.paint(failStyle, "✗ generation failed:"), r.Error)
		return b.String()
	}

	elapsed := (time.Duration(r.DurationMs) * time.Millisecond).Round(100 * time.Millisecond)
	fmt.Fprintf(&b, "%s %s: %d page(s), %d diagram(s) in %s\n",
		p.paint(okStyle, "✓"), p.paint(headStyle, r.Project), len(r.Pages), r.Diagrams, elapsed)
	fmt.Fprintf(&b, "  %s%s (%s)\n", p.label("output"), r.OutputDir, r.Format)

	nav := r.Navigation.Strategy
	if r.Navigation.Categories > 0 {
		nav = fmt.Sprintf("%s, %d categories", nav, r.Navigation.Categories)
	}
	fmt.Fprintf(&b, "  %s%s\n", p.label("navigation"), nav)

	if e := r.Enrichment; e != nil {
		fmt.Fprintf(&b, "  %s%d/%d described", p.label("enrichment"), e.Enriched, e.Requested)
		if e.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", e.Failed)
		}
		b.WriteString("\n")
	}
	if ai := r.AI; ai != nil {
		fmt.Fprintf(&b, "  %s%s/%s, %d call(s), %d cached, %d→%d tokens\n",
			p.label("ai"), ai.Provider, ai.Model, ai.Calls, ai.CacheHits, ai.InputTokens, ai.OutputTokens)
	}
	if n := len(r.Warnings); n > 0 {
		fmt.Fprintf(&b, "  %s%s\n", p.label("warnings"), p.paint(warnStyle, fmt.Sprintf("%d (use --verbose for details)", n)))
	}
	return b.String()
}
