package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter outputs a Report as human-readable Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the Report as Markdown.
func (f *MarkdownFormatter) Format(r *Report) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Documentation report: %s\n\n", r.Project)

	if r.Error != "" {
		b.WriteString("## Error\n\n")
		b.WriteString(r.Error)
		b.WriteString("\n")
		return []byte(b.String()), nil
	}

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Format | %s |\n", r.Format)
	fmt.Fprintf(&b, "| Output | `%s` |\n", r.OutputDir)
	fmt.Fprintf(&b, "| Pages | %d |\n", len(r.Pages))
	fmt.Fprintf(&b, "| Diagrams | %d |\n", r.Diagrams)
	fmt.Fprintf(&b, "| Navigation | %s (%d categories, %d leaves) |\n",
		r.Navigation.Strategy, r.Navigation.Categories, r.Navigation.Leaves)
	if r.Enrichment != nil {
		fmt.Fprintf(&b, "| Enrichment | %d of %d described, %d failed |\n",
			r.Enrichment.Enriched, r.Enrichment.Requested, r.Enrichment.Failed)
	}
	if r.AI != nil {
		fmt.Fprintf(&b, "| AI | %s/%s, %d calls, %d cache hits |\n", r.AI.Provider, r.AI.Model, r.AI.Calls, r.AI.CacheHits)
	}

	if len(r.Navigation.UnmatchedNames) > 0 {
		fmt.Fprintf(&b, "\nUnmatched AI names: %s\n", strings.Join(r.Navigation.UnmatchedNames, ", "))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", strings.TrimPrefix(w, "WARNING: "))
		}
	}

	if len(r.Pages) > 0 {
		b.WriteString("\n## Pages\n\n")
		for _, p := range r.Pages {
			fmt.Fprintf(&b, "- `%s` %s\n", p.Path, p.Title)
		}
	}

	pageLabel := "pages"
	if len(r.Pages) == 1 {
		pageLabel = "page"
	}
	elapsed := (time.Duration(r.DurationMs) * time.Millisecond).Round(100 * time.Millisecond)
	fmt.Fprintf(&b, "\n---\n*Generated %d %s in %s*\n", len(r.Pages), pageLabel, elapsed)

	return []byte(b.String()), nil
}
