package output

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianshen/docsmith/internal/wiki"
)

// Report summarizes one documentation generation run.
type Report struct {
	RunID       string          `json:"run_id,omitempty"`
	Project     string          `json:"project"`
	Format      string          `json:"format"`
	OutputDir   string          `json:"output_dir"`
	GeneratedAt time.Time       `json:"generated_at"`
	DurationMs  int64           `json:"duration_ms"`
	Pages       []PageEntry     `json:"pages"`
	Diagrams    int             `json:"diagrams"`
	Navigation  NavigationStats `json:"navigation"`
	Enrichment  *EnrichSummary  `json:"enrichment,omitempty"`
	AI          *AISummary      `json:"ai,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// PageEntry is one written page.
type PageEntry struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// NavigationStats describes the navigation tree that was built.
type NavigationStats struct {
	Strategy       string   `json:"strategy"`
	Categories     int      `json:"categories"`
	Leaves         int      `json:"leaves"`
	UnmatchedNames []string `json:"unmatched_names,omitempty"`
}

// EnrichSummary mirrors wiki.EnrichStats.
type EnrichSummary struct {
	Requested int `json:"requested"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
}

// AISummary records provider traffic for the run.
type AISummary struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Calls        int    `json:"calls"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	CacheHits    int    `json:"cache_hits"`
}

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(r *Report) ([]byte, error)
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "json":
		return NewJSONFormatter(), nil
	case "markdown", "md":
		return NewMarkdownFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want json or markdown)", name)
	}
}

// NewReport builds a Report from a generation result. res may be nil when
// the run failed before producing one.
func NewReport(res *wiki.Result, project, format, outputDir string, elapsed time.Duration, runErr error) *Report {
	r := &Report{
		Project:    project,
		Format:     format,
		OutputDir:  outputDir,
		DurationMs: elapsed.Milliseconds(),
		Pages:      []PageEntry{},
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if res == nil {
		return r
	}

	r.GeneratedAt = res.GeneratedAt
	r.Diagrams = res.Diagrams
	r.Warnings = res.Warnings
	for _, p := range res.Pages {
		r.Pages = append(r.Pages, PageEntry{Path: p.Path, Title: p.Title})
	}
	sort.Slice(r.Pages, func(i, j int) bool { return r.Pages[i].Path < r.Pages[j].Path })

	r.Navigation = NavigationStats{
		Strategy:       string(res.Navigation.Strategy),
		UnmatchedNames: res.Navigation.UnmatchedNames,
	}
	countNodes(res.Navigation.Tree, &r.Navigation)

	if e := res.Enrichment; e != (wiki.EnrichStats{}) {
		r.Enrichment = &EnrichSummary{Requested: e.Requested, Enriched: e.Enriched, Failed: e.Failed}
	}
	return r
}

func countNodes(nodes []wiki.NavNode, st *NavigationStats) {
	for _, n := range nodes {
		if n.Kind == wiki.NavCategory {
			st.Categories++
			countNodes(n.Children, st)
			continue
		}
		st.Leaves++
	}
}
