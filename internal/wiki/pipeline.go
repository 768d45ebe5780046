package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianshen/docsmith/internal/analysis"
)

// Options controls one generation run over an already merged graph.
type Options struct {
	Sections       []Section
	Overrides      map[string]Override
	DomainGrouping bool
	Enrichment     bool
	Enrich         EnrichOptions
	// Logf receives warnings and verbose diagnostics. Nil discards them.
	Logf func(format string, args ...any)
}

// Result is the output of Generate.
type Result struct {
	Project     string
	Pages       []Page
	Navigation  NavResult
	Enrichment  EnrichStats
	Warnings    []string
	Diagrams    int
	GeneratedAt time.Time
}

// Config holds the end-to-end pipeline configuration used by Run.
type Config struct {
	Inputs      []string
	OutputDir   string
	Format      string // raw-md, hugo, docusaurus
	ProjectName string
	Concurrency int
	Verbose     bool
	Now         time.Time
	Options
	// Progress receives stage lines. Nil means stderr.
	Progress io.Writer
}

// warnings collects Logf output for a single run and forwards it.
type warnings struct {
	mu      sync.Mutex
	lines   []string
	forward func(string, ...any)
}

func (w *warnings) logf(format string, args ...any) {
	w.mu.Lock()
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
	w.mu.Unlock()
	if w.forward != nil {
		w.forward(format, args...)
	}
}

// Generate enriches (optionally), synthesizes pages and builds navigation.
// The graph is not modified.
func Generate(ctx context.Context, g *analysis.Graph, opts Options, ai AIChat) (*Result, error) {
	if g == nil {
		return nil, errors.New("generate: nil graph")
	}
	w := &warnings{forward: opts.Logf}
	res := &Result{Project: g.Metadata.ProjectName, GeneratedAt: g.Metadata.GeneratedAt}

	sections := opts.Sections
	if len(sections) == 0 {
		sections = DefaultSections()
	}

	if opts.Enrichment && ai != nil {
		eo := opts.Enrich
		eo.Logf = w.logf
		g, res.Enrichment = Enrich(ctx, g, ai, eo)
	}

	var custom []CustomPage
	for _, sec := range sections {
		if sec.Type != SectionCustom {
			continue
		}
		if sec.Dir == "" {
			w.logf("WARNING: custom section %q has no dir", sec.ID)
			continue
		}
		pages, err := LoadCustomPages(ctx, sec.Dir, sec.ID, w.logf)
		if err != nil {
			return nil, fmt.Errorf("custom section %q: %w", sec.ID, err)
		}
		custom = append(custom, pages...)
	}

	res.Pages = Synthesize(g, SynthesisOptions{
		Sections:    sections,
		Overrides:   opts.Overrides,
		CustomPages: custom,
		Logf:        w.logf,
	})
	res.Diagrams = countDiagrams(res.Pages)

	res.Navigation = BuildNavigation(ctx, NavInput{
		Pages:          res.Pages,
		Graph:          g,
		Sections:       opts.Sections,
		AI:             ai,
		DomainGrouping: opts.DomainGrouping,
		Logf:           w.logf,
	})

	res.Warnings = w.lines
	return res, nil
}

func countDiagrams(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += strings.Count(p.Content, "```mermaid\n")
	}
	return n
}

// Run executes the full pipeline: load -> merge -> generate -> render.
func Run(ctx context.Context, cfg Config, ai AIChat) (*Result, error) {
	progress := cfg.Progress
	if progress == nil {
		progress = os.Stderr
	}
	logf := cfg.Logf
	if logf == nil && cfg.Verbose {
		logf = log.Printf
	}
	cfg.Logf = logf

	// Stage 1: Load
	paths, err := analysis.ExpandPaths(cfg.Inputs)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	fmt.Fprintf(progress, "docsmith: loading %d analysis files...\n", len(paths))
	partials, loadErrs := analysis.LoadFiles(ctx, paths, cfg.Concurrency)
	for _, e := range loadErrs {
		if logf != nil {
			logf("WARNING: skipping %s: %v", e.Source, e.Err)
		}
	}

	// Stage 2: Merge
	fmt.Fprintf(progress, "docsmith: merging %d partial analyses...\n", len(partials))
	g := analysis.Merge(analysis.MergeOptions{Now: cfg.Now, ProjectName: cfg.ProjectName}, partials...)

	// Stage 3: Generate
	fmt.Fprintf(progress, "docsmith: generating pages for %d symbols...\n",
		g.Summary.Endpoints+g.Summary.Entities+g.Summary.Services+g.Summary.Types)
	res, err := Generate(ctx, g, cfg.Options, ai)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	var loadWarnings []string
	for _, e := range loadErrs {
		loadWarnings = append(loadWarnings, fmt.Sprintf("WARNING: skipping %s: %v", e.Source, e.Err))
	}
	res.Warnings = append(loadWarnings, res.Warnings...)
	if len(res.Pages) == 0 && !g.IsEmpty() {
		return nil, errors.New("generate: no pages produced for a non-empty analysis")
	}

	// Stage 4: Render
	fmt.Fprintf(progress, "docsmith: writing %d pages to %s...\n", len(res.Pages), cfg.OutputDir)
	if err := Render(ctx, res.Pages, res.Navigation.Tree, RendererConfig{
		Format:      cfg.Format,
		OutputDir:   cfg.OutputDir,
		Title:       g.Metadata.ProjectName,
		Concurrency: cfg.Concurrency,
	}); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	fmt.Fprintf(progress, "docsmith: done.\n")
	return res, nil
}

// GenerateLocales runs Generate once per locale concurrently. Each run owns
// its own clone of the graph and its own page set.
func GenerateLocales(ctx context.Context, g *analysis.Graph, locales map[string]Options, ai AIChat) (map[string]*Result, error) {
	var mu sync.Mutex
	results := make(map[string]*Result, len(locales))

	eg, ctx := errgroup.WithContext(ctx)
	for locale, opts := range locales {
		clone := g.Clone()
		eg.Go(func() error {
			res, err := Generate(ctx, clone, opts, ai)
			if err != nil {
				return fmt.Errorf("locale %s: %w", locale, err)
			}
			mu.Lock()
			results[locale] = res
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
