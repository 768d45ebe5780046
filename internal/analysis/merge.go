package analysis

import (
	"context"
	"fmt"
	"time"
)

// MergeOptions controls graph construction.
type MergeOptions struct {
	// Now supplies the generation timestamp. Zero means time.Now().UTC().
	Now time.Time
	// ProjectName overrides the project name carried by the partials.
	ProjectName string
}

// Source produces one partial analysis. A failing source is skipped by
// MergeSources and never aborts the merge.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Partial, error)
}

// SourceError records a per-unit failure during merging.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error { return e.Err }

// Merge concatenates the partials in input order into one graph. Records are
// never deduplicated here; nil partials are skipped.
func Merge(opts MergeOptions, partials ...*Partial) *Graph {
	g := &Graph{}
	seenParser := make(map[string]bool)

	for _, p := range partials {
		if p == nil {
			continue
		}
		g.Endpoints = append(g.Endpoints, p.Endpoints...)
		g.Entities = append(g.Entities, p.Entities...)
		g.Services = append(g.Services, p.Services...)
		g.Types = append(g.Types, p.Types...)
		g.Dependencies = append(g.Dependencies, p.Dependencies...)
		g.Changelog = append(g.Changelog, p.Changelog...)

		if p.Parser != "" && !seenParser[p.Parser] {
			seenParser[p.Parser] = true
			g.Metadata.Parsers = append(g.Metadata.Parsers, p.Parser)
		}
		if g.Metadata.ProjectName == "" {
			g.Metadata.ProjectName = p.ProjectName
		}
	}

	if opts.ProjectName != "" {
		g.Metadata.ProjectName = opts.ProjectName
	}
	g.Metadata.GeneratedAt = opts.Now
	if g.Metadata.GeneratedAt.IsZero() {
		g.Metadata.GeneratedAt = time.Now().UTC()
	}
	g.Summary = g.summarize()
	return g
}

// MergeSources loads every source in order and merges the ones that
// succeed. Errors and panics raised by a source are captured as
// SourceErrors.
func MergeSources(ctx context.Context, sources []Source, opts MergeOptions) (*Graph, []SourceError) {
	var partials []*Partial
	var errs []SourceError

	for _, src := range sources {
		p, err := loadSource(ctx, src)
		if err != nil {
			errs = append(errs, SourceError{Source: src.Name(), Err: err})
			continue
		}
		partials = append(partials, p)
	}

	return Merge(opts, partials...), errs
}

func loadSource(ctx context.Context, src Source) (p *Partial, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	p, err = src.Load(ctx)
	if err == nil && p == nil {
		err = fmt.Errorf("no analysis produced")
	}
	return p, err
}
