package wiki

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/julianshen/docsmith/internal/analysis"
)

// EnrichOptions bounds AI description enrichment.
type EnrichOptions struct {
	Concurrency       int
	MaxItems          int
	RequestsPerSecond float64
	Logf              func(format string, args ...any)
}

// DefaultEnrichOptions returns conservative enrichment limits.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{Concurrency: 4, MaxItems: 50, RequestsPerSecond: 2}
}

// EnrichStats counts enrichment outcomes.
type EnrichStats struct {
	Requested int
	Enriched  int
	Failed    int
}

var describeTmpl = template.Must(template.New("describe").Parse(`Write one sentence describing the {{.Kind}} "{{.Name}}" for developer documentation.
{{if .File}}It is defined in {{.File}}.
{{end}}{{range .Details}}- {{.}}
{{end}}
Respond with the sentence only.`))

type enrichTarget struct {
	Kind    string
	Name    string
	File    string
	Details []string
}

// Enrich returns a copy of g with missing entity, service and component
// descriptions filled in by the AI capability. Failed requests leave the
// description empty; the input graph is never modified.
func Enrich(ctx context.Context, g *analysis.Graph, ai AIChat, opts EnrichOptions) (*analysis.Graph, EnrichStats) {
	out := g.Clone()
	if ai == nil {
		return out, EnrichStats{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	targets := enrichTargets(out)
	if opts.MaxItems > 0 && len(targets) > opts.MaxItems {
		targets = targets[:opts.MaxItems]
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	var mu sync.Mutex
	descriptions := make(map[string]string)
	stats := EnrichStats{Requested: len(targets)}

	p := pool.New().WithMaxGoroutines(opts.Concurrency)
	for _, t := range targets {
		p.Go(func() {
			desc, err := describe(ctx, ai, limiter, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				logf("WARNING: enrichment of %s %q failed: %v", t.Kind, t.Name, err)
				return
			}
			stats.Enriched++
			descriptions[t.Kind+"\x00"+t.Name] = desc
		})
	}
	p.Wait()

	for i, e := range out.Entities {
		if d, ok := descriptions["entity\x00"+e.Name]; ok && e.Description == "" {
			out.Entities[i].Description = d
		}
	}
	for i, s := range out.Services {
		if d, ok := descriptions["service\x00"+s.Name]; ok && s.Description == "" {
			out.Services[i].Description = d
		}
	}
	for i, t := range out.Types {
		if d, ok := descriptions["component\x00"+t.Name]; ok && t.Description == "" {
			out.Types[i].Description = d
		}
	}
	return out, stats
}

func enrichTargets(g *analysis.Graph) []enrichTarget {
	seen := make(map[string]bool)
	var targets []enrichTarget
	add := func(t enrichTarget) {
		key := t.Kind + "\x00" + t.Name
		if seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, t)
	}

	for _, e := range g.Entities {
		if e.Description != "" {
			continue
		}
		var details []string
		for _, c := range e.Columns {
			details = append(details, fmt.Sprintf("column %s %s", c.Name, c.Type))
		}
		for _, r := range e.Relations {
			details = append(details, fmt.Sprintf("%s relation to %s", r.Kind, r.Target))
		}
		add(enrichTarget{Kind: "entity", Name: e.Name, File: e.FilePath, Details: details})
	}
	for _, s := range g.Services {
		if s.Description != "" {
			continue
		}
		var details []string
		if len(s.Methods) > 0 {
			details = append(details, "methods: "+strings.Join(s.Methods, ", "))
		}
		if len(s.Dependencies) > 0 {
			details = append(details, "depends on: "+strings.Join(s.Dependencies, ", "))
		}
		add(enrichTarget{Kind: "service", Name: s.Name, File: s.FilePath, Details: details})
	}
	for _, t := range g.Components() {
		if t.Description != "" {
			continue
		}
		var details []string
		for _, f := range t.Fields {
			details = append(details, fmt.Sprintf("field %s %s", f.Name, f.Type))
		}
		add(enrichTarget{Kind: "component", Name: t.Name, File: t.FilePath, Details: details})
	}
	return targets
}

func describe(ctx context.Context, ai AIChat, limiter *rate.Limiter, t enrichTarget) (string, error) {
	if err := limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	var buf bytes.Buffer
	if err := describeTmpl.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	reply, err := ai.Chat(ctx, []ChatMessage{{Role: "user", Content: buf.String()}})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if i := strings.IndexByte(reply, '\n'); i >= 0 {
		reply = strings.TrimSpace(reply[:i])
	}
	if reply == "" {
		return "", fmt.Errorf("empty description")
	}
	return reply, nil
}
