package analysis

import (
	"slices"
	"sort"
)

// Graph is the merged, canonical view of every contributing partial
// analysis. It is built once per generation run and treated as read-only
// afterwards; use Clone to obtain an independent copy.
type Graph struct {
	Endpoints    []Endpoint
	Entities     []Entity
	Services     []Service
	Types        []TypeDef
	Dependencies []DependencyEdge
	Changelog    []ChangelogEntry
	Summary      Summary
	Metadata     Metadata
}

// QualifiedKey identifies a symbol by name and originating file. Symbol
// identity is name based; the key only disambiguates reported collisions.
type QualifiedKey struct {
	Name string
	File string
}

// Clone returns a deep copy of the graph so that concurrent runs never share
// backing arrays.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := &Graph{
		Endpoints:    slices.Clone(g.Endpoints),
		Entities:     slices.Clone(g.Entities),
		Services:     slices.Clone(g.Services),
		Types:        slices.Clone(g.Types),
		Dependencies: slices.Clone(g.Dependencies),
		Changelog:    slices.Clone(g.Changelog),
		Summary:      g.Summary,
		Metadata:     g.Metadata,
	}
	c.Metadata.Parsers = slices.Clone(g.Metadata.Parsers)

	for i := range c.Endpoints {
		c.Endpoints[i].Params = slices.Clone(c.Endpoints[i].Params)
	}
	for i := range c.Entities {
		e := &c.Entities[i]
		e.Columns = slices.Clone(e.Columns)
		e.Relations = slices.Clone(e.Relations)
		e.Indexes = slices.Clone(e.Indexes)
		for j := range e.Indexes {
			e.Indexes[j].Columns = slices.Clone(e.Indexes[j].Columns)
		}
	}
	for i := range c.Services {
		c.Services[i].Methods = slices.Clone(c.Services[i].Methods)
		c.Services[i].Dependencies = slices.Clone(c.Services[i].Dependencies)
	}
	for i := range c.Types {
		c.Types[i].Fields = slices.Clone(c.Types[i].Fields)
	}
	for i := range c.Changelog {
		c.Changelog[i].Changes = slices.Clone(c.Changelog[i].Changes)
	}
	return c
}

// IsComponent reports whether a type definition is documented as a
// component: every kind except enum qualifies as long as it has fields.
func IsComponent(t TypeDef) bool {
	return t.Kind != KindEnum && len(t.Fields) > 0
}

// Components returns the type definitions that qualify as components, in
// graph order.
func (g *Graph) Components() []TypeDef {
	var out []TypeDef
	for _, t := range g.Types {
		if IsComponent(t) {
			out = append(out, t)
		}
	}
	return out
}

// HasBackend reports whether the graph carries endpoint or entity data.
func (g *Graph) HasBackend() bool {
	return len(g.Endpoints) > 0 || len(g.Entities) > 0
}

// HasFrontend reports whether the graph carries component or service data.
func (g *Graph) HasFrontend() bool {
	return len(g.Services) > 0 || len(g.Components()) > 0
}

// IsEmpty reports whether the graph documents no symbols at all.
func (g *Graph) IsEmpty() bool {
	return len(g.Endpoints) == 0 && len(g.Entities) == 0 &&
		len(g.Services) == 0 && len(g.Types) == 0
}

// SymbolNames returns the set of every known symbol name: entities,
// services, types and endpoint handler classes.
func (g *Graph) SymbolNames() map[string]bool {
	known := make(map[string]bool)
	for _, e := range g.Entities {
		known[e.Name] = true
	}
	for _, s := range g.Services {
		known[s.Name] = true
	}
	for _, t := range g.Types {
		known[t.Name] = true
	}
	for _, ep := range g.Endpoints {
		if ep.HandlerClass != "" {
			known[ep.HandlerClass] = true
		}
	}
	delete(known, "")
	return known
}

// DependencyEdges returns the explicit dependency edges followed by inject
// edges implied by service dependency lists, deduplicated by
// (source, target, kind) while keeping first-seen order.
func (g *Graph) DependencyEdges() []DependencyEdge {
	seen := make(map[DependencyEdge]bool, len(g.Dependencies))
	var out []DependencyEdge
	add := func(e DependencyEdge) {
		if e.Source == "" || e.Target == "" || seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}
	for _, e := range g.Dependencies {
		add(e)
	}
	for _, s := range g.Services {
		for _, dep := range s.Dependencies {
			add(DependencyEdge{Source: s.Name, Target: dep, Kind: EdgeInject})
		}
	}
	return out
}

// Collisions returns symbol names that are defined in more than one
// distinct file, mapped to the sorted list of those files.
func (g *Graph) Collisions() map[string][]string {
	files := make(map[string]map[string]bool)
	note := func(k QualifiedKey) {
		if k.Name == "" || k.File == "" {
			return
		}
		if files[k.Name] == nil {
			files[k.Name] = make(map[string]bool)
		}
		files[k.Name][k.File] = true
	}
	for _, e := range g.Entities {
		note(QualifiedKey{Name: e.Name, File: e.FilePath})
	}
	for _, s := range g.Services {
		note(QualifiedKey{Name: s.Name, File: s.FilePath})
	}
	for _, t := range g.Types {
		note(QualifiedKey{Name: t.Name, File: t.FilePath})
	}

	out := make(map[string][]string)
	for name, set := range files {
		if len(set) < 2 {
			continue
		}
		list := make([]string, 0, len(set))
		for f := range set {
			list = append(list, f)
		}
		sort.Strings(list)
		out[name] = list
	}
	return out
}

func (g *Graph) summarize() Summary {
	files := make(map[string]bool)
	for _, e := range g.Endpoints {
		files[e.FilePath] = true
	}
	for _, e := range g.Entities {
		files[e.FilePath] = true
	}
	for _, s := range g.Services {
		files[s.FilePath] = true
	}
	for _, t := range g.Types {
		files[t.FilePath] = true
	}
	delete(files, "")

	return Summary{
		Endpoints:    len(g.Endpoints),
		Entities:     len(g.Entities),
		Services:     len(g.Services),
		Types:        len(g.Types),
		Dependencies: len(g.Dependencies),
		Files:        len(files),
	}
}
