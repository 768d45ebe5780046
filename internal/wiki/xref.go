package wiki

import (
	"sort"

	"github.com/julianshen/docsmith/internal/analysis"
)

// CrossRefs holds the usedBy/imports adjacency for one symbol category.
type CrossRefs struct {
	usedBy  map[string]map[string]bool
	imports map[string]map[string]bool
}

// BuildCrossRefs indexes edges in a single pass. An edge is counted only when
// both ends are in known. Sources inside category gain the target as an
// import; targets inside category gain the source as a user. Self edges are
// ignored.
func BuildCrossRefs(edges []analysis.DependencyEdge, known, category map[string]bool) *CrossRefs {
	c := &CrossRefs{
		usedBy:  make(map[string]map[string]bool),
		imports: make(map[string]map[string]bool),
	}
	for _, e := range edges {
		if e.Source == e.Target || !known[e.Source] || !known[e.Target] {
			continue
		}
		if category[e.Source] {
			addRef(c.imports, e.Source, e.Target)
		}
		if category[e.Target] {
			addRef(c.usedBy, e.Target, e.Source)
		}
	}
	return c
}

func addRef(m map[string]map[string]bool, key, val string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]bool)
		m[key] = set
	}
	set[val] = true
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UsedBy returns the symbols depending on name, sorted.
func (c *CrossRefs) UsedBy(name string) []string {
	if c == nil {
		return nil
	}
	return sortedKeys(c.usedBy[name])
}

// Imports returns the symbols name depends on, sorted.
func (c *CrossRefs) Imports(name string) []string {
	if c == nil {
		return nil
	}
	return sortedKeys(c.imports[name])
}

// Neighbors returns the union of UsedBy and Imports, sorted.
func (c *CrossRefs) Neighbors(name string) []string {
	if c == nil {
		return nil
	}
	set := make(map[string]bool, len(c.usedBy[name])+len(c.imports[name]))
	for k := range c.usedBy[name] {
		set[k] = true
	}
	for k := range c.imports[name] {
		set[k] = true
	}
	return sortedKeys(set)
}

// Degree is the number of distinct neighbors of name.
func (c *CrossRefs) Degree(name string) int {
	return len(c.Neighbors(name))
}

// XRefIndex is the per-run set of cross references shared by page bodies
// and diagrams.
type XRefIndex struct {
	Components *CrossRefs
	Services   *CrossRefs
	Entities   *CrossRefs
}

// BuildXRefIndex computes every category's cross references from the
// graph's dependency edges.
func BuildXRefIndex(g *analysis.Graph) XRefIndex {
	edges := g.DependencyEdges()
	known := g.SymbolNames()

	components := make(map[string]bool)
	for _, t := range g.Components() {
		components[t.Name] = true
	}
	services := make(map[string]bool)
	for _, s := range g.Services {
		services[s.Name] = true
	}
	entities := make(map[string]bool)
	for _, e := range g.Entities {
		entities[e.Name] = true
	}

	return XRefIndex{
		Components: BuildCrossRefs(edges, known, components),
		Services:   BuildCrossRefs(edges, known, services),
		Entities:   BuildCrossRefs(edges, known, entities),
	}
}
