package wiki

import (
	"context"
	"sort"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

// NavStrategy names the rule that produced a navigation tree.
type NavStrategy string

const (
	NavStatic         NavStrategy = "static"
	NavAI             NavStrategy = "ai"
	NavHeuristic      NavStrategy = "heuristic"
	NavStaticFallback NavStrategy = "static-fallback"
)

// Fixed positions of the grouped tree.
const (
	navOverviewPosition     = 0
	navGroupStep            = 10
	navOtherPosition        = 500
	navArchitecturePosition = 1000
	navChangelogPosition    = 9999
	OtherLabel              = "Other"
)

var catalogPositions = []struct {
	dir      string
	position int
}{
	{EndpointsDir, 200},
	{EntitiesDir, 300},
	{ComponentsDir, 350},
	{ServicesDir, 400},
}

// NavInput is everything navigation construction depends on.
type NavInput struct {
	Pages          []Page
	Graph          *analysis.Graph
	Sections       []Section
	AI             AIChat
	DomainGrouping bool
	Logf           func(format string, args ...any)
}

// NavResult is the navigation tree and how it was built. UnmatchedNames
// lists AI-proposed names that matched no page; they do not affect the
// tree.
type NavResult struct {
	Tree           []NavNode
	Strategy       NavStrategy
	UnmatchedNames []string
}

type navRule struct {
	strategy NavStrategy
	applies  func(b *navBuilder) bool
	build    func(ctx context.Context, b *navBuilder) []NavNode
}

// navRules is evaluated in order; the first rule that applies and yields a
// non-empty tree wins.
var navRules = []navRule{
	{
		strategy: NavStatic,
		applies:  func(b *navBuilder) bool { return hasExplicitSections(b.in.Sections) },
		build: func(_ context.Context, b *navBuilder) []NavNode {
			return b.staticTree(b.in.Sections)
		},
	},
	{
		strategy: NavAI,
		applies: func(b *navBuilder) bool {
			return b.in.Graph.HasBackend() && b.in.AI != nil && b.in.DomainGrouping
		},
		build: func(ctx context.Context, b *navBuilder) []NavNode {
			groups, err := aiGroups(ctx, b.in.AI, b.in.Graph)
			if err != nil {
				b.logf("WARNING: %v; using heuristic grouping", err)
				return nil
			}
			b.fromAI = true
			groups = append(groups, heuristicFrontendGroups(b.in.Graph)...)
			return b.groupTree(groups)
		},
	},
	{
		strategy: NavHeuristic,
		applies: func(b *navBuilder) bool {
			return b.in.Graph.HasBackend() || b.in.Graph.HasFrontend()
		},
		build: func(_ context.Context, b *navBuilder) []NavNode {
			groups := heuristicBackendGroups(b.in.Graph)
			groups = append(groups, heuristicFrontendGroups(b.in.Graph)...)
			return b.groupTree(groups)
		},
	},
	{
		strategy: NavStaticFallback,
		applies:  func(*navBuilder) bool { return true },
		build: func(_ context.Context, b *navBuilder) []NavNode {
			return b.staticTree(b.effectiveSections())
		},
	},
}

// BuildNavigation builds the navigation tree for a page set. Every page id
// appears exactly once in the result.
func BuildNavigation(ctx context.Context, in NavInput) NavResult {
	if in.Graph == nil {
		in.Graph = &analysis.Graph{}
	}
	for _, rule := range navRules {
		b := newNavBuilder(in)
		if !rule.applies(b) {
			continue
		}
		tree := rule.build(ctx, b)
		if len(tree) == 0 {
			continue
		}
		sortNav(tree)
		if len(b.unmatched) > 0 && in.Logf != nil {
			in.Logf("WARNING: AI grouping named %d unknown symbol(s): %s", len(b.unmatched), strings.Join(b.unmatched, ", "))
		}
		return NavResult{Tree: tree, Strategy: rule.strategy, UnmatchedNames: b.unmatched}
	}
	return NavResult{Strategy: NavStaticFallback}
}

func hasExplicitSections(sections []Section) bool {
	return len(sections) > 1 || (len(sections) == 1 && sections[0].Type != SectionAuto)
}

// navBuilder owns the used set for one construction attempt.
type navBuilder struct {
	in        NavInput
	byPath    map[string]Page
	used      map[string]bool
	fromAI    bool
	unmatched []string
}

func newNavBuilder(in NavInput) *navBuilder {
	b := &navBuilder{in: in, byPath: make(map[string]Page, len(in.Pages)), used: make(map[string]bool)}
	for _, p := range in.Pages {
		b.byPath[p.Path] = p
	}
	return b
}

func (b *navBuilder) logf(format string, args ...any) {
	if b.in.Logf != nil {
		b.in.Logf(format, args...)
	}
}

func (b *navBuilder) leaf(p Page, label string, position int) NavNode {
	if label == "" {
		label = p.Meta.SidebarLabel
	}
	if label == "" {
		label = p.Title
	}
	return DocNode(label, p.ID(), position)
}

// sectionMatches applies the static path-prefix rule of a section.
func sectionMatches(sec Section, pagePath string) bool {
	switch sec.Type {
	case SectionEndpoints:
		return strings.HasPrefix(pagePath, EndpointsDir+"/")
	case SectionEntities:
		return strings.HasPrefix(pagePath, EntitiesDir+"/")
	case SectionArchitecture:
		return strings.HasPrefix(pagePath, "architecture")
	case SectionChangelog:
		return strings.HasPrefix(pagePath, "changelog")
	case SectionComponents:
		return strings.HasPrefix(pagePath, ComponentsDir+"/")
	case SectionServices:
		return strings.HasPrefix(pagePath, ServicesDir+"/") || strings.HasPrefix(pagePath, "hooks/")
	}
	return sec.ID != "" && strings.HasPrefix(pagePath, sec.ID+"/")
}

func isOverviewSection(sec Section) bool {
	return sec.Type == SectionAuto || sec.ID == "overview"
}

// staticTree assigns each page to the first section whose rule matches it.
// Unmatched pages go to the first auto/overview section, else to Other.
func (b *navBuilder) staticTree(sections []Section) []NavNode {
	assigned := make([][]Page, len(sections))
	var other []Page

	fallback := -1
	for i, sec := range sections {
		if isOverviewSection(sec) {
			fallback = i
			break
		}
	}

	for _, p := range b.in.Pages {
		if b.used[p.Path] {
			continue
		}
		b.used[p.Path] = true
		placed := false
		for i, sec := range sections {
			if sectionMatches(sec, p.Path) {
				assigned[i] = append(assigned[i], p)
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		if fallback >= 0 {
			assigned[fallback] = append(assigned[fallback], p)
		} else {
			other = append(other, p)
		}
	}

	var tree []NavNode
	for i, sec := range sections {
		pages := assigned[i]
		label := sec.Label
		if label == "" {
			label = sec.ID
		}
		switch len(pages) {
		case 0:
			continue
		case 1:
			tree = append(tree, b.leaf(pages[0], label, i*navGroupStep))
		default:
			tree = append(tree, CategoryNode(label, b.pageLeaves(pages), i*navGroupStep))
		}
	}
	if len(other) > 0 {
		tree = append(tree, CategoryNode(OtherLabel, b.pageLeaves(other), navOtherPosition))
	}
	return tree
}

func (b *navBuilder) pageLeaves(pages []Page) []NavNode {
	nodes := make([]NavNode, 0, len(pages))
	for _, p := range pages {
		nodes = append(nodes, b.leaf(p, "", p.SidebarPosition))
	}
	return nodes
}

// effectiveSections derives a section list from what the graph and page set
// actually contain.
func (b *navBuilder) effectiveSections() []Section {
	g := b.in.Graph
	sections := []Section{{ID: "overview", Label: "Overview", Type: SectionAuto}}
	if len(g.Endpoints) > 0 {
		sections = append(sections, Section{ID: "api", Label: "API", Type: SectionEndpoints})
	}
	if len(g.Entities) > 0 {
		sections = append(sections, Section{ID: "entities", Label: "Data Models", Type: SectionEntities})
	}
	if len(g.Components()) > 0 {
		sections = append(sections, Section{ID: "components", Label: "Components", Type: SectionComponents})
	}
	if len(g.Services) > 0 {
		sections = append(sections, Section{ID: "services", Label: "Services", Type: SectionServices})
	}
	for _, sec := range b.in.Sections {
		if sec.Type == SectionCustom {
			sections = append(sections, sec)
		}
	}
	if _, ok := b.byPath[ArchitecturePath]; ok {
		sections = append(sections, Section{ID: "architecture", Label: "Architecture", Type: SectionArchitecture})
	}
	if _, ok := b.byPath[ChangelogPath]; ok {
		sections = append(sections, Section{ID: "changelog", Label: "Changelog", Type: SectionChangelog})
	}
	return sections
}

// endpointPaths maps handler classes and endpoint locators to the page
// documenting them.
func (b *navBuilder) endpointPaths() map[string]string {
	out := make(map[string]string)
	for _, ep := range b.in.Graph.Endpoints {
		p := EndpointPagePath(ep)
		out[EndpointGroupKey(ep)] = p
		out[ep.Locator()] = p
	}
	return out
}

// groupTree lays groups out under an overview leaf and closes with
// catalogs, Other, architecture and changelog.
func (b *navBuilder) groupTree(groups []Group) []NavNode {
	var tree []NavNode
	if p, ok := b.byPath[OverviewPath]; ok {
		b.used[p.Path] = true
		tree = append(tree, b.leaf(p, "Overview", navOverviewPosition))
	}

	endpoints := b.endpointPaths()
	position := 0
	for _, grp := range groups {
		var children []NavNode
		claim := func(name, pagePath string, known bool) {
			p, ok := b.byPath[pagePath]
			if !known || !ok {
				if b.fromAI {
					b.unmatched = append(b.unmatched, name)
				}
				return
			}
			if b.used[p.Path] {
				return
			}
			b.used[p.Path] = true
			children = append(children, b.leaf(p, "", len(children)))
		}
		for _, name := range grp.Endpoints {
			p, ok := endpoints[name]
			claim(name, p, ok)
		}
		for _, name := range grp.Entities {
			claim(name, EntityPagePath(name), true)
		}
		for _, name := range grp.Components {
			claim(name, ComponentPagePath(name), true)
		}
		for _, name := range grp.Services {
			claim(name, ServicePagePath(name), true)
		}
		if len(children) == 0 {
			continue
		}
		position += navGroupStep
		tree = append(tree, CategoryNode(grp.Name, children, position))
	}

	for _, c := range catalogPositions {
		p, ok := b.byPath[CatalogPath(c.dir)]
		if !ok || b.used[p.Path] {
			continue
		}
		b.used[p.Path] = true
		tree = append(tree, b.leaf(p, "", c.position))
	}

	var other []Page
	for _, p := range b.in.Pages {
		if b.used[p.Path] || p.Path == ArchitecturePath || p.Path == ChangelogPath {
			continue
		}
		b.used[p.Path] = true
		other = append(other, p)
	}
	if len(other) > 0 {
		tree = append(tree, CategoryNode(OtherLabel, b.pageLeaves(other), navOtherPosition))
	}

	if p, ok := b.byPath[ArchitecturePath]; ok && !b.used[p.Path] {
		b.used[p.Path] = true
		tree = append(tree, b.leaf(p, "", navArchitecturePosition))
	}
	if p, ok := b.byPath[ChangelogPath]; ok && !b.used[p.Path] {
		b.used[p.Path] = true
		tree = append(tree, b.leaf(p, "", navChangelogPosition))
	}

	if len(b.unmatched) > 0 {
		b.logf("WARNING: domain grouping referenced %d unknown names: %s", len(b.unmatched), strings.Join(b.unmatched, ", "))
	}
	return tree
}

// sortNav orders nodes by ascending position at every level, keeping the
// construction order for ties.
func sortNav(nodes []NavNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Position < nodes[j].Position })
	for i := range nodes {
		if nodes[i].Kind == NavCategory {
			sortNav(nodes[i].Children)
		}
	}
}
