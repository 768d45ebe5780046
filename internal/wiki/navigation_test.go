package wiki

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/analysis"
)

func assertNavComplete(t *testing.T, pages []Page, tree []NavNode) {
	t.Helper()
	counts := countIDs(tree)
	for _, p := range pages {
		assert.Equal(t, 1, counts[p.ID()], "page %s must appear exactly once", p.ID())
	}
	assert.Len(t, counts, len(pages), "navigation references only existing pages")
}

const aiGroupsReply = "Here you go:\n```json\n" +
	`[{"name": "Catalog", "endpoints": ["ProductController", "GET /api/tasks"], "entities": ["Product", "Category", "Ghost"]}]` +
	"\n```"

func TestBuildNavigationCompleteForEveryStrategy(t *testing.T) {
	enumOnly := analysis.Merge(analysis.MergeOptions{Now: fixtureTime}, &analysis.Partial{
		Types: []analysis.TypeDef{{Name: "Color", Kind: analysis.KindEnum}},
	})
	explicit := []Section{
		{ID: "api", Label: "API", Type: SectionEndpoints},
		{ID: "data", Label: "Data", Type: SectionEntities},
	}

	tests := []struct {
		name     string
		graph    *analysis.Graph
		sections []Section
		ai       AIChat
		want     NavStrategy
	}{
		{"static", shopGraph(), explicit, nil, NavStatic},
		{"ai", shopGraph(), nil, &mockChat{fallback: aiGroupsReply}, NavAI},
		{"heuristic", shopGraph(), nil, nil, NavHeuristic},
		{"static fallback", enumOnly, nil, nil, NavStaticFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Synthesize(tt.graph, SynthesisOptions{Sections: tt.sections})
			res := BuildNavigation(context.Background(), NavInput{
				Pages: pages, Graph: tt.graph, Sections: tt.sections, AI: tt.ai, DomainGrouping: true,
			})
			assert.Equal(t, tt.want, res.Strategy)
			require.NotEmpty(t, res.Tree)
			assertNavComplete(t, pages, res.Tree)
		})
	}
}

func TestBuildNavigationAIFailureFallsBackToHeuristic(t *testing.T) {
	g := shopGraph()
	pages := Synthesize(g, SynthesisOptions{})
	ai := &mockChat{err: errAIDown}
	var logged []string

	res := BuildNavigation(context.Background(), NavInput{
		Pages: pages, Graph: g, AI: ai, DomainGrouping: true,
		Logf: func(format string, args ...any) { logged = append(logged, format) },
	})

	assert.Equal(t, NavHeuristic, res.Strategy)
	assert.NotEmpty(t, res.Tree)
	assert.Equal(t, 1, ai.callCount())
	assert.NotEmpty(t, logged)
	assertNavComplete(t, pages, res.Tree)
}

func TestBuildNavigationAIGroupsAndUnmatchedNames(t *testing.T) {
	g := shopGraph()
	pages := Synthesize(g, SynthesisOptions{})

	var logs []string
	res := BuildNavigation(context.Background(), NavInput{
		Pages: pages, Graph: g, AI: &mockChat{fallback: aiGroupsReply}, DomainGrouping: true,
		Logf: func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	require.Equal(t, NavAI, res.Strategy)
	assert.Equal(t, []string{"Ghost"}, res.UnmatchedNames)
	assert.Contains(t, logs, "WARNING: AI grouping named 1 unknown symbol(s): Ghost")

	catalog, ok := findNode(res.Tree, "Catalog")
	require.True(t, ok)
	assert.Equal(t, NavCategory, catalog.Kind)
	assert.Equal(t, []string{"api/product-controller", "api/rest-api", "entities/product", "entities/category"}, PageIDs(catalog.Children))

	other, ok := findNode(res.Tree, OtherLabel)
	require.True(t, ok, "unclaimed pages land in Other")
	assert.Equal(t, []string{"entities/task"}, PageIDs(other.Children))
	assertNavComplete(t, pages, res.Tree)
}

func TestBuildNavigationDomainGroupingDisabledSkipsAI(t *testing.T) {
	g := shopGraph()
	ai := &mockChat{fallback: aiGroupsReply}
	res := BuildNavigation(context.Background(), NavInput{
		Pages: Synthesize(g, SynthesisOptions{}), Graph: g, AI: ai,
	})
	assert.Equal(t, NavHeuristic, res.Strategy)
	assert.Zero(t, ai.callCount())
}

func TestHeuristicTreeLayout(t *testing.T) {
	g := shopGraph()
	pages := Synthesize(g, SynthesisOptions{})
	res := BuildNavigation(context.Background(), NavInput{Pages: pages, Graph: g})
	require.Equal(t, NavHeuristic, res.Strategy)

	var labels []string
	var positions []int
	for _, n := range res.Tree {
		labels = append(labels, n.Label)
		positions = append(positions, n.Position)
	}
	assert.Equal(t, []string{"Overview", "Product", "Tasks", DataModelsGroup, "App", "Example", "API", "Data Models", "Components", "Services", "Architecture"}, labels)
	assert.IsIncreasing(t, positions)

	product, _ := findNode(res.Tree, "Product")
	assert.Equal(t, []string{"api/product-controller", "entities/product"}, PageIDs(product.Children))
	assert.Equal(t, 0, product.Children[0].Position)
	assert.Equal(t, 1, product.Children[1].Position)
}

func TestStaticTreeAssignsBySection(t *testing.T) {
	sections := []Section{
		{ID: "api", Label: "API", Type: SectionEndpoints},
		{ID: "data", Label: "Data", Type: SectionEntities},
	}
	g := shopGraph()
	pages := Synthesize(g, SynthesisOptions{Sections: sections})
	res := BuildNavigation(context.Background(), NavInput{Pages: pages, Graph: g, Sections: sections})
	require.Equal(t, NavStatic, res.Strategy)
	require.Len(t, res.Tree, 3)

	assert.Equal(t, "API", res.Tree[0].Label)
	assert.Equal(t, 0, res.Tree[0].Position)
	assert.Len(t, res.Tree[0].Children, 3)
	assert.Equal(t, "Data", res.Tree[1].Label)
	assert.Equal(t, 10, res.Tree[1].Position)
	assert.Equal(t, OtherLabel, res.Tree[2].Label)
	assert.Equal(t, []string{"index"}, PageIDs(res.Tree[2].Children))
}

func TestStaticTreeSinglePageSectionIsLeaf(t *testing.T) {
	sections := []Section{
		{ID: "overview", Label: "Overview", Type: SectionAuto},
		{ID: "changes", Label: "Changes", Type: SectionChangelog},
	}
	pages := []Page{
		{Path: "index.md", Title: "Shop"},
		{Path: "notes/misc.md", Title: "Misc"},
		{Path: "changelog.md", Title: "Changelog"},
	}
	res := BuildNavigation(context.Background(), NavInput{Pages: pages, Sections: sections})
	require.Equal(t, NavStatic, res.Strategy)
	require.Len(t, res.Tree, 2)

	assert.Equal(t, NavCategory, res.Tree[0].Kind, "unmatched pages join the overview section")
	assert.Equal(t, []string{"index", "notes/misc"}, PageIDs(res.Tree[0].Children))
	assert.Equal(t, DocNode("Changes", "changelog", 10), res.Tree[1])
}

func TestSectionMatches(t *testing.T) {
	services := Section{ID: "svc", Type: SectionServices}
	assert.True(t, sectionMatches(services, "services/auth-service.md"))
	assert.True(t, sectionMatches(services, "hooks/use-auth.md"))
	assert.False(t, sectionMatches(services, "components/button.md"))

	custom := Section{ID: "guides", Type: SectionCustom}
	assert.True(t, sectionMatches(custom, "guides/intro.md"))
	assert.False(t, sectionMatches(custom, "guidesx/intro.md"))
	assert.False(t, sectionMatches(Section{Type: SectionCustom}, "intro.md"))
}

func TestSortNavIsStableAndRecursive(t *testing.T) {
	nodes := []NavNode{
		DocNode("c", "c", 5),
		CategoryNode("cat", []NavNode{DocNode("y", "y", 2), DocNode("x", "x", 1)}, 1),
		DocNode("a", "a", 5),
		DocNode("b", "b", DefaultPosition),
	}
	sortNav(nodes)
	assert.Equal(t, []string{"cat", "c", "a", "b"}, []string{nodes[0].Label, nodes[1].Label, nodes[2].Label, nodes[3].Label})
	assert.Equal(t, "x", nodes[0].Children[0].Label)
}

func TestBuildNavigationEmptyPages(t *testing.T) {
	res := BuildNavigation(context.Background(), NavInput{})
	assert.Empty(t, res.Tree)
	assert.Equal(t, NavStaticFallback, res.Strategy)
}
