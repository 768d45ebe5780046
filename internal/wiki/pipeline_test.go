package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeAnalysisFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	spring, err := json.Marshal(springPartial())
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "01-spring.json"), string(spring))

	fastapi, err := yaml.Marshal(fastapiPartial())
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "02-fastapi.yaml"), string(fastapi))

	writeFile(t, filepath.Join(dir, "03-broken.json"), "{not json")
	writeFile(t, filepath.Join(dir, "README.txt"), "not an analysis")
	return dir
}

func TestRunFullPipeline(t *testing.T) {
	inDir := writeAnalysisFiles(t)
	outDir := t.TempDir()
	var progress bytes.Buffer

	res, err := Run(context.Background(), Config{
		Inputs:      []string{inDir},
		OutputDir:   outDir,
		Format:      "raw-md",
		Concurrency: 2,
		Now:         fixtureTime,
		Progress:    &progress,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, fixtureTime, res.GeneratedAt)
	assert.Equal(t, "Shop", res.Project)
	assert.Equal(t, NavHeuristic, res.Navigation.Strategy)
	assert.Greater(t, res.Diagrams, 5)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "03-broken.json", "load failures are reported first")

	for _, p := range res.Pages {
		assertFileExists(t, filepath.Join(outDir, filepath.FromSlash(p.Path)))
	}
	assertFileContains(t, filepath.Join(outDir, "api", "product-controller.md"), "page_id: api/product-controller")
	assertFileContains(t, filepath.Join(outDir, "index.md"), "# Shop")

	nav := readNavigation(t, filepath.Join(outDir, NavigationFile))
	assertNavComplete(t, res.Pages, nav)

	out := progress.String()
	for _, stage := range []string{"loading 3 analysis files", "merging 2 partial analyses", "writing", "done."} {
		assert.Contains(t, out, stage)
	}
}

func TestRunProjectNameOverride(t *testing.T) {
	inDir := writeAnalysisFiles(t)
	outDir := t.TempDir()
	_, err := Run(context.Background(), Config{
		Inputs:      []string{inDir},
		OutputDir:   outDir,
		Format:      "docusaurus",
		ProjectName: "Storefront",
		Progress:    &bytes.Buffer{},
	}, nil)
	require.NoError(t, err)
	assertFileContains(t, filepath.Join(outDir, "docs", "index.md"), "# Storefront")
	assertFileContains(t, filepath.Join(outDir, "docusaurus.config.js"), `title: "Storefront"`)
}

func TestRunWithAIGrouping(t *testing.T) {
	inDir := writeAnalysisFiles(t)
	outDir := t.TempDir()
	ai := &mockChat{
		responses: map[string]string{"business domains": aiGroupsReply},
		fallback:  "Describes the symbol.",
	}

	res, err := Run(context.Background(), Config{
		Inputs:    []string{inDir},
		OutputDir: outDir,
		Format:    "hugo",
		Progress:  &bytes.Buffer{},
		Options: Options{
			DomainGrouping: true,
			Enrichment:     true,
			Enrich:         EnrichOptions{Concurrency: 2},
		},
	}, ai)
	require.NoError(t, err)

	assert.Equal(t, NavAI, res.Navigation.Strategy)
	assert.Equal(t, []string{"Ghost"}, res.Navigation.UnmatchedNames)
	assert.Equal(t, 6, res.Enrichment.Enriched)
	assertFileContains(t, filepath.Join(outDir, "content", "entities", "task.md"), "Describes the symbol.")
	assertFileExists(t, filepath.Join(outDir, "content", "_index.md"))
}

func TestRunMissingInput(t *testing.T) {
	_, err := Run(context.Background(), Config{
		Inputs:    []string{filepath.Join(t.TempDir(), "absent.json")},
		OutputDir: t.TempDir(),
		Format:    "raw-md",
		Progress:  &bytes.Buffer{},
	}, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "load:"))
}

func TestRunUnsupportedFormat(t *testing.T) {
	_, err := Run(context.Background(), Config{
		Inputs:    []string{writeAnalysisFiles(t)},
		OutputDir: t.TempDir(),
		Format:    "mkdocs",
		Progress:  &bytes.Buffer{},
	}, nil)
	assert.ErrorContains(t, err, "render: unsupported render format")
}

func TestGenerateDoesNotModifyGraph(t *testing.T) {
	g := shopGraph()
	before := g.Clone()
	ai := &mockChat{fallback: "Filled in."}

	res, err := Generate(context.Background(), g, Options{Enrichment: true, Enrich: EnrichOptions{Concurrency: 1}}, ai)
	require.NoError(t, err)
	assert.Equal(t, before, g)
	assert.Equal(t, 6, res.Enrichment.Requested)
	assert.Contains(t, findPage(t, res.Pages, "entities/product.md").Content, "Filled in.")
}

func TestGenerateCustomSection(t *testing.T) {
	guides := t.TempDir()
	writeFile(t, filepath.Join(guides, "intro.md"), "# Getting Started\n\nRead me.\n")

	res, err := Generate(context.Background(), shopGraph(), Options{Sections: []Section{
		{ID: "overview", Label: "Overview", Type: SectionAuto},
		{ID: "guides", Label: "Guides", Type: SectionCustom, Dir: guides},
		{ID: "missing", Label: "Missing", Type: SectionCustom, Dir: filepath.Join(guides, "nope")},
	}}, nil)
	require.NoError(t, err)

	page := findPage(t, res.Pages, "guides/intro.md")
	assert.Equal(t, "Getting Started", page.Title)
	assert.Equal(t, NavStatic, res.Navigation.Strategy)

	guideNode, ok := findNode(res.Navigation.Tree, "Guides")
	require.True(t, ok)
	assert.Equal(t, "guides/intro", guideNode.PageID)

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, `custom section "missing"`) {
			found = true
		}
	}
	assert.True(t, found, "missing custom dir is a warning, got %v", res.Warnings)
	assertNavComplete(t, res.Pages, res.Navigation.Tree)
}

func TestGenerateNilGraph(t *testing.T) {
	_, err := Generate(context.Background(), nil, Options{}, nil)
	assert.Error(t, err)
}

func TestGenerateLocales(t *testing.T) {
	g := shopGraph()
	results, err := GenerateLocales(context.Background(), g, map[string]Options{
		"en": {},
		"de": {Overrides: map[string]Override{"index.md": {Title: "Übersicht"}}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Shop", findPage(t, results["en"].Pages, OverviewPath).Title)
	assert.Equal(t, "Übersicht", findPage(t, results["de"].Pages, OverviewPath).Title)
	assert.Equal(t, len(results["en"].Pages), len(results["de"].Pages))
}
