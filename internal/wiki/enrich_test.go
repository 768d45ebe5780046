package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/analysis"
)

func TestEnrichFillsMissingDescriptions(t *testing.T) {
	g := shopGraph()
	g.Entities[1].Description = "Product grouping."
	ai := &mockChat{
		responses: map[string]string{
			`entity "Product"`:         "A sellable item.\nIgnored second line.",
			`service "ProductService"`: "Coordinates product operations.",
		},
		fallback: "Generic description.",
	}

	out, stats := Enrich(context.Background(), g, ai, EnrichOptions{Concurrency: 2})

	assert.Equal(t, "A sellable item.", out.Entities[0].Description)
	assert.Equal(t, "Product grouping.", out.Entities[1].Description, "existing descriptions are kept")
	assert.Equal(t, "Coordinates product operations.", out.Services[0].Description)
	assert.Equal(t, "Generic description.", out.Types[0].Description)
	assert.Empty(t, out.Types[1].Description, "enums are not enriched")

	// Product, Task, ProductService, TaskCreate, TaskResponse.
	assert.Equal(t, EnrichStats{Requested: 5, Enriched: 5}, stats)
	assert.Equal(t, 5, ai.callCount())

	assert.Empty(t, g.Entities[0].Description, "input graph is not modified")
	assert.Empty(t, g.Services[0].Description)
}

func TestEnrichFailuresLeaveDescriptionsEmpty(t *testing.T) {
	g := shopGraph()
	var warnings []string
	out, stats := Enrich(context.Background(), g, &mockChat{err: errAIDown}, EnrichOptions{
		Concurrency: 1,
		Logf:        func(format string, args ...any) { warnings = append(warnings, format) },
	})
	assert.Equal(t, 6, stats.Requested)
	assert.Equal(t, 6, stats.Failed)
	assert.Zero(t, stats.Enriched)
	assert.Len(t, warnings, 6)
	for _, e := range out.Entities {
		assert.Empty(t, e.Description)
	}
}

func TestEnrichRespectsMaxItems(t *testing.T) {
	ai := &mockChat{fallback: "Described."}
	_, stats := Enrich(context.Background(), shopGraph(), ai, EnrichOptions{Concurrency: 4, MaxItems: 2})
	assert.Equal(t, 2, stats.Requested)
	assert.Equal(t, 2, ai.callCount())
}

func TestEnrichWithoutAIReturnsClone(t *testing.T) {
	g := shopGraph()
	out, stats := Enrich(context.Background(), g, nil, DefaultEnrichOptions())
	require.NotSame(t, g, out)
	assert.Equal(t, g, out)
	assert.Zero(t, stats)
}

func TestEnrichEmptyReplyCountsAsFailure(t *testing.T) {
	g := &analysis.Graph{Entities: []analysis.Entity{{Name: "Solo"}}}
	out, stats := Enrich(context.Background(), g, &mockChat{fallback: "   "}, EnrichOptions{})
	assert.Equal(t, 1, stats.Failed)
	assert.Empty(t, out.Entities[0].Description)
}
