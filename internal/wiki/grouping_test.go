package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/analysis"
)

func TestParseGroups(t *testing.T) {
	reply := "Sure!\n```json\n[\n" +
		`{"name": " Orders ", "endpoints": ["OrderController"], "entities": ["Order"]},` +
		`{"name": "Empty"},` +
		`{"name": "", "entities": ["Nameless"]},` +
		`{"name": "Stray", "components": ["Button"]}` +
		"\n]\n```"
	groups, err := parseGroups(reply)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, Group{Name: "Orders", Endpoints: []string{"OrderController"}, Entities: []string{"Order"}}, groups[0])
}

func TestParseGroupsErrors(t *testing.T) {
	_, err := parseGroups("I cannot help with that.")
	assert.ErrorContains(t, err, "no JSON array")

	_, err = parseGroups(`[{"name": }]`)
	assert.ErrorContains(t, err, "decoding reply")
}

func TestAIGroupsPrompt(t *testing.T) {
	ai := &mockChat{fallback: `[{"name": "Catalog", "endpoints": ["ProductController"]}]`}
	groups, err := aiGroups(context.Background(), ai, shopGraph())
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.Equal(t, 1, ai.callCount())
	prompt := ai.calls[0]
	assert.Contains(t, prompt, "- ProductController: GET /api/products, POST /api/products")
	assert.Contains(t, prompt, "- rest-api: GET /api/tasks, POST /api/tasks")
	assert.Contains(t, prompt, "- Category")
	assert.Contains(t, prompt, `the project "Shop"`)
}

func TestAIGroupsEmptyReplyIsError(t *testing.T) {
	_, err := aiGroups(context.Background(), &mockChat{fallback: "[]"}, shopGraph())
	assert.ErrorContains(t, err, "no groups returned")

	_, err = aiGroups(context.Background(), &mockChat{err: errAIDown}, shopGraph())
	assert.ErrorIs(t, err, errAIDown)
}

func TestHeuristicBackendGroups(t *testing.T) {
	g := analysis.Merge(analysis.MergeOptions{Now: fixtureTime}, &analysis.Partial{
		Endpoints: []analysis.Endpoint{
			{Protocol: analysis.ProtocolREST, HTTPMethod: "GET", Path: "/api/v1/orders/{id}", HandlerClass: "OrderController"},
			{Protocol: analysis.ProtocolREST, HTTPMethod: "GET", Path: "/api/v1/orders", HandlerClass: "OrdersResource"},
			{Protocol: analysis.ProtocolREST, HTTPMethod: "GET", Path: "/api/v1/categories"},
			{Protocol: analysis.ProtocolGraphQL, OperationType: "query", FieldName: "inventory"},
		},
		Entities: []analysis.Entity{{Name: "Order"}, {Name: "Category"}, {Name: "AuditLog"}},
	})

	groups := heuristicBackendGroups(g)
	require.Len(t, groups, 4)
	assert.Equal(t, Group{Name: "Order", Endpoints: []string{"OrderController", "OrdersResource"}, Entities: []string{"Order"}}, groups[0])
	assert.Equal(t, Group{Name: "Categories", Endpoints: []string{"rest-api"}, Entities: []string{"Category"}}, groups[1])
	assert.Equal(t, Group{Name: "Inventory", Endpoints: []string{"graphql-api"}}, groups[2])
	assert.Equal(t, Group{Name: DataModelsGroup, Entities: []string{"AuditLog"}}, groups[3])
}

func TestHeuristicFrontendGroups(t *testing.T) {
	g := &analysis.Graph{
		Types: []analysis.TypeDef{
			{Name: "Button", Kind: analysis.KindType, FilePath: "src/ui/Button.tsx", Fields: []analysis.Field{{Name: "label"}}},
			{Name: "Modal", Kind: analysis.KindType, FilePath: "src/ui/Modal.tsx", Fields: []analysis.Field{{Name: "open"}}},
			{Name: "Loose", Kind: analysis.KindType, Fields: []analysis.Field{{Name: "x"}}},
		},
		Services: []analysis.Service{{Name: "useAuth", FilePath: "src/auth_hooks/useAuth.ts"}},
	}
	groups := heuristicFrontendGroups(g)
	require.Len(t, groups, 3)
	assert.Equal(t, Group{Name: "Ui", Components: []string{"Button", "Modal"}}, groups[0])
	assert.Equal(t, Group{Name: "Components", Components: []string{"Loose"}}, groups[1])
	assert.Equal(t, Group{Name: "Auth Hooks", Services: []string{"useAuth"}}, groups[2])
}

func TestSingular(t *testing.T) {
	tests := map[string]string{
		"Categories": "category",
		"Addresses":  "address",
		"Boxes":      "box",
		"Orders":     "order",
		"Class":      "class",
		"Order Item": "orderitem",
	}
	for in, want := range tests {
		assert.Equal(t, want, singular(in), in)
	}
}
