package wiki

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/analysis"
)

// ---------- mocks ----------

type mockChat struct {
	mu        sync.Mutex
	responses map[string]string // substring match -> response
	fallback  string
	err       error
	calls     []string
}

func (m *mockChat) Chat(_ context.Context, messages []ChatMessage) (string, error) {
	var prompt strings.Builder
	for _, msg := range messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	m.mu.Lock()
	m.calls = append(m.calls, prompt.String())
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	for key, resp := range m.responses {
		if strings.Contains(prompt.String(), key) {
			return resp, nil
		}
	}
	return m.fallback, nil
}

func (m *mockChat) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var errAIDown = errors.New("ai provider unavailable")

// ---------- fixtures ----------

var fixtureTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func springPartial() *analysis.Partial {
	return &analysis.Partial{
		Parser:      "spring",
		ProjectName: "Shop",
		Endpoints: []analysis.Endpoint{
			{Protocol: analysis.ProtocolREST, HTTPMethod: "GET", Path: "/api/products", Handler: "list", HandlerClass: "ProductController",
				FilePath: "src/main/java/com/example/ProductController.java", ReturnType: "List<Product>", ServiceRef: "ProductService",
				Params: []analysis.Param{{Name: "page", Type: "int", In: "query"}, {Name: "size", Type: "int", In: "query"}}},
			{Protocol: analysis.ProtocolREST, HTTPMethod: "POST", Path: "/api/products", Handler: "create", HandlerClass: "ProductController",
				FilePath: "src/main/java/com/example/ProductController.java", ReturnType: "Product", ServiceRef: "ProductService",
				Params: []analysis.Param{{Name: "request", Type: "CreateProductRequest", In: "body", Required: true}}},
		},
		Entities: []analysis.Entity{
			{Name: "Product", TableName: "products", StorageKind: "JPA", FilePath: "src/main/java/com/example/Product.java",
				Columns: []analysis.Column{
					{Name: "id", Type: "Long", PrimaryKey: true},
					{Name: "name", Type: "String"},
				},
				Relations: []analysis.Relation{{Kind: analysis.ManyToOne, Target: "Category", JoinColumn: "category_id"}}},
			{Name: "Category", TableName: "categories", StorageKind: "JPA", FilePath: "src/main/java/com/example/Category.java",
				Columns: []analysis.Column{
					{Name: "id", Type: "Long", PrimaryKey: true},
					{Name: "name", Type: "String", Unique: true},
				},
				Relations: []analysis.Relation{{Kind: analysis.OneToMany, Target: "Product", MappedBy: "categoryEntity"}}},
		},
		Services: []analysis.Service{
			{Name: "ProductService", FilePath: "src/main/java/com/example/ProductService.java",
				Methods: []string{"findAll", "create"}, Dependencies: []string{"ProductRepository", "Product"}},
		},
		Dependencies: []analysis.DependencyEdge{
			{Source: "ProductController", Target: "ProductService", Kind: analysis.EdgeInject},
		},
	}
}

func fastapiPartial() *analysis.Partial {
	return &analysis.Partial{
		Parser: "fastapi",
		Endpoints: []analysis.Endpoint{
			{Protocol: analysis.ProtocolREST, HTTPMethod: "GET", Path: "/api/tasks", Handler: "list_tasks", FilePath: "app/main.py", ReturnType: "list[TaskResponse]"},
			{Protocol: analysis.ProtocolREST, HTTPMethod: "POST", Path: "/api/tasks", Handler: "create_task", FilePath: "app/main.py", ReturnType: "TaskResponse"},
		},
		Entities: []analysis.Entity{
			{Name: "Task", TableName: "tasks", StorageKind: "SQLAlchemy", FilePath: "app/models.py",
				Columns:   []analysis.Column{{Name: "id", Type: "Integer", PrimaryKey: true}, {Name: "title", Type: "String(200)"}},
				Relations: []analysis.Relation{{Kind: analysis.ManyToOne, Target: "User", JoinColumn: "assignee_id"}}},
		},
		Types: []analysis.TypeDef{
			{Name: "TaskCreate", Kind: analysis.KindDTO, FilePath: "app/schemas.py",
				Fields: []analysis.Field{{Name: "title", Type: "str", Required: true}, {Name: "priority", Type: "int"}}},
			{Name: "TaskStatus", Kind: analysis.KindEnum, FilePath: "app/schemas.py",
				Fields: []analysis.Field{{Name: "pending"}, {Name: "done"}}},
			{Name: "TaskResponse", Kind: analysis.KindResponse, FilePath: "app/schemas.py",
				Fields: []analysis.Field{{Name: "id", Type: "int", Required: true}}},
		},
		Dependencies: []analysis.DependencyEdge{
			{Source: "TaskResponse", Target: "TaskCreate", Kind: analysis.EdgeInherit},
		},
	}
}

func shopGraph() *analysis.Graph {
	return analysis.Merge(analysis.MergeOptions{Now: fixtureTime}, springPartial(), fastapiPartial())
}

func pagePaths(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Path
	}
	return out
}

func findPage(t *testing.T, pages []Page, path string) Page {
	t.Helper()
	for _, p := range pages {
		if p.Path == path {
			return p
		}
	}
	require.Failf(t, "page not found", "no page at %s; have %v", path, pagePaths(pages))
	return Page{}
}

func hasPage(pages []Page, path string) bool {
	for _, p := range pages {
		if p.Path == path {
			return true
		}
	}
	return false
}

func countIDs(nodes []NavNode) map[string]int {
	counts := make(map[string]int)
	for _, id := range PageIDs(nodes) {
		counts[id]++
	}
	return counts
}

func findNode(nodes []NavNode, label string) (NavNode, bool) {
	for _, n := range nodes {
		if n.Label == label {
			return n, true
		}
		if n.Kind == NavCategory {
			if found, ok := findNode(n.Children, label); ok {
				return found, true
			}
		}
	}
	return NavNode{}, false
}
