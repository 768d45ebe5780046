package wiki

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julianshen/docsmith/internal/analysis"
)

func TestKebab(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"UserController", "user-controller"},
		{"HTTPServer", "http-server"},
		{"getUserByID", "get-user-by-id"},
		{"user_service", "user-service"},
		{"OAuth2Client", "o-auth2-client"},
		{"List<Post>", "list-post"},
		{"用户", "用户"},
		{"ÉtatCivil", "état-civil"},
		{"Straße", "straße"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Kebab(tt.in))
		})
	}
}

func TestKebabWithoutLettersIsDistinct(t *testing.T) {
	a, b := Kebab("<>"), Kebab("{}")
	assert.Regexp(t, `^unnamed-[0-9a-z]{4}$`, a)
	assert.Regexp(t, `^unnamed-[0-9a-z]{4}$`, b)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Kebab("<>"), "slug is stable across calls")
	assert.Regexp(t, `^unnamed-[0-9a-z]{4}$`, Kebab(""))
}

func TestPageID(t *testing.T) {
	assert.Equal(t, "index", PageID("index.md"))
	assert.Equal(t, "api/user-controller", PageID("api/user-controller.md"))
	assert.Equal(t, "guides/intro", PageID("guides/intro.mdx"))
}

func TestEndpointPagePath(t *testing.T) {
	assert.Equal(t, "api/user-controller.md",
		EndpointPagePath(analysis.Endpoint{HandlerClass: "UserController", Protocol: analysis.ProtocolREST}))
	assert.Equal(t, "api/graphql-api.md",
		EndpointPagePath(analysis.Endpoint{Protocol: analysis.ProtocolGraphQL, FieldName: "users"}))
	assert.Equal(t, "api/rest-api.md", EndpointPagePath(analysis.Endpoint{}))
}

func TestSymbolPagePaths(t *testing.T) {
	assert.Equal(t, "entities/order-item.md", EntityPagePath("OrderItem"))
	assert.Equal(t, "components/user-card.md", ComponentPagePath("UserCard"))
	assert.Equal(t, "services/auth-service.md", ServicePagePath("AuthService"))
	assert.Equal(t, "services/index.md", CatalogPath(ServicesDir))
}

func TestCustomPagePath(t *testing.T) {
	assert.Equal(t, "guides/intro.md", CustomPagePath("guides", "intro.md"))
	assert.Equal(t, "guides/setup/install.md", CustomPagePath("guides", `setup\install.md`))
	assert.Equal(t, "guides/escape.md", CustomPagePath("guides", "../../escape.md"))
}
