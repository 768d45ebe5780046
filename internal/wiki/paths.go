package wiki

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/julianshen/docsmith/internal/analysis"
)

// Fixed page paths.
const (
	OverviewPath     = "index.md"
	ArchitecturePath = "architecture.md"
	ChangelogPath    = "changelog.md"
)

// Catalog directories per category.
const (
	EndpointsDir  = "api"
	EntitiesDir   = "entities"
	ComponentsDir = "components"
	ServicesDir   = "services"
)

var (
	nonSlugRe     = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	multiHyphenRe = regexp.MustCompile(`-{2,}`)
)

// Kebab converts a symbol name to kebab case: "UserController" becomes
// "user-controller", "HTTPServer" becomes "http-server". Letters and digits
// of any script are kept. A name with none gets "unnamed-" plus a suffix
// derived from the raw name, so distinct names keep distinct slugs.
func Kebab(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	slug := nonSlugRe.ReplaceAllString(b.String(), "-")
	slug = multiHyphenRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return UnnamedLabel + "-" + placeholderSuffix(name)
	}
	return slug
}

// PageID is the stable external key of a page: its path without extension.
func PageID(pagePath string) string {
	return strings.TrimSuffix(pagePath, path.Ext(pagePath))
}

// EndpointGroupKey returns the handler class an endpoint is documented
// under, or "<protocol>-api" when it has none.
func EndpointGroupKey(ep analysis.Endpoint) string {
	if ep.HandlerClass != "" {
		return ep.HandlerClass
	}
	proto := string(ep.Protocol)
	if proto == "" {
		proto = string(analysis.ProtocolREST)
	}
	return proto + "-api"
}

// EndpointPagePath is the page documenting every endpoint of a handler.
func EndpointPagePath(ep analysis.Endpoint) string {
	return EndpointsDir + "/" + Kebab(EndpointGroupKey(ep)) + ".md"
}

// EntityPagePath is the detail page of an entity.
func EntityPagePath(name string) string {
	return EntitiesDir + "/" + Kebab(name) + ".md"
}

// ComponentPagePath is the detail page of a component.
func ComponentPagePath(name string) string {
	return ComponentsDir + "/" + Kebab(name) + ".md"
}

// ServicePagePath is the detail page of a service.
func ServicePagePath(name string) string {
	return ServicesDir + "/" + Kebab(name) + ".md"
}

// CatalogPath is the index page of a category directory.
func CatalogPath(dir string) string {
	return dir + "/index.md"
}

// CustomPagePath places a custom page under its section id.
func CustomPagePath(sectionID, rel string) string {
	rel = strings.TrimPrefix(path.Clean("/"+filepathToSlash(rel)), "/")
	return sectionID + "/" + rel
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
