package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/julianshen/docsmith/internal/analysis"
)

// Group is one domain cluster of symbols. Endpoint names may be handler
// classes or endpoint locators such as "GET /users".
type Group struct {
	Name       string   `json:"name"`
	Endpoints  []string `json:"endpoints,omitempty"`
	Entities   []string `json:"entities,omitempty"`
	Components []string `json:"components,omitempty"`
	Services   []string `json:"services,omitempty"`
}

func (g Group) empty() bool {
	return len(g.Endpoints) == 0 && len(g.Entities) == 0 && len(g.Components) == 0 && len(g.Services) == 0
}

var groupingPrompt = template.Must(template.New("grouping").Parse(`Group the following API endpoints and data entities of {{if .Project}}the project "{{.Project}}"{{else}}a software project{{end}} into business domains for a documentation sidebar.

Endpoints (handler: operations):
{{range .Handlers}}- {{.Name}}: {{.Ops}}
{{end}}
Entities:
{{range .Entities}}- {{.}}
{{end}}
Respond with ONLY a JSON array. Each element must be an object of the form
{"name": "<domain name>", "endpoints": ["<handler name>", ...], "entities": ["<entity name>", ...]}.
Use the exact handler and entity names listed above and place each name in at most one domain.`))

type promptHandler struct {
	Name string
	Ops  string
}

// aiGroups asks the AI capability for domain groups once. Any failure, or a
// reply without usable groups, is returned as an error.
func aiGroups(ctx context.Context, ai AIChat, g *analysis.Graph) ([]Group, error) {
	data := struct {
		Project  string
		Handlers []promptHandler
		Entities []string
	}{Project: g.Metadata.ProjectName}

	for _, grp := range groupEndpoints(g.Endpoints) {
		var ops []string
		for _, ep := range grp.endpoints {
			ops = append(ops, ep.Locator())
		}
		data.Handlers = append(data.Handlers, promptHandler{Name: grp.key, Ops: strings.Join(ops, ", ")})
	}
	for _, e := range uniqueEntities(g.Entities) {
		data.Entities = append(data.Entities, e.Name)
	}

	var prompt bytes.Buffer
	if err := groupingPrompt.Execute(&prompt, data); err != nil {
		return nil, fmt.Errorf("building grouping prompt: %w", err)
	}

	reply, err := ai.Chat(ctx, []ChatMessage{
		{Role: "system", Content: "You organize software documentation. You answer with JSON only."},
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("domain grouping: %w", err)
	}
	groups, err := parseGroups(reply)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("domain grouping: no groups returned")
	}
	return groups, nil
}

// parseGroups extracts the JSON array from an AI reply, tolerating code
// fences and surrounding prose.
func parseGroups(reply string) ([]Group, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("domain grouping: no JSON array in reply")
	}
	var raw []Group
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("domain grouping: decoding reply: %w", err)
	}
	var groups []Group
	for _, grp := range raw {
		grp.Name = strings.TrimSpace(grp.Name)
		grp.Components, grp.Services = nil, nil
		if grp.Name == "" || grp.empty() {
			continue
		}
		groups = append(groups, grp)
	}
	return groups, nil
}

var (
	handlerSuffixRe = regexp.MustCompile(`(Controller|Resource|Handler|Router|Routes|Endpoints?|Api|API|Resolver|Gateway|View|ViewSet)$`)
	versionSegRe    = regexp.MustCompile(`^v\d+$`)
)

// DataModelsGroup collects entities no backend group claimed.
const DataModelsGroup = "Data Models"

// heuristicBackendGroups clusters endpoints by handler class without its
// role suffix, or by first meaningful path segment, and attaches entities
// whose singular name matches a cluster.
func heuristicBackendGroups(g *analysis.Graph) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, grp := range groupEndpoints(g.Endpoints) {
		ep := grp.endpoints[0]
		name := domainFromHandler(ep.HandlerClass)
		if name == "" {
			name = domainFromPath(ep.Path)
		}
		if name == "" {
			name = domainFromPath(ep.FieldName)
		}
		if name == "" {
			name = "API"
		}
		key := singular(name)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Endpoints = append(groups[i].Endpoints, grp.key)
	}

	var leftovers []string
	for _, e := range uniqueEntities(g.Entities) {
		if i, ok := index[singular(e.Name)]; ok {
			groups[i].Entities = append(groups[i].Entities, e.Name)
			continue
		}
		leftovers = append(leftovers, e.Name)
	}
	if len(leftovers) > 0 {
		groups = append(groups, Group{Name: DataModelsGroup, Entities: leftovers})
	}
	return groups
}

// heuristicFrontendGroups clusters components and services by the parent
// directory of their source file.
func heuristicFrontendGroups(g *analysis.Graph) []Group {
	index := make(map[string]int)
	var groups []Group
	slot := func(file, fallback string) int {
		name := fallback
		if file != "" {
			if dir := filepath.Base(filepath.Dir(filepath.FromSlash(file))); dir != "." && dir != string(filepath.Separator) {
				name = titleWords(dir)
			}
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		return i
	}

	seen := make(map[string]bool)
	for _, c := range g.Components() {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		i := slot(c.FilePath, "Components")
		groups[i].Components = append(groups[i].Components, c.Name)
	}
	clear(seen)
	for _, s := range g.Services {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		i := slot(s.FilePath, "Services")
		groups[i].Services = append(groups[i].Services, s.Name)
	}
	return groups
}

func domainFromHandler(class string) string {
	if class == "" {
		return ""
	}
	name := handlerSuffixRe.ReplaceAllString(class, "")
	if name == "" {
		name = class
	}
	return name
}

func domainFromPath(p string) string {
	for _, seg := range strings.Split(p, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "api" || versionSegRe.MatchString(seg) || strings.ContainsAny(seg, "{}:") {
			continue
		}
		return titleWords(seg)
	}
	return ""
}

func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' || r == '.' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// singular normalizes a name for matching: lower case, spaces removed, and
// a simple English plural suffix dropped.
func singular(name string) string {
	s := strings.ToLower(strings.Join(strings.Fields(name), ""))
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "sses"), strings.HasSuffix(s, "xes"), strings.HasSuffix(s, "ches"), strings.HasSuffix(s, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}
