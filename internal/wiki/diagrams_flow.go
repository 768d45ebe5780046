package wiki

import (
	"fmt"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

type symbolCategory int

const (
	catHandler symbolCategory = iota
	catService
	catComponent
	catEntity
	catExternal
)

// categorize returns symbol names in display order (handlers, services,
// components, entities) with the category of each.
func categorize(g *analysis.Graph) ([]string, map[string]symbolCategory) {
	cats := make(map[string]symbolCategory)
	var order []string
	add := func(name string, c symbolCategory) {
		if name == "" {
			return
		}
		if _, ok := cats[name]; ok {
			return
		}
		cats[name] = c
		order = append(order, name)
	}
	for _, ep := range g.Endpoints {
		add(ep.HandlerClass, catHandler)
	}
	for _, s := range g.Services {
		add(s.Name, catService)
	}
	for _, t := range g.Components() {
		add(t.Name, catComponent)
	}
	for _, e := range g.Entities {
		add(e.Name, catEntity)
	}
	return order, cats
}

func flowNode(id, name string, c symbolCategory) string {
	switch c {
	case catEntity:
		return fmt.Sprintf("%s[(%s)]", id, quoted(name))
	case catService:
		return fmt.Sprintf("%s[[%s]]", id, quoted(name))
	case catHandler:
		return fmt.Sprintf("%s{{%s}}", id, quoted(name))
	case catExternal:
		return fmt.Sprintf("%s>%s]", id, quoted(name))
	}
	return fmt.Sprintf("%s[%s]", id, quoted(name))
}

func edgeDegrees(edges []analysis.DependencyEdge) map[string]int {
	degree := make(map[string]int)
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		degree[e.Source]++
		degree[e.Target]++
	}
	return degree
}

// renderFlowchart draws every known symbol and the dependency edges among
// them.
func renderFlowchart(g *analysis.Graph, opts DiagramOptions) Diagram {
	order, cats := categorize(g)
	edges := g.DependencyEdges()
	degree := edgeDegrees(edges)

	candidates := order
	if opts.Focus != "" {
		candidates = []string{opts.Focus}
		for _, e := range edges {
			if _, ok := cats[e.Source]; !ok {
				continue
			}
			if _, ok := cats[e.Target]; !ok {
				continue
			}
			if e.Source == opts.Focus {
				candidates = append(candidates, e.Target)
			} else if e.Target == opts.Focus {
				candidates = append(candidates, e.Source)
			}
		}
	}

	selected, total := selectNodes(candidates, degree, opts.MostConnectedFirst, opts.MaxNodes)
	keep := inSet(selected)
	ids := newNodeIDs()

	var b strings.Builder
	b.WriteString("flowchart LR\n")
	for _, name := range selected {
		c, ok := cats[name]
		if !ok {
			c = catExternal
		}
		fmt.Fprintf(&b, "    %s\n", flowNode(ids.get(name), name, c))
	}

	seen := edgeSet{}
	edgeCount := 0
	for _, e := range edges {
		if !keep[e.Source] || !keep[e.Target] {
			continue
		}
		src, dst := ids.get(e.Source), ids.get(e.Target)
		if !seen.add(src, dst) {
			continue
		}
		fmt.Fprintf(&b, "    %s --> %s\n", src, dst)
		edgeCount++
	}

	return Diagram{
		Title:     "System Flow",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "symbols",
	}
}

// renderDependency draws dependency edges labelled by kind. Unlike the other
// kinds it keeps targets that are not documented symbols, such as external
// libraries.
func renderDependency(g *analysis.Graph, opts DiagramOptions) Diagram {
	edges := g.DependencyEdges()
	degree := edgeDegrees(edges)
	_, cats := categorize(g)

	var candidates []string
	if opts.Focus != "" {
		candidates = append(candidates, opts.Focus)
	}
	for _, e := range edges {
		if opts.Focus != "" && e.Source != opts.Focus && e.Target != opts.Focus {
			continue
		}
		candidates = append(candidates, e.Source, e.Target)
	}

	selected, total := selectNodes(candidates, degree, opts.MostConnectedFirst, opts.MaxNodes)
	keep := inSet(selected)
	ids := newNodeIDs()

	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, name := range selected {
		c, ok := cats[name]
		if !ok {
			c = catExternal
		}
		fmt.Fprintf(&b, "    %s\n", flowNode(ids.get(name), name, c))
	}

	seen := edgeSet{}
	edgeCount := 0
	for _, e := range edges {
		if !keep[e.Source] || !keep[e.Target] {
			continue
		}
		src, dst := ids.get(e.Source), ids.get(e.Target)
		if !seen.add(src, dst) {
			continue
		}
		if e.Kind == "" {
			fmt.Fprintf(&b, "    %s --> %s\n", src, dst)
		} else {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", src, SanitizeLabel(string(e.Kind)), dst)
		}
		edgeCount++
	}

	return Diagram{
		Title:     "Dependencies",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "symbols",
	}
}

// renderAPIFlow draws each endpoint flowing into its handler and, when
// referenced, the backing service.
func renderAPIFlow(g *analysis.Graph, opts DiagramOptions) Diagram {
	byLocator := make(map[string]analysis.Endpoint)
	var locators []string
	for _, ep := range g.Endpoints {
		if opts.Focus != "" && ep.HandlerClass != opts.Focus {
			continue
		}
		loc := ep.Locator()
		if _, ok := byLocator[loc]; !ok {
			byLocator[loc] = ep
			locators = append(locators, loc)
		}
	}

	selected, total := selectNodes(locators, nil, false, opts.MaxNodes)
	ids := newNodeIDs()
	seen := edgeSet{}
	declared := make(map[string]bool)

	var b strings.Builder
	b.WriteString("flowchart LR\n")
	declare := func(key, node string) string {
		id := ids.get(key)
		if !declared[id] {
			declared[id] = true
			fmt.Fprintf(&b, "    %s\n", node)
		}
		return id
	}

	edgeCount := 0
	for _, loc := range selected {
		ep := byLocator[loc]
		epID := declare("endpoint:"+loc, fmt.Sprintf("%s([%s])", ids.get("endpoint:"+loc), quoted(loc)))

		handler := handlerName(ep)
		hID := declare(handler, flowNode(ids.get(handler), handler, catHandler))
		if seen.add(epID, hID) {
			fmt.Fprintf(&b, "    %s --> %s\n", epID, hID)
			edgeCount++
		}
		if ep.ServiceRef == "" {
			continue
		}
		sID := declare(ep.ServiceRef, flowNode(ids.get(ep.ServiceRef), ep.ServiceRef, catService))
		if seen.add(hID, sID) {
			fmt.Fprintf(&b, "    %s --> %s\n", hID, sID)
			edgeCount++
		}
	}

	return Diagram{
		Title:     "API Flow",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "endpoints",
	}
}

func handlerName(ep analysis.Endpoint) string {
	switch {
	case ep.HandlerClass != "":
		return ep.HandlerClass
	case ep.Handler != "":
		return ep.Handler
	}
	return string(ep.Protocol) + " api"
}

// renderArchitecture lays symbols out in client, API, service and data
// tiers. Only edges backed by endpoint, serviceRef or dependency data are
// drawn.
func renderArchitecture(g *analysis.Graph, opts DiagramOptions) Diagram {
	var handlers, services, entities []string
	handlerSet := make(map[string]bool)
	serviceSet := make(map[string]bool)
	entitySet := make(map[string]bool)
	for _, ep := range g.Endpoints {
		if ep.HandlerClass != "" && !handlerSet[ep.HandlerClass] {
			handlerSet[ep.HandlerClass] = true
			handlers = append(handlers, ep.HandlerClass)
		}
	}
	for _, s := range g.Services {
		if !serviceSet[s.Name] {
			serviceSet[s.Name] = true
			services = append(services, s.Name)
		}
	}
	for _, e := range g.Entities {
		if !entitySet[e.Name] {
			entitySet[e.Name] = true
			entities = append(entities, e.Name)
		}
	}

	type link struct{ from, to string }
	var links []link
	for _, ep := range g.Endpoints {
		if ep.HandlerClass != "" && serviceSet[ep.ServiceRef] {
			links = append(links, link{ep.HandlerClass, ep.ServiceRef})
		}
	}
	for _, e := range g.DependencyEdges() {
		switch {
		case handlerSet[e.Source] && serviceSet[e.Target]:
			links = append(links, link{e.Source, e.Target})
		case serviceSet[e.Source] && entitySet[e.Target]:
			links = append(links, link{e.Source, e.Target})
		}
	}

	degree := make(map[string]int)
	for _, l := range links {
		degree[l.from]++
		degree[l.to]++
	}

	candidates := append(append(append([]string{}, handlers...), services...), entities...)
	selected, total := selectNodes(candidates, degree, opts.MostConnectedFirst, opts.MaxNodes)
	keep := inSet(selected)

	ids := newNodeIDs()
	clientID := ids.reserved("client", "Client")

	var b strings.Builder
	b.WriteString("flowchart TB\n")
	tier := func(key, label string, names []string, c symbolCategory) {
		var members []string
		for _, n := range names {
			if keep[n] {
				members = append(members, n)
			}
		}
		if len(members) == 0 {
			return
		}
		fmt.Fprintf(&b, "    subgraph %s[%s]\n", ids.reserved(key, key), quoted(label))
		for _, n := range members {
			fmt.Fprintf(&b, "        %s\n", flowNode(ids.get(n), n, c))
		}
		b.WriteString("    end\n")
	}

	hasHandlers := false
	for _, h := range handlers {
		if keep[h] {
			hasHandlers = true
			break
		}
	}
	if hasHandlers {
		fmt.Fprintf(&b, "    subgraph %s[%s]\n", ids.reserved("tier:client", "tier:client"), quoted("Client"))
		fmt.Fprintf(&b, "        %s[%s]\n", clientID, quoted("Client"))
		b.WriteString("    end\n")
	}
	tier("tier:api", "API", handlers, catHandler)
	tier("tier:services", "Services", services, catService)
	tier("tier:data", "Data", entities, catEntity)

	seen := edgeSet{}
	edgeCount := 0
	for _, h := range handlers {
		if keep[h] && seen.add(clientID, ids.get(h)) {
			fmt.Fprintf(&b, "    %s --> %s\n", clientID, ids.get(h))
			edgeCount++
		}
	}
	for _, l := range links {
		if !keep[l.from] || !keep[l.to] {
			continue
		}
		src, dst := ids.get(l.from), ids.get(l.to)
		if seen.add(src, dst) {
			fmt.Fprintf(&b, "    %s --> %s\n", src, dst)
			edgeCount++
		}
	}

	return Diagram{
		Title:     "Architecture Overview",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "symbols",
	}
}
