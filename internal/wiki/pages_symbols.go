package wiki

import (
	"fmt"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

type endpointGroup struct {
	key       string
	path      string
	endpoints []analysis.Endpoint
}

// groupEndpoints collects endpoints by handler class in first-seen order.
// Endpoints of one class contributed by different analyses share a page.
func groupEndpoints(eps []analysis.Endpoint) []endpointGroup {
	index := make(map[string]int)
	var groups []endpointGroup
	for _, ep := range eps {
		p := EndpointPagePath(ep)
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, endpointGroup{key: EndpointGroupKey(ep), path: p})
		}
		groups[i].endpoints = append(groups[i].endpoints, ep)
	}
	return groups
}

func (s *synthesizer) emitEndpoints() {
	groups := groupEndpoints(s.g.Endpoints)
	catalog := CatalogPath(EndpointsDir)

	for i, grp := range groups {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", sanitizeMarkdown(grp.key))
		if f := grp.endpoints[0].FilePath; f != "" {
			fmt.Fprintf(&b, "Source: `%s`\n\n", f)
		}

		b.WriteString("| Endpoint | Handler | Returns | Service |\n|---|---|---|---|\n")
		for _, ep := range grp.endpoints {
			svc := "-"
			if ep.ServiceRef != "" {
				svc = s.symbolLink(grp.path, ep.ServiceRef)
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
				strings.ReplaceAll(ep.Locator(), "`", "'"), escapeCell(orDash(ep.Handler)), escapeCell(orDash(ep.ReturnType)), svc)
		}
		b.WriteString("\n")

		for _, ep := range grp.endpoints {
			fmt.Fprintf(&b, "## %s\n\n", sanitizeMarkdown(ep.Locator()))
			if ep.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", sanitizeMarkdown(ep.Description))
			}
			if len(ep.Params) > 0 {
				b.WriteString("| Parameter | Type | In | Required |\n|---|---|---|---|\n")
				for _, p := range ep.Params {
					fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
						escapeCell(p.Name), escapeCell(orDash(p.Type)), escapeCell(orDash(p.In)), yesNo(p.Required))
				}
				b.WriteString("\n")
			}
			if ep.ReturnType != "" {
				fmt.Fprintf(&b, "**Returns:** %s\n\n", s.symbolLink(grp.path, ep.ReturnType))
			}
		}

		if grp.endpoints[0].HandlerClass != "" {
			s.diagram(&b, DiagramSequence, DiagramOptions{Focus: grp.endpoints[0].HandlerClass})
		}

		s.add(draft{
			path:        grp.path,
			title:       grp.key,
			description: fmt.Sprintf("%d endpoints handled by %s", len(grp.endpoints), grp.key),
			body:        b.String(),
			position:    detailPosition(positionEndpoints, i),
			tags:        []string{"api"},
		})
	}

	var b strings.Builder
	b.WriteString("# API\n\n")
	fmt.Fprintf(&b, "%d endpoints across %d handlers.\n\n", len(s.g.Endpoints), len(groups))
	b.WriteString("| Handler | Endpoints | Protocols |\n|---|---|---|\n")
	for _, grp := range groups {
		protos := make(map[analysis.Protocol]bool)
		var list []string
		for _, ep := range grp.endpoints {
			if !protos[ep.Protocol] {
				protos[ep.Protocol] = true
				list = append(list, string(ep.Protocol))
			}
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", s.link(catalog, grp.path, grp.key), len(grp.endpoints), escapeCell(strings.Join(list, ", ")))
	}
	b.WriteString("\n")
	s.diagram(&b, DiagramAPIFlow, DiagramOptions{})

	s.add(draft{
		path:     catalog,
		title:    "API",
		body:     b.String(),
		position: positionEndpoints,
	})
}

func uniqueEntities(es []analysis.Entity) []analysis.Entity {
	seen := make(map[string]bool)
	var out []analysis.Entity
	for _, e := range es {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

func (s *synthesizer) emitEntities() {
	catalog := CatalogPath(EntitiesDir)
	entities := s.g.Entities

	for i, e := range entities {
		p := EntityPagePath(e.Name)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", sanitizeMarkdown(e.Name))
		s.collisionNote(&b, e.Name)
		if e.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", sanitizeMarkdown(e.Description))
		}
		if e.TableName != "" || e.StorageKind != "" {
			fmt.Fprintf(&b, "- **Table:** `%s`\n- **Storage:** %s\n", orDash(e.TableName), sanitizeMarkdown(orDash(e.StorageKind)))
			if e.FilePath != "" {
				fmt.Fprintf(&b, "- **Source:** `%s`\n", e.FilePath)
			}
			b.WriteString("\n")
		}

		if len(e.Columns) > 0 {
			b.WriteString("## Columns\n\n| Column | Type | Storage name | Nullable | Key |\n|---|---|---|---|---|\n")
			for _, c := range e.Columns {
				key := ""
				switch {
				case c.PrimaryKey:
					key = "🔑"
				case c.Unique:
					key = "unique"
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
					escapeCell(c.Name), escapeCell(orDash(c.Type)), escapeCell(orDash(c.StorageName)), yesNo(c.Nullable), key)
			}
			b.WriteString("\n")
		}

		if len(e.Relations) > 0 {
			b.WriteString("## Relations\n\n| Relation | Target | Join column | Mapped by | Fetch |\n|---|---|---|---|---|\n")
			for _, r := range e.Relations {
				fetch := "lazy"
				if r.Eager {
					fetch = "eager"
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
					escapeCell(orDash(string(r.Kind))), s.symbolLink(p, r.Target), escapeCell(orDash(r.JoinColumn)), escapeCell(orDash(r.MappedBy)), fetch)
			}
			b.WriteString("\n")
		}

		if len(e.Indexes) > 0 {
			b.WriteString("## Indexes\n\n| Name | Columns | Unique |\n|---|---|---|\n")
			for _, ix := range e.Indexes {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(orDash(ix.Name)), escapeCell(strings.Join(ix.Columns, ", ")), yesNo(ix.Unique))
			}
			b.WriteString("\n")
		}

		if users := s.x.Entities.UsedBy(e.Name); len(users) > 0 {
			b.WriteString("## Used By\n\n")
			s.symbolList(&b, p, users)
		}

		s.diagram(&b, DiagramER, DiagramOptions{Focus: e.Name})

		s.add(draft{
			path:        p,
			title:       e.Name,
			description: firstNonEmpty(e.Description, "Data model "+e.Name),
			body:        b.String(),
			position:    detailPosition(positionEntities, i),
			tags:        []string{"entity"},
		})
	}

	unique := uniqueEntities(entities)
	var b strings.Builder
	b.WriteString("# Data Models\n\n")
	fmt.Fprintf(&b, "%d entities.\n\n", len(unique))
	b.WriteString("| Entity | Table | Columns | Relations | Used by |\n|---|---|---|---|---|\n")
	for _, e := range unique {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n",
			s.link(catalog, EntityPagePath(e.Name), e.Name), escapeCell(orDash(e.TableName)),
			len(e.Columns), len(e.Relations), len(s.x.Entities.UsedBy(e.Name)))
	}
	b.WriteString("\n")
	s.diagram(&b, DiagramER, DiagramOptions{MostConnectedFirst: true})

	s.add(draft{
		path:     catalog,
		title:    "Data Models",
		body:     b.String(),
		position: positionEntities,
	})
}

func (s *synthesizer) emitComponents() {
	catalog := CatalogPath(ComponentsDir)
	components := s.g.Components()

	for i, c := range components {
		p := ComponentPagePath(c.Name)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", sanitizeMarkdown(c.Name))
		s.collisionNote(&b, c.Name)
		fmt.Fprintf(&b, "- **Kind:** %s\n", sanitizeMarkdown(string(c.Kind)))
		if c.FilePath != "" {
			fmt.Fprintf(&b, "- **Source:** `%s`\n", c.FilePath)
		}
		b.WriteString("\n")
		if c.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", sanitizeMarkdown(c.Description))
		}

		b.WriteString("## Props\n\n| Prop | Type | Required | Description |\n|---|---|---|---|\n")
		for _, f := range c.Fields {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(f.Name), escapeCell(orDash(f.Type)), yesNo(f.Required), escapeCell(orDash(f.Description)))
		}
		b.WriteString("\n")

		users := s.x.Components.UsedBy(c.Name)
		imports := s.x.Components.Imports(c.Name)
		if len(users) > 0 {
			b.WriteString("## Used By\n\n")
			s.symbolList(&b, p, users)
		}
		if len(imports) > 0 {
			b.WriteString("## Dependencies\n\n")
			s.symbolList(&b, p, imports)
		}
		if s.x.Components.Degree(c.Name) <= maxComponentDiagramDegree {
			s.diagram(&b, DiagramClass, DiagramOptions{Focus: c.Name})
		}

		s.add(draft{
			path:        p,
			title:       c.Name,
			description: firstNonEmpty(c.Description, fmt.Sprintf("%s %s", c.Kind, c.Name)),
			body:        b.String(),
			position:    detailPosition(positionComponents, i),
			tags:        []string{"component"},
		})
	}

	var b strings.Builder
	b.WriteString("# Components\n\n")
	b.WriteString("| Component | Kind | Props | Used by | Imports |\n|---|---|---|---|---|\n")
	seen := make(map[string]bool)
	for _, c := range components {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n",
			s.link(catalog, ComponentPagePath(c.Name), c.Name), escapeCell(string(c.Kind)), len(c.Fields),
			len(s.x.Components.UsedBy(c.Name)), len(s.x.Components.Imports(c.Name)))
	}
	b.WriteString("\n")

	s.add(draft{
		path:     catalog,
		title:    "Components",
		body:     b.String(),
		position: positionComponents,
	})
}

func (s *synthesizer) emitServices() {
	catalog := CatalogPath(ServicesDir)

	for i, svc := range s.g.Services {
		p := ServicePagePath(svc.Name)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", sanitizeMarkdown(svc.Name))
		s.collisionNote(&b, svc.Name)
		if svc.FilePath != "" {
			fmt.Fprintf(&b, "Source: `%s`\n\n", svc.FilePath)
		}
		if svc.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", sanitizeMarkdown(svc.Description))
		}

		if len(svc.Methods) > 0 {
			b.WriteString("## Methods\n\n")
			for _, m := range svc.Methods {
				fmt.Fprintf(&b, "- `%s`\n", strings.ReplaceAll(m, "`", "'"))
			}
			b.WriteString("\n")
		}
		if len(svc.Dependencies) > 0 {
			b.WriteString("## Dependencies\n\n")
			s.symbolList(&b, p, svc.Dependencies)
		}
		if users := s.x.Services.UsedBy(svc.Name); len(users) > 0 {
			b.WriteString("## Used By\n\n")
			s.symbolList(&b, p, users)
		}

		var served []string
		for _, ep := range s.g.Endpoints {
			if ep.ServiceRef == svc.Name {
				served = append(served, fmt.Sprintf("- %s `%s`\n", s.link(p, EndpointPagePath(ep), EndpointGroupKey(ep)), strings.ReplaceAll(ep.Locator(), "`", "'")))
			}
		}
		if len(served) > 0 {
			b.WriteString("## Endpoints\n\n")
			b.WriteString(strings.Join(served, ""))
			b.WriteString("\n")
		}

		if n := len(svc.Dependencies); n >= 1 && n <= maxServiceDiagramDeps {
			s.diagram(&b, DiagramDependency, DiagramOptions{Focus: svc.Name})
		}

		s.add(draft{
			path:        p,
			title:       svc.Name,
			description: firstNonEmpty(svc.Description, "Service "+svc.Name),
			body:        b.String(),
			position:    detailPosition(positionServices, i),
			tags:        []string{"service"},
		})
	}

	var b strings.Builder
	b.WriteString("# Services\n\n")
	b.WriteString("| Service | Methods | Dependencies | Used by |\n|---|---|---|---|\n")
	seen := make(map[string]bool)
	for _, svc := range s.g.Services {
		if seen[svc.Name] {
			continue
		}
		seen[svc.Name] = true
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n",
			s.link(catalog, ServicePagePath(svc.Name), svc.Name), len(svc.Methods), len(svc.Dependencies), len(s.x.Services.UsedBy(svc.Name)))
	}
	b.WriteString("\n")
	if len(s.g.DependencyEdges()) > 0 {
		s.diagram(&b, DiagramDependency, DiagramOptions{MostConnectedFirst: true})
	}

	s.add(draft{
		path:     catalog,
		title:    "Services",
		body:     b.String(),
		position: positionServices,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
