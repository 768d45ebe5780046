package wiki

import (
	"fmt"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

// renderER draws entities, their columns and their relations. Relation
// targets that are not entities of the graph still appear as bare nodes.
func renderER(g *analysis.Graph, opts DiagramOptions) Diagram {
	byName := make(map[string]analysis.Entity)
	degree := make(map[string]int)
	var order []string
	for _, e := range g.Entities {
		if _, ok := byName[e.Name]; !ok {
			byName[e.Name] = e
			order = append(order, e.Name)
		}
	}
	for _, name := range order {
		for _, r := range byName[name].Relations {
			degree[name]++
			degree[r.Target]++
		}
	}

	var candidates []string
	if opts.Focus != "" {
		candidates = append(candidates, opts.Focus)
		for _, r := range byName[opts.Focus].Relations {
			candidates = append(candidates, r.Target)
		}
		for _, name := range order {
			for _, r := range byName[name].Relations {
				if r.Target == opts.Focus {
					candidates = append(candidates, name)
				}
			}
		}
	} else {
		candidates = append(candidates, order...)
		for _, name := range order {
			for _, r := range byName[name].Relations {
				if _, isEntity := byName[r.Target]; !isEntity {
					candidates = append(candidates, r.Target)
				}
			}
		}
	}

	selected, total := selectNodes(candidates, degree, opts.MostConnectedFirst, opts.MaxNodes)
	keep := inSet(selected)
	ids := newNodeIDs()
	edges := edgeSet{}

	var b strings.Builder
	b.WriteString("erDiagram\n")
	for _, name := range selected {
		id := ids.get(name)
		e, ok := byName[name]
		if !ok || len(e.Columns) == 0 {
			fmt.Fprintf(&b, "    %s\n", id)
			continue
		}
		fmt.Fprintf(&b, "    %s {\n", id)
		for _, c := range e.Columns {
			fmt.Fprintf(&b, "        %s %s%s\n", erAttrType(c.Type), SanitizeNodeID(c.Name), columnKeys(c))
		}
		b.WriteString("    }\n")
	}

	edgeCount := 0
	for _, name := range selected {
		for _, r := range byName[name].Relations {
			if !keep[r.Target] {
				continue
			}
			src, dst := ids.get(name), ids.get(r.Target)
			if !edges.add(src, dst) {
				continue
			}
			fmt.Fprintf(&b, "    %s %s %s : %s\n", src, Cardinality(r.Kind), dst, quoted(relationLabel(r)))
			edgeCount++
		}
	}

	return Diagram{
		Title:     "Entity Relationships",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "entities",
	}
}

func erAttrType(t string) string {
	if t == "" {
		return "string"
	}
	return SanitizeNodeID(t)
}

func columnKeys(c analysis.Column) string {
	switch {
	case c.PrimaryKey:
		return " PK"
	case c.Unique:
		return " UK"
	}
	return ""
}

func relationLabel(r analysis.Relation) string {
	switch {
	case r.JoinColumn != "":
		return r.JoinColumn
	case r.MappedBy != "":
		return r.MappedBy
	case r.Kind != "":
		return string(r.Kind)
	}
	return "relates"
}

// renderClass draws type definitions with their fields and the
// inherit/implement/use edges between them.
func renderClass(g *analysis.Graph, x XRefIndex, opts DiagramOptions) Diagram {
	byName := make(map[string]analysis.TypeDef)
	var order []string
	for _, t := range g.Types {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
			order = append(order, t.Name)
		}
	}

	edges := g.DependencyEdges()
	degree := make(map[string]int)
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}

	var candidates []string
	if opts.Focus != "" {
		candidates = append(candidates, opts.Focus)
		candidates = append(candidates, x.Components.Neighbors(opts.Focus)...)
	} else {
		for _, name := range order {
			if analysis.IsComponent(byName[name]) {
				candidates = append(candidates, name)
			}
		}
	}

	selected, total := selectNodes(candidates, degree, opts.MostConnectedFirst, opts.MaxNodes)
	keep := inSet(selected)
	ids := newNodeIDs()

	var b strings.Builder
	b.WriteString("classDiagram\n")
	for _, name := range selected {
		id := ids.get(name)
		t, isType := byName[name]
		if !isType || len(t.Fields) == 0 {
			fmt.Fprintf(&b, "    class %s[%s]\n", id, quoted(name))
		} else {
			fmt.Fprintf(&b, "    class %s[%s] {\n", id, quoted(name))
			for _, f := range t.Fields {
				fmt.Fprintf(&b, "        +%s\n", memberLine(f))
			}
			b.WriteString("    }\n")
		}
		switch t.Kind {
		case analysis.KindInterface:
			fmt.Fprintf(&b, "    <<interface>> %s\n", id)
		case analysis.KindEnum:
			fmt.Fprintf(&b, "    <<enumeration>> %s\n", id)
		}
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
		switch e.Kind {
		case analysis.EdgeInherit:
			fmt.Fprintf(&b, "    %s <|-- %s\n", dst, src)
		case analysis.EdgeImplement:
			fmt.Fprintf(&b, "    %s <|.. %s\n", dst, src)
		default:
			fmt.Fprintf(&b, "    %s --> %s\n", src, dst)
		}
		edgeCount++
	}

	return Diagram{
		Title:     "Type Relationships",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: edgeCount,
		Total:     total,
		Unit:      "types",
	}
}

func memberLine(f analysis.Field) string {
	name := SanitizeLabel(f.Name)
	if f.Type == "" {
		return name
	}
	return SanitizeLabel(f.Type) + " " + name
}
