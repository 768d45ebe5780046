package wiki

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

// DiagramKind names a diagram renderer.
type DiagramKind string

const (
	DiagramER           DiagramKind = "er"
	DiagramClass        DiagramKind = "class"
	DiagramSequence     DiagramKind = "sequence"
	DiagramFlowchart    DiagramKind = "flowchart"
	DiagramArchitecture DiagramKind = "architecture"
	DiagramAPIFlow      DiagramKind = "api-flow"
	DiagramDependency   DiagramKind = "dependency"
)

// DiagramKinds lists every supported kind.
var DiagramKinds = []DiagramKind{
	DiagramER, DiagramClass, DiagramSequence, DiagramFlowchart,
	DiagramArchitecture, DiagramAPIFlow, DiagramDependency,
}

// ErrUnsupportedDiagram is returned for a kind outside DiagramKinds.
var ErrUnsupportedDiagram = errors.New("unsupported diagram kind")

// DefaultMaxNodes returns the node limit used when DiagramOptions.MaxNodes
// is zero.
func DefaultMaxNodes(kind DiagramKind) int {
	switch kind {
	case DiagramER:
		return 30
	case DiagramClass:
		return 20
	case DiagramSequence:
		return 10
	case DiagramFlowchart:
		return 30
	case DiagramArchitecture:
		return 40
	case DiagramAPIFlow:
		return 25
	case DiagramDependency:
		return 20
	}
	return 20
}

// DiagramOptions scopes and bounds a rendered diagram.
type DiagramOptions struct {
	MaxNodes int
	// Focus limits the diagram to one symbol and its direct neighbors.
	Focus string
	// MostConnectedFirst orders candidates by degree before truncation.
	MostConnectedFirst bool
}

// Diagram holds generated mermaid source. NodeCount and Total are measured
// in Unit (entities, endpoints, ...) and differ when the node limit truncated
// the candidate set.
type Diagram struct {
	Kind      DiagramKind
	Title     string
	Content   string
	NodeCount int
	EdgeCount int
	Total     int
	Unit      string
}

// Truncated reports whether candidates were dropped to fit the node limit.
func (d Diagram) Truncated() bool {
	return d.Total > d.NodeCount
}

// TruncationNote is the sentence placed under a truncated diagram.
func (d Diagram) TruncationNote() string {
	if !d.Truncated() {
		return ""
	}
	unit := d.Unit
	if unit == "" {
		unit = "nodes"
	}
	return fmt.Sprintf("Showing %d of %d %s.", d.NodeCount, d.Total, unit)
}

// RenderDiagram renders one diagram of the given kind from the graph.
func RenderDiagram(kind DiagramKind, g *analysis.Graph, x XRefIndex, opts DiagramOptions) (Diagram, error) {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes(kind)
	}

	var d Diagram
	switch kind {
	case DiagramER:
		d = renderER(g, opts)
	case DiagramClass:
		d = renderClass(g, x, opts)
	case DiagramSequence:
		d = renderSequence(g, opts)
	case DiagramFlowchart:
		d = renderFlowchart(g, opts)
	case DiagramArchitecture:
		d = renderArchitecture(g, opts)
	case DiagramAPIFlow:
		d = renderAPIFlow(g, opts)
	case DiagramDependency:
		d = renderDependency(g, opts)
	default:
		return Diagram{}, fmt.Errorf("%w: %s", ErrUnsupportedDiagram, kind)
	}
	d.Kind = kind
	return d, nil
}

// Cardinality maps a relation kind to mermaid ER notation.
func Cardinality(kind analysis.RelationKind) string {
	switch kind {
	case analysis.OneToOne:
		return "||--||"
	case analysis.OneToMany:
		return "||--o{"
	case analysis.ManyToOne:
		return "}o--||"
	case analysis.ManyToMany:
		return "}o--o{"
	}
	return "--"
}

var mermaidReserved = map[string]bool{
	"end": true, "graph": true, "subgraph": true, "flowchart": true,
	"class": true, "classdiagram": true, "style": true, "classdef": true,
	"click": true, "linkstyle": true, "direction": true, "participant": true,
	"actor": true, "loop": true, "alt": true, "else": true, "opt": true,
	"par": true, "and": true, "note": true, "rect": true, "critical": true,
	"break": true, "erdiagram": true, "sequencediagram": true, "call": true,
}

// nodeIDs assigns a stable mermaid identifier to each symbol name for the
// lifetime of one diagram. Names that sanitize to an identifier already in
// use, or to a reserved word, get a numeric suffix.
type nodeIDs struct {
	byName map[string]string
	taken  map[string]bool
}

func newNodeIDs() *nodeIDs {
	return &nodeIDs{byName: make(map[string]string), taken: make(map[string]bool)}
}

func (n *nodeIDs) get(name string) string {
	return n.assign(name, name)
}

// reserved returns the ID of a node the renderer adds itself, such as the
// Client participant. Its key lives apart from symbol names, so a symbol
// that is also called Client is given Client_1.
func (n *nodeIDs) reserved(key, display string) string {
	return n.assign("\x00"+key, display)
}

func (n *nodeIDs) assign(key, display string) string {
	if id, ok := n.byName[key]; ok {
		return id
	}
	base := SanitizeNodeID(display)
	id := base
	for i := 1; n.taken[id] || mermaidReserved[strings.ToLower(id)]; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	n.taken[id] = true
	n.byName[key] = id
	return id
}

// edgeSet drops self loops and repeated (source, target) pairs.
type edgeSet map[[2]string]bool

func (s edgeSet) add(src, dst string) bool {
	if src == dst {
		return false
	}
	key := [2]string{src, dst}
	if s[key] {
		return false
	}
	s[key] = true
	return true
}

// selectNodes orders candidate names and keeps the first limit of them.
// Duplicates are removed keeping the first occurrence.
func selectNodes(names []string, degree map[string]int, mostConnected bool, limit int) (selected []string, total int) {
	seen := make(map[string]bool, len(names))
	var uniq []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}
	if mostConnected {
		sort.SliceStable(uniq, func(i, j int) bool { return degree[uniq[i]] > degree[uniq[j]] })
	}
	total = len(uniq)
	if len(uniq) > limit {
		uniq = uniq[:limit]
	}
	return uniq, total
}

func inSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func quoted(label string) string {
	return `"` + SanitizeLabel(label) + `"`
}

// writeMermaidBlock appends a fenced mermaid code block for a diagram,
// followed by the truncation note when the node limit was hit.
func writeMermaidBlock(b *strings.Builder, d Diagram) {
	if d.Title != "" {
		fmt.Fprintf(b, "### %s\n\n", d.Title)
	}
	b.WriteString("```mermaid\n")
	b.WriteString(d.Content)
	if !strings.HasSuffix(d.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	if note := d.TruncationNote(); note != "" {
		fmt.Fprintf(b, "_%s_\n\n", note)
	}
}
