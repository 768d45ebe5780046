package wiki

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

// Sidebar position bases per page family. Families are positionStride
// apart and detail pages sit at detailPosition(base, i).
const (
	positionOverview     = 1
	positionEndpoints    = 1 * positionStride
	positionEntities     = 2 * positionStride
	positionComponents   = 3 * positionStride
	positionServices     = 4 * positionStride
	positionCustom       = 5 * positionStride
	positionArchitecture = 9 * positionStride
	positionChangelog    = 10*positionStride - 1

	positionStride = 10000
)

// detailPosition places the i-th detail page after its family's catalog.
// Past the stride the position saturates so it never reaches the next
// family; the stable sort keeps such pages in emission order.
func detailPosition(base, i int) int {
	return base + 1 + min(i, positionStride-2)
}

// Detail pages skip their focused diagram past these fan-outs.
const (
	maxServiceDiagramDeps     = 10
	maxComponentDiagramDegree = 10
)

// SynthesisOptions configures page synthesis.
type SynthesisOptions struct {
	Sections    []Section
	Overrides   map[string]Override
	CustomPages []CustomPage
	Logf        func(format string, args ...any)
}

// DefaultSections is used when no sections are configured.
func DefaultSections() []Section {
	return []Section{{ID: "overview", Label: "Overview", Type: SectionAuto}}
}

// draft is a page before overrides and frontmatter are applied.
type draft struct {
	path        string
	title       string
	description string
	body        string
	position    int
	tags        []string
}

type synthesizer struct {
	g          *analysis.Graph
	x          XRefIndex
	opts       SynthesisOptions
	exists     map[string]bool
	collisions map[string][]string
	drafts     []draft
}

// Synthesize produces the page set for a graph. Pages are unique by path;
// when a path is produced twice the later content wins.
func Synthesize(g *analysis.Graph, opts SynthesisOptions) []Page {
	if len(opts.Sections) == 0 {
		opts.Sections = DefaultSections()
	}
	s := &synthesizer{
		g:          g,
		x:          BuildXRefIndex(g),
		opts:       opts,
		collisions: g.Collisions(),
	}
	for name, files := range s.collisions {
		s.logf("WARNING: %s is defined in multiple files: %s", name, strings.Join(files, ", "))
	}
	s.exists = s.plannedPaths()

	s.emitOverview()
	for _, sec := range opts.Sections {
		s.emitSection(sec)
	}
	return s.finalize()
}

func (s *synthesizer) logf(format string, args ...any) {
	if s.opts.Logf != nil {
		s.opts.Logf(format, args...)
	}
}

// available reports whether a section type has anything to document.
func (s *synthesizer) available(t SectionType) bool {
	switch t {
	case SectionEndpoints:
		return len(s.g.Endpoints) > 0
	case SectionEntities:
		return len(s.g.Entities) > 0
	case SectionComponents:
		return len(s.g.Components()) > 0
	case SectionServices:
		return len(s.g.Services) > 0
	case SectionArchitecture:
		return !s.g.IsEmpty()
	case SectionChangelog:
		return len(s.g.Changelog) > 0
	}
	return false
}

var autoSectionOrder = []SectionType{
	SectionEndpoints, SectionEntities, SectionComponents,
	SectionServices, SectionArchitecture, SectionChangelog,
}

// expand resolves auto sections to the concrete types they stand for.
func (s *synthesizer) expand(sec Section) []SectionType {
	if sec.Type != SectionAuto {
		return []SectionType{sec.Type}
	}
	var out []SectionType
	for _, t := range autoSectionOrder {
		if s.available(t) {
			out = append(out, t)
		}
	}
	return out
}

// plannedPaths lists every page this run will produce so that links never
// point at a missing page.
func (s *synthesizer) plannedPaths() map[string]bool {
	paths := map[string]bool{OverviewPath: true}
	for _, sec := range s.opts.Sections {
		for _, t := range s.expand(sec) {
			if t == SectionCustom {
				for _, cp := range s.customFor(sec) {
					paths[CustomPagePath(sec.ID, cp.RelPath)] = true
				}
				continue
			}
			if !s.available(t) {
				continue
			}
			switch t {
			case SectionEndpoints:
				paths[CatalogPath(EndpointsDir)] = true
				for _, ep := range s.g.Endpoints {
					paths[EndpointPagePath(ep)] = true
				}
			case SectionEntities:
				paths[CatalogPath(EntitiesDir)] = true
				for _, e := range s.g.Entities {
					paths[EntityPagePath(e.Name)] = true
				}
			case SectionComponents:
				paths[CatalogPath(ComponentsDir)] = true
				for _, c := range s.g.Components() {
					paths[ComponentPagePath(c.Name)] = true
				}
			case SectionServices:
				paths[CatalogPath(ServicesDir)] = true
				for _, svc := range s.g.Services {
					paths[ServicePagePath(svc.Name)] = true
				}
			case SectionArchitecture:
				paths[ArchitecturePath] = true
			case SectionChangelog:
				paths[ChangelogPath] = true
			}
		}
	}
	return paths
}

func (s *synthesizer) emitSection(sec Section) {
	for _, t := range s.expand(sec) {
		if t != SectionCustom && !s.available(t) {
			continue
		}
		switch t {
		case SectionEndpoints:
			s.emitEndpoints()
		case SectionEntities:
			s.emitEntities()
		case SectionComponents:
			s.emitComponents()
		case SectionServices:
			s.emitServices()
		case SectionArchitecture:
			s.emitArchitecture()
		case SectionChangelog:
			s.emitChangelog()
		case SectionCustom:
			s.emitCustom(sec)
		}
	}
}

func (s *synthesizer) add(d draft) {
	s.drafts = append(s.drafts, d)
}

// finalize collapses drafts by path (last wins, first slot kept), applies
// overrides and prepends frontmatter.
func (s *synthesizer) finalize() []Page {
	index := make(map[string]int)
	var unique []draft
	for _, d := range s.drafts {
		if i, ok := index[d.path]; ok {
			unique[i] = d
			continue
		}
		index[d.path] = len(unique)
		unique = append(unique, d)
	}

	pages := make([]Page, 0, len(unique))
	for _, d := range unique {
		fm := Frontmatter{
			Title:           d.title,
			Description:     d.description,
			Tags:            d.tags,
			SidebarPosition: d.position,
			PageID:          PageID(d.path),
		}
		if ov, ok := lookupOverride(s.opts.Overrides, d.path); ok {
			applyOverride(&fm, ov)
		}
		header, err := fm.Render()
		if err != nil {
			s.logf("WARNING: skipping page %s: %v", d.path, err)
			continue
		}
		pages = append(pages, Page{
			Path:            d.path,
			Title:           fm.Title,
			Content:         header + d.body,
			Meta:            fm,
			SidebarPosition: d.position,
		})
	}
	return pages
}

func lookupOverride(overrides map[string]Override, pagePath string) (Override, bool) {
	if ov, ok := overrides[pagePath]; ok {
		return ov, true
	}
	ov, ok := overrides["/"+pagePath]
	return ov, ok
}

func applyOverride(fm *Frontmatter, ov Override) {
	if ov.Title != "" {
		fm.Title = ov.Title
	}
	if ov.Description != "" {
		fm.Description = ov.Description
	}
	if len(ov.Tags) > 0 {
		fm.Tags = ov.Tags
	}
	if len(ov.Keywords) > 0 {
		fm.Keywords = ov.Keywords
	}
	if ov.Image != "" {
		fm.Image = ov.Image
	}
	if ov.SidebarLabel != "" {
		fm.SidebarLabel = ov.SidebarLabel
	}
}

// link renders a relative markdown link when the target page exists in this
// run and plain escaped text otherwise.
func (s *synthesizer) link(from, to, text string) string {
	if !s.exists[to] {
		return escapeCell(text)
	}
	return fmt.Sprintf("[%s](%s)", escapeCell(text), relPath(from, to))
}

func relPath(from, to string) string {
	rel, err := filepath.Rel(filepath.Dir(filepath.FromSlash(from)), filepath.FromSlash(to))
	if err != nil {
		return to
	}
	return filepath.ToSlash(rel)
}

// symbolPage returns the detail page documenting name, if any category owns
// it.
func (s *synthesizer) symbolPage(name string) string {
	for _, p := range []string{EntityPagePath(name), ServicePagePath(name), ComponentPagePath(name)} {
		if s.exists[p] && s.ownsPage(name, p) {
			return p
		}
	}
	for _, ep := range s.g.Endpoints {
		if ep.HandlerClass == name && s.exists[EndpointPagePath(ep)] {
			return EndpointPagePath(ep)
		}
	}
	return ""
}

func (s *synthesizer) ownsPage(name, p string) bool {
	switch {
	case strings.HasPrefix(p, EntitiesDir+"/"):
		for _, e := range s.g.Entities {
			if e.Name == name {
				return true
			}
		}
	case strings.HasPrefix(p, ServicesDir+"/"):
		for _, svc := range s.g.Services {
			if svc.Name == name {
				return true
			}
		}
	case strings.HasPrefix(p, ComponentsDir+"/"):
		for _, c := range s.g.Components() {
			if c.Name == name {
				return true
			}
		}
	}
	return false
}

func (s *synthesizer) symbolLink(from, name string) string {
	if p := s.symbolPage(name); p != "" && p != from {
		return s.link(from, p, name)
	}
	return "`" + strings.ReplaceAll(name, "`", "'") + "`"
}

func (s *synthesizer) symbolList(b *strings.Builder, from string, names []string) {
	for _, n := range names {
		fmt.Fprintf(b, "- %s\n", s.symbolLink(from, n))
	}
	b.WriteString("\n")
}

func (s *synthesizer) diagram(b *strings.Builder, kind DiagramKind, opts DiagramOptions) {
	d, err := RenderDiagram(kind, s.g, s.x, opts)
	if err != nil {
		s.logf("WARNING: %s diagram: %v", kind, err)
		return
	}
	if d.NodeCount == 0 {
		return
	}
	writeMermaidBlock(b, d)
}

func (s *synthesizer) collisionNote(b *strings.Builder, name string) {
	files, ok := s.collisions[name]
	if !ok {
		return
	}
	fmt.Fprintf(b, ":::note Defined in multiple files\n\n`%s` is defined in: %s. Cross references are merged by name.\n\n:::\n\n",
		name, strings.Join(quoteAll(files), ", "))
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "`" + it + "`"
	}
	return out
}

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"\r\n", " ",
	"\n", " ",
)

// escapeCell makes text safe inside a markdown table cell.
func escapeCell(s string) string {
	return cellEscaper.Replace(sanitizeMarkdown(s))
}

// sanitizeMarkdown escapes HTML-significant characters from analysis text so
// generic types such as List<Post> survive MDX rendering.
func sanitizeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (s *synthesizer) emitOverview() {
	g := s.g
	title := g.Metadata.ProjectName
	if title == "" {
		title = "Project Overview"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sanitizeMarkdown(title))
	if len(g.Metadata.Parsers) > 0 {
		fmt.Fprintf(&b, "Documentation generated from analyses produced by %s.\n\n", strings.Join(quoteAll(g.Metadata.Parsers), ", "))
	}

	b.WriteString("| Category | Count |\n|---|---|\n")
	rows := []struct {
		label string
		count int
		path  string
	}{
		{"Endpoints", g.Summary.Endpoints, CatalogPath(EndpointsDir)},
		{"Entities", g.Summary.Entities, CatalogPath(EntitiesDir)},
		{"Components", len(g.Components()), CatalogPath(ComponentsDir)},
		{"Services", g.Summary.Services, CatalogPath(ServicesDir)},
		{"Types", g.Summary.Types, ""},
		{"Source files", g.Summary.Files, ""},
	}
	for _, r := range rows {
		label := r.label
		if r.path != "" {
			label = s.link(OverviewPath, r.path, r.label)
		}
		fmt.Fprintf(&b, "| %s | %d |\n", label, r.count)
	}
	b.WriteString("\n")

	if s.exists[ArchitecturePath] {
		fmt.Fprintf(&b, "See the %s for how the pieces fit together.\n\n", s.link(OverviewPath, ArchitecturePath, "architecture overview"))
	}

	s.add(draft{
		path:        OverviewPath,
		title:       title,
		description: "Overview of " + title,
		body:        b.String(),
		position:    positionOverview,
	})
}

func (s *synthesizer) emitArchitecture() {
	g := s.g
	var b strings.Builder
	b.WriteString("# Architecture\n\n")
	fmt.Fprintf(&b, "The system exposes %d endpoints backed by %d services and %d entities.\n\n",
		g.Summary.Endpoints, g.Summary.Services, g.Summary.Entities)

	s.diagram(&b, DiagramArchitecture, DiagramOptions{MostConnectedFirst: true})
	if len(g.Endpoints) > 0 {
		s.diagram(&b, DiagramSequence, DiagramOptions{})
	}
	if len(g.DependencyEdges()) > 0 {
		s.diagram(&b, DiagramFlowchart, DiagramOptions{MostConnectedFirst: true})
	}

	s.add(draft{
		path:        ArchitecturePath,
		title:       "Architecture",
		description: "How endpoints, services and data fit together",
		body:        b.String(),
		position:    positionArchitecture,
	})
}

func (s *synthesizer) emitChangelog() {
	var b strings.Builder
	b.WriteString("# Changelog\n\n")
	for _, c := range s.g.Changelog {
		heading := sanitizeMarkdown(c.Version)
		if c.Date != "" {
			heading += " - " + sanitizeMarkdown(c.Date)
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		for _, ch := range c.Changes {
			fmt.Fprintf(&b, "- %s\n", sanitizeMarkdown(ch))
		}
		b.WriteString("\n")
	}
	s.add(draft{
		path:     ChangelogPath,
		title:    "Changelog",
		body:     b.String(),
		position: positionChangelog,
	})
}
