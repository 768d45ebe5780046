package wiki

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChatMessage is one role/content turn sent to an AI capability.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIChat abstracts the AI capability used for domain grouping and
// enrichment. A failed call degrades the feature, never the run.
type AIChat interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

// SectionType selects which page set a section emits.
type SectionType string

const (
	SectionAuto         SectionType = "auto"
	SectionEndpoints    SectionType = "endpoints"
	SectionEntities     SectionType = "entities"
	SectionComponents   SectionType = "components"
	SectionServices     SectionType = "services"
	SectionArchitecture SectionType = "architecture"
	SectionChangelog    SectionType = "changelog"
	SectionCustom       SectionType = "custom"
)

// Section is one configured documentation section.
type Section struct {
	ID    string      `toml:"id" json:"id"`
	Label string      `toml:"label" json:"label"`
	Type  SectionType `toml:"type" json:"type"`
	Dir   string      `toml:"dir,omitempty" json:"dir,omitempty"`
}

// Override replaces generated frontmatter fields for one page path.
type Override struct {
	Title        string   `toml:"title" json:"title,omitempty"`
	Description  string   `toml:"description" json:"description,omitempty"`
	Tags         []string `toml:"tags" json:"tags,omitempty"`
	Keywords     []string `toml:"keywords" json:"keywords,omitempty"`
	Image        string   `toml:"image" json:"image,omitempty"`
	SidebarLabel string   `toml:"sidebar_label" json:"sidebarLabel,omitempty"`
}

// Page is one generated document. Path is its identity; Content holds the
// complete markdown including frontmatter.
type Page struct {
	Path            string
	Title           string
	Content         string
	Meta            Frontmatter
	SidebarPosition int
}

// ID returns the page's stable external key.
func (p Page) ID() string {
	return PageID(p.Path)
}

// DefaultPosition orders navigation nodes that carry no explicit position.
const DefaultPosition = 999

// NavKind tags a navigation node.
type NavKind string

const (
	NavDoc      NavKind = "doc"
	NavCategory NavKind = "category"
)

// NavNode is a navigation tree entry: a doc leaf referencing a page id, or
// a category holding children.
type NavNode struct {
	Kind     NavKind
	Label    string
	PageID   string
	Children []NavNode
	Position int
}

// DocNode builds a doc leaf.
func DocNode(label, pageID string, position int) NavNode {
	return NavNode{Kind: NavDoc, Label: label, PageID: pageID, Position: position}
}

// CategoryNode builds a category.
func CategoryNode(label string, children []NavNode, position int) NavNode {
	return NavNode{Kind: NavCategory, Label: label, Children: children, Position: position}
}

type navDocJSON struct {
	Type     NavKind `json:"type"`
	Label    string  `json:"label"`
	ID       string  `json:"id"`
	Position int     `json:"position"`
}

type navCategoryJSON struct {
	Type     NavKind   `json:"type"`
	Label    string    `json:"label"`
	Items    []NavNode `json:"items"`
	Position int       `json:"position"`
}

// MarshalJSON emits {type, label, id, position} for docs and
// {type, label, items, position} for categories.
func (n NavNode) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NavDoc:
		return json.Marshal(navDocJSON{Type: NavDoc, Label: n.Label, ID: n.PageID, Position: n.Position})
	case NavCategory:
		items := n.Children
		if items == nil {
			items = []NavNode{}
		}
		return json.Marshal(navCategoryJSON{Type: NavCategory, Label: n.Label, Items: items, Position: n.Position})
	}
	return nil, fmt.Errorf("unknown nav node kind %q", n.Kind)
}

// UnmarshalJSON accepts the form produced by MarshalJSON.
func (n *NavNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     NavKind   `json:"type"`
		Label    string    `json:"label"`
		ID       string    `json:"id"`
		Items    []NavNode `json:"items"`
		Position *int      `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = NavNode{Kind: raw.Type, Label: raw.Label, PageID: raw.ID, Children: raw.Items, Position: DefaultPosition}
	if raw.Position != nil {
		n.Position = *raw.Position
	}
	return nil
}

// PageIDs returns every page id referenced under the given nodes, in tree
// order.
func PageIDs(nodes []NavNode) []string {
	var ids []string
	for _, n := range nodes {
		if n.Kind == NavDoc {
			ids = append(ids, n.PageID)
			continue
		}
		ids = append(ids, PageIDs(n.Children)...)
	}
	return ids
}
