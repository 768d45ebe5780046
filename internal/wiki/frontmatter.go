package wiki

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML block prepended to every generated page. Field
// order here is the emitted key order.
type Frontmatter struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description,omitempty"`
	Tags            []string `yaml:"tags,omitempty"`
	Keywords        []string `yaml:"keywords,omitempty"`
	Image           string   `yaml:"image,omitempty"`
	SidebarLabel    string   `yaml:"sidebar_label,omitempty"`
	SidebarPosition int      `yaml:"sidebar_position"`
	PageID          string   `yaml:"page_id"`
}

// Render encodes the frontmatter between --- delimiters.
func (f Frontmatter) Render() (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return "---\n" + b.String() + "---\n\n", nil
}

// customFields are the frontmatter keys honoured on hand-written pages.
type customFields struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Tags            []string `yaml:"tags"`
	SidebarPosition *int     `yaml:"sidebar_position"`
}

// parseFrontmatter splits a markdown document into its optional YAML header
// and body. A document without a leading --- line has no header.
func parseFrontmatter(raw string) (customFields, string, error) {
	var fm customFields
	block, body, err := splitFrontmatter(raw)
	if err != nil {
		return fm, raw, err
	}
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, raw, fmt.Errorf("parse frontmatter YAML: %w", err)
	}
	return fm, body, nil
}

// ParsePage reads back a generated page into its frontmatter and body.
func ParsePage(raw string) (Frontmatter, string, error) {
	var fm Frontmatter
	block, body, err := splitFrontmatter(raw)
	if err != nil {
		return fm, raw, err
	}
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, raw, fmt.Errorf("parse frontmatter YAML: %w", err)
	}
	return fm, body, nil
}

func splitFrontmatter(raw string) (block, body string, err error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	if !strings.HasPrefix(raw, "---\n") && !strings.HasPrefix(raw, "---\r\n") {
		return "", raw, nil
	}

	rest := raw[strings.Index(raw, "\n")+1:]
	offset := 0
	for _, line := range strings.SplitAfter(rest, "\n") {
		if strings.TrimRight(line, "\r\n") == "---" {
			return rest[:offset], strings.TrimLeft(rest[offset+len(line):], "\r\n"), nil
		}
		offset += len(line)
	}
	return "", raw, fmt.Errorf("missing closing frontmatter delimiter")
}
