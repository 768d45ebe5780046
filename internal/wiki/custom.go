package wiki

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CustomPage is a hand-written markdown page attached to a custom section.
type CustomPage struct {
	SectionID   string
	RelPath     string
	Title       string
	Description string
	Tags        []string
	Position    int
	HasPosition bool
	Body        string
}

// LoadCustomPages reads every .md and .mdx file under dir. A missing
// directory yields no pages and a warning; unreadable files are skipped.
func LoadCustomPages(ctx context.Context, dir, sectionID string, logf func(string, ...any)) ([]CustomPage, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logf("WARNING: custom section %q: directory %s not found, no pages loaded", sectionID, dir)
		return nil, nil
	}
	if err != nil {
		logf("WARNING: custom section %q: %v", sectionID, err)
		return nil, nil
	}
	if !info.IsDir() {
		logf("WARNING: custom section %q: %s is not a directory", sectionID, dir)
		return nil, nil
	}

	var pages []CustomPage
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logf("WARNING: custom section %q: %v", sectionID, walkErr)
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		page, err := readCustomPage(path)
		if err != nil {
			logf("WARNING: custom page %s: %v", path, err)
			return nil
		}
		page.SectionID = sectionID
		page.RelPath = filepath.ToSlash(rel)
		if page.Title == "" {
			page.Title = titleFromFile(rel)
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading custom pages from %s: %w", dir, err)
	}
	return pages, nil
}

func readCustomPage(path string) (CustomPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CustomPage{}, err
	}
	fm, body, err := parseFrontmatter(string(data))
	if err != nil {
		return CustomPage{}, err
	}
	page := CustomPage{
		Title:       fm.Title,
		Description: fm.Description,
		Tags:        fm.Tags,
		Body:        body,
	}
	if fm.SidebarPosition != nil {
		page.Position = *fm.SidebarPosition
		page.HasPosition = true
	}
	if page.Title == "" {
		page.Title = firstHeading(body)
	}
	return page, nil
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func titleFromFile(rel string) string {
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return UnnamedLabel
	}
	return strings.Join(words, " ")
}

func (s *synthesizer) customFor(sec Section) []CustomPage {
	var out []CustomPage
	for _, cp := range s.opts.CustomPages {
		if cp.SectionID == sec.ID {
			out = append(out, cp)
		}
	}
	return out
}

func (s *synthesizer) emitCustom(sec Section) {
	for i, cp := range s.customFor(sec) {
		pos := detailPosition(positionCustom, i)
		if cp.HasPosition {
			pos = cp.Position
		}
		s.add(draft{
			path:        CustomPagePath(sec.ID, cp.RelPath),
			title:       cp.Title,
			description: cp.Description,
			tags:        cp.Tags,
			body:        cp.Body,
			position:    pos,
		})
	}
}
