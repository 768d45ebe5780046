package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"
)

// NavigationFile is the serialized navigation tree written next to the
// pages in every format.
const NavigationFile = "navigation.json"

// Supported site formats.
const (
	FormatRawMarkdown = "raw-md"
	FormatHugo        = "hugo"
	FormatDocusaurus  = "docusaurus"
)

// RendererConfig controls how the site renderer writes output files.
type RendererConfig struct {
	Format      string // "raw-md", "hugo", or "docusaurus"
	OutputDir   string // root output directory
	Title       string
	Concurrency int
}

// DefaultRendererConfig returns a RendererConfig with sensible defaults.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Format:      FormatDocusaurus,
		OutputDir:   "site",
		Concurrency: 8,
	}
}

// Render writes pages and the navigation tree to disk in the configured
// format.
func Render(ctx context.Context, pages []Page, nav []NavNode, cfg RendererConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Project Documentation"
	}
	switch cfg.Format {
	case FormatRawMarkdown:
		return renderRawMarkdown(ctx, pages, nav, cfg)
	case FormatHugo:
		return renderHugo(ctx, pages, nav, cfg)
	case FormatDocusaurus:
		return renderDocusaurus(ctx, pages, nav, cfg)
	default:
		return fmt.Errorf("unsupported render format: %s", cfg.Format)
	}
}

// writePages writes every page under root in parallel. mapPath may rename
// a page's relative path for the target format.
func writePages(ctx context.Context, pages []Page, root string, concurrency int, mapPath func(string) string) error {
	if concurrency <= 0 {
		concurrency = 8
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel := p.Path
			if mapPath != nil {
				rel = mapPath(rel)
			}
			return writeDoc(filepath.Join(root, filepath.FromSlash(rel)), p.Content)
		})
	}
	return g.Wait()
}

func writeNavigation(path string, nav []NavNode) error {
	if nav == nil {
		nav = []NavNode{}
	}
	data, err := json.MarshalIndent(nav, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding navigation: %w", err)
	}
	return writeDoc(path, string(data)+"\n")
}

// renderRawMarkdown writes each page as-is under OutputDir.
func renderRawMarkdown(ctx context.Context, pages []Page, nav []NavNode, cfg RendererConfig) error {
	if err := writePages(ctx, pages, cfg.OutputDir, cfg.Concurrency, nil); err != nil {
		return err
	}
	return writeNavigation(filepath.Join(cfg.OutputDir, NavigationFile), nav)
}

type hugoConfig struct {
	BaseURL      string            `toml:"baseURL"`
	LanguageCode string            `toml:"languageCode"`
	Title        string            `toml:"title"`
	Theme        string            `toml:"theme"`
	Markup       hugoMarkup        `toml:"markup"`
	Params       map[string]string `toml:"params"`
}

type hugoMarkup struct {
	Goldmark struct {
		Renderer struct {
			Unsafe bool `toml:"unsafe"`
		} `toml:"renderer"`
	} `toml:"goldmark"`
}

// renderHugo writes pages under OutputDir/content/ with section indexes
// renamed to _index.md, the navigation under data/, and a config.toml.
func renderHugo(ctx context.Context, pages []Page, nav []NavNode, cfg RendererConfig) error {
	root := filepath.Join(cfg.OutputDir, "content")
	err := writePages(ctx, pages, root, cfg.Concurrency, func(rel string) string {
		if rel == "index.md" || strings.HasSuffix(rel, "/index.md") {
			return strings.TrimSuffix(rel, "index.md") + "_index.md"
		}
		return rel
	})
	if err != nil {
		return err
	}
	if err := writeNavigation(filepath.Join(cfg.OutputDir, "data", NavigationFile), nav); err != nil {
		return err
	}

	hc := hugoConfig{
		BaseURL:      "/",
		LanguageCode: "en-us",
		Title:        cfg.Title,
		Theme:        "hugo-book",
		Params:       map[string]string{"BookSection": "/"},
	}
	hc.Markup.Goldmark.Renderer.Unsafe = true

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(hc); err != nil {
		return fmt.Errorf("encoding hugo config: %w", err)
	}
	return writeDoc(filepath.Join(cfg.OutputDir, "config.toml"), buf.String())
}

const docusaurusSidebars = `// Generated. Reads the navigation tree and drops the ordering keys
// Docusaurus does not accept.
const nav = require('./navigation.json');

const strip = (items) =>
  items.map(({position, ...item}) =>
    item.type === 'category' ? {...item, items: strip(item.items)} : item,
  );

module.exports = {docs: strip(nav)};
`

// renderDocusaurus writes pages under OutputDir/docs/, the navigation with a
// sidebars.js that consumes it, and a docusaurus.config.js.
func renderDocusaurus(ctx context.Context, pages []Page, nav []NavNode, cfg RendererConfig) error {
	if err := writePages(ctx, pages, filepath.Join(cfg.OutputDir, "docs"), cfg.Concurrency, nil); err != nil {
		return err
	}
	if err := writeNavigation(filepath.Join(cfg.OutputDir, NavigationFile), nav); err != nil {
		return err
	}
	if err := writeDoc(filepath.Join(cfg.OutputDir, "sidebars.js"), docusaurusSidebars); err != nil {
		return err
	}

	configContent := fmt.Sprintf(`// @ts-check

/** @type {import('@docusaurus/types').Config} */
const config = {
  title: %q,
  url: 'https://your-project-url.example.com',
  baseUrl: '/',
  themes: ['@docusaurus/theme-mermaid'],
  markdown: {
    mermaid: true,
  },
  presets: [
    [
      'classic',
      /** @type {import('@docusaurus/preset-classic').Options} */
      ({
        docs: {
          routeBasePath: '/',
          sidebarPath: './sidebars.js',
        },
      }),
    ],
  ],
};

module.exports = config;
`, cfg.Title)
	return writeDoc(filepath.Join(cfg.OutputDir, "docusaurus.config.js"), configContent)
}

// writeDoc creates parent directories and writes content to the given path.
func writeDoc(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
