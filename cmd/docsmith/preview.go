// cmd/docsmith/preview.go
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/julianshen/docsmith/internal/wiki"
)

func previewCmd() *cobra.Command {
	var (
		dirFlag string
		rawFlag bool
	)

	cmd := &cobra.Command{
		Use:   "preview [page]",
		Short: "Render a generated page in the terminal",
		Long: `Render a page of a generated site, e.g. "entities/product". Without an
argument the overview page is shown. The site layout (docusaurus, hugo or
raw-md) is detected from the directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirFlag
			if dir == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.Output.Dir
			}
			page := wiki.OverviewPath
			if len(args) > 0 {
				page = args[0]
			}

			file, err := locatePage(dir, page)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading page: %w", err)
			}

			out := cmd.OutOrStdout()
			rendered, err := renderPage(string(raw), rawFlag, isTerminal(out), terminalWidth(out, 100))
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "site directory (default from config)")
	cmd.Flags().BoolVar(&rawFlag, "raw", false, "print the page body without terminal styling")
	return cmd
}

// locatePage finds page under the content root of a generated site.
func locatePage(dir, page string) (string, error) {
	page = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(page)), "/")
	if page == "" {
		page = wiki.OverviewPath
	}
	if !strings.HasSuffix(page, ".md") {
		page += ".md"
	}
	names := []string{page}
	if path.Base(page) == "index.md" {
		names = append(names, path.Join(path.Dir(page), "_index.md"))
	}

	for _, root := range []string{filepath.Join(dir, "docs"), filepath.Join(dir, "content"), dir} {
		for _, name := range names {
			candidate := filepath.Join(root, filepath.FromSlash(name))
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("locating page: %w", err)
			}
		}
	}
	return "", fmt.Errorf("page %q not found in %s", strings.TrimSuffix(page, ".md"), dir)
}

// renderPage strips the frontmatter and renders the body with Glamour. A
// non-terminal destination gets the notty style so no escape codes leak.
func renderPage(raw string, plain, tty bool, width int) (string, error) {
	fm, body, err := wiki.ParsePage(raw)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	if fm.Title != "" && !strings.HasPrefix(strings.TrimSpace(body), "# ") {
		body = "# " + fm.Title + "\n\n" + body
	}
	if plain {
		return body, nil
	}

	style := "notty"
	if tty {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating glamour renderer: %w", err)
	}
	return r.Render(body)
}
