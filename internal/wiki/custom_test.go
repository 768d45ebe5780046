package wiki

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCustomPagesMissingDir(t *testing.T) {
	var warnings []string
	pages, err := LoadCustomPages(context.Background(), filepath.Join(t.TempDir(), "nope"), "guides",
		func(format string, args ...any) { warnings = append(warnings, format) })
	require.NoError(t, err)
	assert.Empty(t, pages)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not found")
}

func TestLoadCustomPages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.md"), "---\ntitle: Welcome\nsidebar_position: 2\ntags: [start]\n---\n\nHello.\n")
	writeFile(t, filepath.Join(dir, "deploy", "production-setup.mdx"), "No heading here.\n")
	writeFile(t, filepath.Join(dir, "faq.md"), "# Frequently Asked\n\nQ and A.\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".drafts", "wip.md"), "# WIP\n")
	writeFile(t, filepath.Join(dir, "broken.md"), "---\ntitle: never closed\n")

	var warnings []string
	pages, err := LoadCustomPages(context.Background(), dir, "guides",
		func(format string, args ...any) { warnings = append(warnings, format) })
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Len(t, warnings, 1, "the malformed page is skipped with a warning")

	byPath := make(map[string]CustomPage)
	for _, p := range pages {
		assert.Equal(t, "guides", p.SectionID)
		byPath[p.RelPath] = p
	}

	intro := byPath["intro.md"]
	assert.Equal(t, "Welcome", intro.Title)
	assert.True(t, intro.HasPosition)
	assert.Equal(t, 2, intro.Position)
	assert.Equal(t, []string{"start"}, intro.Tags)
	assert.Equal(t, "Hello.\n", intro.Body)

	assert.Equal(t, "Frequently Asked", byPath["faq.md"].Title)
	assert.Equal(t, "Production Setup", byPath["deploy/production-setup.mdx"].Title)
	assert.False(t, byPath["faq.md"].HasPosition)
}

func TestLoadCustomPagesCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "# A\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadCustomPages(ctx, dir, "guides", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
