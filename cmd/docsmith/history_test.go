package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/julianshen/docsmith/internal/store"
)

func TestRenderHistory(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []store.Run{
		{ID: "0123456789abcdef", Project: "A very long project name here", Format: "hugo", Status: store.StatusSucceeded, Pages: 12, Warnings: 2, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)},
		{ID: "fedcba98", Project: "Shop", Format: "raw-md", Status: store.StatusFailed, Error: "load: boom", StartedAt: start},
		{ID: "abc", Project: "Shop", Format: "docusaurus", Status: store.StatusRunning, StartedAt: start},
	}
	out := renderHistory(runs, 7, false)

	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "A very long project…")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "ok, 2 warning(s)")
	assert.Contains(t, out, "failed: load: boom")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "7 cached AI response(s)\n")
}

func TestRenderHistoryEmpty(t *testing.T) {
	assert.Equal(t, "no generation runs recorded\n0 cached AI response(s)\n", renderHistory(nil, 0, false))
}

func TestHistoryDisabledStore(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, cfgPath, "[store]\ndisabled = true\n")
	_, _, err := execute(t, "", "history", "--config", cfgPath)
	assert.ErrorContains(t, err, "run history is disabled")
}

func TestHistoryPruneCache(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "", "history", "--config", cfgPath, "--prune-cache", "720h")
	assert.NoError(t, err)
	assert.Contains(t, out, "pruned 0 cached AI response(s) older than 720h0m0s")
	assert.Contains(t, out, "no generation runs recorded")
}
