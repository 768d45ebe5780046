package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/config"
	"github.com/julianshen/docsmith/internal/output"
	"github.com/julianshen/docsmith/internal/provider"
	"github.com/julianshen/docsmith/internal/runner"
)

type stubProvider struct {
	reply string
	calls int
}

func (s *stubProvider) Stream(_ context.Context, _ provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	s.calls++
	ch := make(chan provider.StreamEvent, 3)
	ch <- provider.StreamEvent{Type: provider.EventTextDelta, Text: s.reply}
	ch <- provider.StreamEvent{Type: "usage", InputTokens: 12, OutputTokens: 4}
	ch <- provider.StreamEvent{Type: provider.EventStop}
	close(ch)
	return ch, nil
}

func useProvider(t *testing.T, p provider.LLMProvider, err error) {
	t.Helper()
	orig := newProvider
	newProvider = func(*config.Config) (provider.LLMProvider, error) { return p, err }
	t.Cleanup(func() { newProvider = orig })
}

func writeShopInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shop.json"), shopAnalysis)
	return dir
}

func TestGenerateOptionsApply(t *testing.T) {
	opts := &generateOptions{}
	cmd := newGenerateCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"-o", "out", "--format", "hugo", "--project", "Store", "--concurrency", "3", "--enrich"}))

	cfg := config.DefaultConfig()
	cfg.Features.DomainGrouping = true
	opts.apply(cfg, cmd.Flags())

	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "hugo", cfg.Output.Format)
	assert.Equal(t, "Store", cfg.Docs.ProjectName)
	assert.Equal(t, 3, cfg.Output.Concurrency)
	assert.True(t, cfg.Features.Enrichment)
	assert.True(t, cfg.Features.DomainGrouping, "unset flags keep the config value")
}

func TestGenerateOptionsExplicitFalse(t *testing.T) {
	opts := &generateOptions{}
	cmd := newGenerateCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--enrich=false"}))

	cfg := config.DefaultConfig()
	cfg.Features.Enrichment = true
	opts.apply(cfg, cmd.Flags())
	assert.False(t, cfg.Features.Enrichment)
}

func TestGenerateOptionsNoAIWins(t *testing.T) {
	opts := &generateOptions{}
	cmd := newGenerateCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--grouping", "--no-ai"}))

	cfg := config.DefaultConfig()
	cfg.Features.Enrichment = true
	opts.apply(cfg, cmd.Flags())
	assert.False(t, cfg.Features.DomainGrouping)
	assert.False(t, cfg.Features.Enrichment)
}

func TestGenerateWritesSite(t *testing.T) {
	cfgPath := writeConfig(t, "[output]\nformat = \"raw-md\"\n")
	in := writeShopInputs(t)
	out := filepath.Join(t.TempDir(), "site")

	_, stderr, err := execute(t, "", "generate", "--config", cfgPath, "-o", out, "--no-ai", in)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "index.md"))
	assert.FileExists(t, filepath.Join(out, "entities", "product.md"))
	assert.FileExists(t, filepath.Join(out, "navigation.json"))
	assert.Contains(t, stderr, "docsmith: loading 1 analysis files")
	assert.Contains(t, stderr, "✓ Shop:")
	assert.Contains(t, stderr, "(raw-md)")

	history, _, err := execute(t, "", "history", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, history, "Shop")
	assert.Contains(t, history, "raw-md")
	assert.Contains(t, history, "ok")
}

func TestGenerateReportToStdout(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out := filepath.Join(t.TempDir(), "site")

	stdout, _, err := execute(t, "", "generate", "--config", cfgPath, "-o", out, "--no-ai", "--no-history",
		"--report", "-", "--report-format", "json", writeShopInputs(t))
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "Shop", report.Project)
	assert.Equal(t, "docusaurus", report.Format)
	assert.Empty(t, report.RunID, "no history store was opened")
	assert.Nil(t, report.AI)
	assert.NotEmpty(t, report.Pages)
	assert.FileExists(t, filepath.Join(out, "sidebars.js"))
}

func TestGenerateReportFile(t *testing.T) {
	cfgPath := writeConfig(t, "")
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "run.md")

	_, _, err := execute(t, "", "generate", "--config", cfgPath, "-o", filepath.Join(dir, "site"),
		"--format", "hugo", "--no-ai", "--report", reportPath, writeShopInputs(t))
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Documentation report: Shop")
}

func TestGenerateInputsFromStdin(t *testing.T) {
	cfgPath := writeConfig(t, "")
	in := writeShopInputs(t)
	out := filepath.Join(t.TempDir(), "site")

	stdin := "# analysis files\n" + filepath.Join(in, "shop.json") + "\n"
	_, _, err := execute(t, stdin, "generate", "--config", cfgPath, "-o", out, "--no-ai", "--no-history")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "docs", "index.md"))
}

func TestGenerateNoInputs(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, _, err := execute(t, "", "generate", "--config", cfgPath, "--no-ai", "--no-history")
	assert.ErrorContains(t, err, "no input provided")
}

func TestGenerateUnknownReportFormat(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, _, err := execute(t, "", "generate", "--config", cfgPath, "--report", "-", "--report-format", "xml", writeShopInputs(t))
	assert.ErrorContains(t, err, "unknown report format")
}

func TestGenerateInvalidFormatFlag(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, _, err := execute(t, "", "generate", "--config", cfgPath, "--format", "mkdocs", writeShopInputs(t))
	assert.ErrorContains(t, err, "mkdocs")
}

func TestGenerateStrictWarnings(t *testing.T) {
	cfgPath := writeConfig(t, "")
	in := writeShopInputs(t)
	writeFile(t, filepath.Join(in, "broken.json"), "{not json")
	out := filepath.Join(t.TempDir(), "site")

	_, stderr, err := execute(t, "", "generate", "--config", cfgPath, "-o", out, "--no-ai", in)
	require.NoError(t, err, "warnings are not fatal by default")
	assert.Contains(t, stderr, "warnings")

	_, _, err = execute(t, "", "generate", "--config", cfgPath, "-o", out, "--no-ai", "--strict", in)
	var exitErr *runner.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, runner.ExitWarnings, exitErr.Code)
}

func TestGenerateFailureExitCode(t *testing.T) {
	cfgPath := writeConfig(t, "")
	missing := filepath.Join(t.TempDir(), "absent.json")

	_, stderr, err := execute(t, "", "generate", "--config", cfgPath, "--no-ai", "-o", t.TempDir(), missing)
	var exitErr *runner.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, runner.ExitFailure, exitErr.Code)
	assert.Contains(t, stderr, "generation failed")

	history, _, err := execute(t, "", "history", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, history, "failed: load:")
}

func TestGenerateEnrichmentUsesCache(t *testing.T) {
	stub := &stubProvider{reply: "A sellable item."}
	useProvider(t, stub, nil)

	cfgPath := writeConfig(t, "")
	in := writeShopInputs(t)
	out := filepath.Join(t.TempDir(), "site")
	args := []string{"generate", "--config", cfgPath, "-o", out, "--format", "raw-md", "--enrich", "--report", "-", "--report-format", "json", in}

	stdout, _, err := execute(t, "", args...)
	require.NoError(t, err)
	var first output.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &first))
	require.NotNil(t, first.AI)
	assert.Equal(t, "anthropic", first.AI.Provider)
	assert.Positive(t, first.AI.Calls)
	assert.Equal(t, 12*first.AI.Calls, first.AI.InputTokens)
	assert.Zero(t, first.AI.CacheHits)

	page, err := os.ReadFile(filepath.Join(out, "entities", "product.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "A sellable item.")

	callsBefore := stub.calls
	stdout, _, err = execute(t, "", args...)
	require.NoError(t, err)
	var second output.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &second))
	require.NotNil(t, second.AI)
	assert.Zero(t, second.AI.Calls, "replies come from the persistent cache")
	assert.Equal(t, first.AI.Calls, second.AI.CacheHits)
	assert.Equal(t, callsBefore, stub.calls)
}

func TestGenerateProviderFailureDisablesAI(t *testing.T) {
	useProvider(t, nil, errors.New("resolving anthropic API key: ANTHROPIC_API_KEY not set"))

	cfgPath := writeConfig(t, "")
	out := filepath.Join(t.TempDir(), "site")
	stdout, _, err := execute(t, "", "generate", "--config", cfgPath, "-o", out, "--enrich", "--no-history",
		"--report", "-", "--report-format", "json", writeShopInputs(t))
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Nil(t, report.AI)
	assert.Nil(t, report.Enrichment)
}

func TestPipedStdin(t *testing.T) {
	r := strings.NewReader("a.json\n")
	assert.Equal(t, r, pipedStdin(r), "non-file readers are used as is")
}
