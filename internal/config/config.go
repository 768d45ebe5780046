package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/julianshen/docsmith/internal/wiki"
)

// Config represents the top-level application configuration.
type Config struct {
	Provider   ProviderConfig   `toml:"provider"`
	Docs       DocsConfig       `toml:"docs"`
	Features   FeaturesConfig   `toml:"features"`
	Output     OutputConfig     `toml:"output"`
	Enrichment EnrichmentConfig `toml:"enrichment"`
	Store      StoreConfig      `toml:"store"`
}

// ProviderConfig holds settings for AI provider selection and configuration.
type ProviderConfig struct {
	Default   string                   `toml:"default"`
	Model     string                   `toml:"model"`
	MaxTokens int                      `toml:"max_tokens"`
	Anthropic AnthropicProviderConfig  `toml:"anthropic"`
	Gemini    GeminiProviderConfig     `toml:"gemini"`
	OpenAI    []OpenAICompatibleConfig `toml:"openai_compatible"`
}

// AnthropicProviderConfig holds Anthropic-specific provider settings.
type AnthropicProviderConfig struct {
	APIKeySource string `toml:"api_key_source"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
}

// GeminiProviderConfig holds Gemini-specific provider settings.
type GeminiProviderConfig struct {
	APIKeySource string `toml:"api_key_source"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
}

// OpenAICompatibleConfig holds settings for an OpenAI-compatible provider.
type OpenAICompatibleConfig struct {
	Name         string            `toml:"name"`
	BaseURL      string            `toml:"base_url"`
	APIKeySource string            `toml:"api_key_source"`
	APIKey       string            `toml:"api_key"`
	ExtraHeaders map[string]string `toml:"extra_headers"`
}

// Table names the entry in errors, for example provider.openai_compatible[openrouter].
func (o OpenAICompatibleConfig) Table() string {
	return "provider.openai_compatible[" + o.Name + "]"
}

// DocsConfig controls what the generated site contains.
type DocsConfig struct {
	ProjectName string                   `toml:"project_name"`
	Sections    []wiki.Section           `toml:"sections"`
	Overrides   map[string]wiki.Override `toml:"overrides"`
}

// FeaturesConfig toggles the optional AI features.
type FeaturesConfig struct {
	DomainGrouping bool `toml:"domain_grouping"`
	Enrichment     bool `toml:"enrichment"`
}

// OutputConfig holds the default output location and site format.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	Format      string `toml:"format"`
	Concurrency int    `toml:"concurrency"`
}

// EnrichmentConfig bounds AI description enrichment.
type EnrichmentConfig struct {
	Concurrency       int     `toml:"concurrency"`
	MaxItems          int     `toml:"max_items"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// StoreConfig locates the SQLite database used for run history and the
// AI response cache. An empty path selects docsmith.db in the config
// directory.
type StoreConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
	CacheAI  bool   `toml:"cache_ai"`
	LRUSize  int    `toml:"lru_size"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	enrich := wiki.DefaultEnrichOptions()
	return &Config{
		Provider: ProviderConfig{
			Default:   "anthropic",
			Model:     "claude-sonnet-4-5",
			MaxTokens: 2048,
			Anthropic: AnthropicProviderConfig{
				APIKeySource: "env",
			},
			Gemini: GeminiProviderConfig{
				APIKeySource: "env",
			},
		},
		Output: OutputConfig{
			Dir:         "site",
			Format:      "docusaurus",
			Concurrency: 8,
		},
		Enrichment: EnrichmentConfig{
			Concurrency:       enrich.Concurrency,
			MaxItems:          enrich.MaxItems,
			RequestsPerSecond: enrich.RequestsPerSecond,
		},
		Store: StoreConfig{
			CacheAI: true,
			LRUSize: 256,
		},
	}
}

// DefaultPath returns ~/.config/docsmith/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "docsmith", "config.toml"), nil
}

// StorePath returns the database location, or "" when the store is
// disabled.
func (c *Config) StorePath() (string, error) {
	if c.Store.Disabled {
		return "", nil
	}
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	cfgPath, err := DefaultPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cfgPath), "docsmith.db"), nil
}

// Load reads a TOML config file on top of DefaultConfig. A missing file
// yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var validFormats = []string{wiki.FormatDocusaurus, wiki.FormatHugo, wiki.FormatRawMarkdown}

// Validate reports settings that would fail later in the pipeline.
func (c *Config) Validate() error {
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("output.format %q is not one of %v", c.Output.Format, validFormats)
	}
	seen := make(map[string]bool, len(c.Docs.Sections))
	for _, s := range c.Docs.Sections {
		if s.ID == "" {
			return errors.New("docs.sections: section without id")
		}
		if seen[s.ID] {
			return fmt.Errorf("docs.sections: duplicate id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Type == wiki.SectionCustom && s.Dir == "" {
			return fmt.Errorf("docs.sections: custom section %q needs dir", s.ID)
		}
	}
	if err := checkKeySource("provider.anthropic", c.Provider.Anthropic.APIKeySource); err != nil {
		return err
	}
	if err := checkKeySource("provider.gemini", c.Provider.Gemini.APIKeySource); err != nil {
		return err
	}
	for _, oc := range c.Provider.OpenAI {
		if err := checkKeySource(oc.Table(), oc.APIKeySource); err != nil {
			return err
		}
	}
	if c.Enrichment.RequestsPerSecond < 0 {
		return errors.New("enrichment.requests_per_second must not be negative")
	}
	return nil
}

// WikiOptions maps the docs and feature settings onto generation options.
func (c *Config) WikiOptions() wiki.Options {
	return wiki.Options{
		Sections:       c.Docs.Sections,
		Overrides:      c.Docs.Overrides,
		DomainGrouping: c.Features.DomainGrouping,
		Enrichment:     c.Features.Enrichment,
		Enrich: wiki.EnrichOptions{
			Concurrency:       c.Enrichment.Concurrency,
			MaxItems:          c.Enrichment.MaxItems,
			RequestsPerSecond: c.Enrichment.RequestsPerSecond,
		},
	}
}
