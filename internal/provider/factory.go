package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianshen/docsmith/internal/config"
)

// ProviderConstructor creates a new LLMProvider. An empty baseURL selects
// the backend's public endpoint.
type ProviderConstructor func(baseURL, apiKey string, extraHeaders map[string]string) (LLMProvider, error)

// registry holds registered provider constructors.
var registry = map[string]ProviderConstructor{}

// RegisterProvider registers a provider constructor by name.
func RegisterProvider(name string, constructor ProviderConstructor) {
	registry[name] = constructor
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider creates an LLMProvider based on the given configuration.
// "anthropic" and "gemini" select those backends; any other name is looked
// up among the OpenAI-compatible configurations.
func NewProvider(cfg *config.Config) (LLMProvider, error) {
	switch cfg.Provider.Default {
	case "anthropic":
		a := cfg.Provider.Anthropic
		return newRegistered("anthropic", config.KeyRef{
			Table: "provider.anthropic", Source: a.APIKeySource, Value: a.APIKey, EnvVar: "ANTHROPIC_API_KEY",
		}, a.BaseURL, nil)
	case "gemini":
		g := cfg.Provider.Gemini
		return newRegistered("gemini", config.KeyRef{
			Table: "provider.gemini", Source: g.APIKeySource, Value: g.APIKey, EnvVar: "GEMINI_API_KEY",
		}, g.BaseURL, nil)
	default:
		return newOpenAIProvider(cfg)
	}
}

func newRegistered(backend string, key config.KeyRef, baseURL string, headers map[string]string) (LLMProvider, error) {
	constructor, ok := registry[backend]
	if !ok {
		return nil, fmt.Errorf("%s provider not registered", backend)
	}

	apiKey, err := config.ResolveAPIKey(key)
	if err != nil {
		return nil, fmt.Errorf("resolving %s API key: %w", backend, err)
	}

	return constructor(baseURL, apiKey, headers)
}

func newOpenAIProvider(cfg *config.Config) (LLMProvider, error) {
	name := cfg.Provider.Default

	for _, oc := range cfg.Provider.OpenAI {
		if oc.Name == name {
			if oc.BaseURL == "" {
				return nil, fmt.Errorf("%s has no base_url", oc.Table())
			}
			envVar := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
			return newRegistered("openai", config.KeyRef{
				Table: oc.Table(), Source: oc.APIKeySource, Value: oc.APIKey, EnvVar: envVar,
			}, oc.BaseURL, oc.ExtraHeaders)
		}
	}

	return nil, fmt.Errorf("unknown provider: %q", name)
}
