package config

import (
	"fmt"
	"os"
	"slices"
)

// Values accepted by a provider table's api_key_source.
const (
	KeySourceEnv    = "env"
	KeySourceConfig = "config"
)

var keySources = []string{KeySourceEnv, KeySourceConfig}

// KeyRef points at one provider's API key. Table is the config table the
// settings were read from, for example provider.anthropic.
type KeyRef struct {
	Table  string
	Source string
	Value  string
	EnvVar string
}

// ResolveAPIKey returns the key ref points at. An empty Source reads the
// environment. The CLI loads .env from the working directory at startup, so
// EnvVar may be set there as well.
func ResolveAPIKey(ref KeyRef) (string, error) {
	switch ref.Source {
	case "", KeySourceEnv:
		if ref.EnvVar == "" {
			return "", fmt.Errorf("%s: no environment variable to read the API key from", ref.Table)
		}
		if v := os.Getenv(ref.EnvVar); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%s: %s is not set; export it or add it to .env, or set %s.api_key_source = %q",
			ref.Table, ref.EnvVar, ref.Table, KeySourceConfig)
	case KeySourceConfig:
		if ref.Value == "" {
			return "", fmt.Errorf("%s.api_key_source is %q but %s.api_key is empty", ref.Table, KeySourceConfig, ref.Table)
		}
		return ref.Value, nil
	}
	return "", checkKeySource(ref.Table, ref.Source)
}

func checkKeySource(table, source string) error {
	if source == "" || slices.Contains(keySources, source) {
		return nil
	}
	return fmt.Errorf("%s.api_key_source %q is not one of %v", table, source, keySources)
}
