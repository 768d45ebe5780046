package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"
)

// SupportedSchema is the semver constraint partial analysis files must
// satisfy. Files without a schemaVersion are accepted.
const SupportedSchema = "^1"

// CheckSchemaVersion validates a partial's declared schema version.
func CheckSchemaVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("schema version %s does not satisfy %s", version, SupportedSchema)
	}
	return nil
}

// FileSource reads one partial analysis from a JSON or YAML file.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

// Load decodes the file according to its extension.
func (f FileSource) Load(ctx context.Context) (*Partial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	return DecodePartial(filepath.Ext(f.Path), data)
}

// DecodePartial parses a partial analysis. ext selects the decoder
// (".json", ".yaml" or ".yml").
func DecodePartial(ext string, data []byte) (*Partial, error) {
	var p Partial
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported analysis format %q", ext)
	}
	if err := CheckSchemaVersion(p.SchemaVersion); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExpandPaths resolves directories to the analysis files they directly
// contain, sorted by name. Hidden entries are skipped. Plain files are kept
// as given.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsAnalysisFile(e.Name()) {
				continue
			}
			found = append(found, filepath.Join(p, e.Name()))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// IsAnalysisFile reports whether name has a supported analysis extension.
func IsAnalysisFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFiles decodes the given analysis files concurrently and returns the
// partials in input order. Files that fail to load are reported as
// SourceErrors and omitted.
func LoadFiles(ctx context.Context, paths []string, concurrency int) ([]*Partial, []SourceError) {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]*Partial, len(paths))
	var mu sync.Mutex
	var errs []SourceError

	p := pool.New().WithMaxGoroutines(concurrency)
	for i, path := range paths {
		p.Go(func() {
			src := FileSource{Path: path}
			partial, err := loadSource(ctx, src)
			if err != nil {
				mu.Lock()
				errs = append(errs, SourceError{Source: path, Err: err})
				mu.Unlock()
				return
			}
			results[i] = partial
		})
	}
	p.Wait()

	var partials []*Partial
	for _, r := range results {
		if r != nil {
			partials = append(partials, r)
		}
	}
	sort.SliceStable(errs, func(a, b int) bool { return errs[a].Source < errs[b].Source })
	return partials, errs
}
