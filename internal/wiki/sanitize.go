package wiki

import (
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"strings"
)

var (
	nonIDCharRe     = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	multiUnderRe    = regexp.MustCompile(`_+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	labelStripper   = strings.NewReplacer("[", "", "]", "", "{", "", "}", "", "(", "", ")", "", "<", "", ">", "", "|", "", "&", "", ";", "", "#", "", "`", "", "%", "")
	placeholderSyms = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// UnnamedLabel replaces labels that sanitize to nothing.
const UnnamedLabel = "unnamed"

// SanitizeNodeID turns an arbitrary symbol name into a mermaid node
// identifier made of [A-Za-z0-9_] only. A name with no usable characters
// gets a node_xxxx placeholder derived from the raw input, so the same name
// always maps to the same identifier.
func SanitizeNodeID(raw string) string {
	id := nonIDCharRe.ReplaceAllString(raw, "")
	id = multiUnderRe.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return placeholderID(raw)
	}
	return id
}

func placeholderID(raw string) string {
	return "node_" + placeholderSuffix(raw)
}

// placeholderSuffix returns four base36 characters derived from raw. The
// same input always yields the same suffix.
func placeholderSuffix(raw string) string {
	h := fnv.New64a()
	h.Write([]byte(raw))
	r := rand.New(rand.NewPCG(h.Sum64(), uint64(len(raw))))

	b := make([]byte, 4)
	for i := range b {
		b[i] = placeholderSyms[r.IntN(len(placeholderSyms))]
	}
	return string(b)
}

// SanitizeLabel makes text safe to place inside a quoted mermaid label.
func SanitizeLabel(raw string) string {
	s := strings.ReplaceAll(raw, `"`, "'")
	s = labelStripper.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return UnnamedLabel
	}
	return s
}
