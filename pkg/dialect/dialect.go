// Package dialect describes how a host language spells directive comments
// and embedded string literals.
package dialect

import (
	"regexp"
	"strings"
	"sync"
)

// LiteralKind selects the literal syntax the scanner looks for after a
// directive comment.
type LiteralKind string

const (
	// TripleQuoted literals open and close with """ or ''' (python-style).
	TripleQuoted LiteralKind = "triple-quoted"

	// Templated literals open and close with a single backtick
	// (javascript template-string style).
	Templated LiteralKind = "templated"
)

// Dialect is the per-host-language quoting dialect. Immutable; selected
// once per document by the document's language identifier.
type Dialect struct {
	// Language is the host language identifier this dialect serves.
	Language string

	// CommentPrefix introduces a line comment, e.g. "#" or "//".
	CommentPrefix string

	// Literal is the literal syntax that may follow a directive.
	Literal LiteralKind
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Dialect{
		"python":     {Language: "python", CommentPrefix: "#", Literal: TripleQuoted},
		"javascript": {Language: "javascript", CommentPrefix: "//", Literal: Templated},
		"typescript": {Language: "typescript", CommentPrefix: "//", Literal: Templated},
		"go":         {Language: "go", CommentPrefix: "//", Literal: Templated},
	}
)

// ForLanguage returns the dialect registered for the given host language
// identifier. The lookup is case-insensitive.
func ForLanguage(id string) (Dialect, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[strings.ToLower(id)]
	return d, ok
}

// Register adds or replaces a dialect for d.Language. Used by config
// loading to extend the built-in set.
func Register(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(d.Language)] = d
}

// Languages returns the registered host language identifiers.
func Languages() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

// DirectivePattern returns the compiled directive-comment matcher for this
// dialect: optional leading whitespace, the comment prefix, then
// "lang: <id>". The captured id may be any case; callers normalize it to
// lowercase.
func (d Dialect) DirectivePattern() *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(d.CommentPrefix) + `\s*lang:\s*(\w+)`)
}
