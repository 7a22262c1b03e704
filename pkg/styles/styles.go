// Package styles assigns display colors to grammar scope names.
//
// The assignment is computed once per grammar load and is deterministic:
// every scope name reachable in the grammar's rule tree is collected,
// sorted, and colored round-robin from a fixed palette. Re-tokenizing a
// document therefore never shuffles colors.
package styles

import (
	"sort"

	"github.com/walteh/embedlit/pkg/tmlanguage"
)

// DefaultLabel is the reserved type label for spans no grammar scope
// applies to.
const DefaultLabel = "default"

// FallbackColor is returned for DefaultLabel and for any label missing
// from the map at lookup time.
const FallbackColor = "#d4d4d4"

// DefaultPalette is the fixed color wheel scope names are assigned from.
var DefaultPalette = []string{
	"#569cd6", // blue
	"#4ec9b0", // teal
	"#ce9178", // orange
	"#dcdcaa", // yellow
	"#c586c0", // magenta
	"#9cdcfe", // light blue
	"#b5cea8", // green
	"#f44747", // red
}

// enumeration depth cap; grammars may alias rules through includes and
// the traversal must terminate
const maxWalkDepth = 64

// TypeColorMap maps token-type labels to display colors for one grammar.
type TypeColorMap struct {
	colors  map[string]string
	palette []string
}

// NewTypeColorMap builds the label→color assignment for g using the
// default palette.
func NewTypeColorMap(g *tmlanguage.Grammar) *TypeColorMap {
	return NewTypeColorMapWithPalette(g, DefaultPalette)
}

// NewTypeColorMapWithPalette builds the assignment from an explicit
// palette. The same grammar and palette always produce the same map.
func NewTypeColorMapWithPalette(g *tmlanguage.Grammar, palette []string) *TypeColorMap {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	m := &TypeColorMap{
		colors:  make(map[string]string),
		palette: palette,
	}

	for i, name := range ScopeNames(g) {
		m.colors[name] = palette[i%len(palette)]
	}

	return m
}

// ColorFor returns the color assigned to label, or FallbackColor when the
// label is unknown or reserved.
func (m *TypeColorMap) ColorFor(label string) string {
	if c, ok := m.colors[label]; ok {
		return c
	}
	return FallbackColor
}

// Len returns the number of labels with an assigned color.
func (m *TypeColorMap) Len() int {
	return len(m.colors)
}

// Labels returns the assigned labels in sorted order.
func (m *TypeColorMap) Labels() []string {
	out := make([]string, 0, len(m.colors))
	for k := range m.colors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ScopeNames collects every distinct scope name reachable in the
// grammar's rule tree (rule names, content names, and capture names),
// sorted lexicographically. The grammar's own scope name is included so
// unclaimed text inside a region still gets a stable color.
func ScopeNames(g *tmlanguage.Grammar) []string {
	seen := make(map[string]bool)
	if g.ScopeName != "" {
		seen[g.ScopeName] = true
	}

	for _, r := range g.Patterns {
		walkRule(r, seen, 0)
	}
	for _, r := range g.Repository {
		walkRule(r, seen, 0)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func walkRule(r *tmlanguage.Rule, seen map[string]bool, depth int) {
	if r == nil || depth > maxWalkDepth {
		return
	}

	for _, name := range []string{r.Name, r.ContentName} {
		if name != "" {
			seen[name] = true
		}
	}
	for _, caps := range []map[string]tmlanguage.Capture{r.Captures, r.BeginCaptures, r.EndCaptures} {
		for _, c := range caps {
			if c.Name != "" {
				seen[c.Name] = true
			}
		}
	}

	for _, nested := range r.Patterns {
		walkRule(nested, seen, depth+1)
	}
}
