package styles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/embedlit/pkg/styles"
	"github.com/walteh/embedlit/pkg/tmlanguage"
)

const grammarJSON = `{
	"scopeName": "source.mini",
	"patterns": [
		{"match": "\\d+", "name": "constant.numeric"},
		{"begin": "\"", "end": "\"", "name": "string.quoted", "contentName": "meta.string-contents",
		 "beginCaptures": {"0": {"name": "punctuation.string.begin"}},
		 "endCaptures": {"0": {"name": "punctuation.string.end"}}}
	],
	"repository": {
		"kw": {"match": "if|else", "name": "keyword.control",
		       "captures": {"0": {"name": "keyword.other"}}}
	}
}`

func loadGrammar(t *testing.T) *tmlanguage.Grammar {
	t.Helper()
	g, err := tmlanguage.UnmarshalGrammar([]byte(grammarJSON))
	require.NoError(t, err)
	return g
}

func TestScopeNames(t *testing.T) {
	got := styles.ScopeNames(loadGrammar(t))

	assert.Equal(t, []string{
		"constant.numeric",
		"keyword.control",
		"keyword.other",
		"meta.string-contents",
		"punctuation.string.begin",
		"punctuation.string.end",
		"source.mini",
		"string.quoted",
	}, got)
}

func TestTypeColorMapRoundRobin(t *testing.T) {
	palette := []string{"#111111", "#222222", "#333333"}
	m := styles.NewTypeColorMapWithPalette(loadGrammar(t), palette)

	// assignment follows lexicographic label order, wrapping via modulo
	names := styles.ScopeNames(loadGrammar(t))
	require.Equal(t, len(names), m.Len())
	for i, name := range names {
		assert.Equal(t, palette[i%len(palette)], m.ColorFor(name), "label %q", name)
	}
}

func TestTypeColorMapDeterminism(t *testing.T) {
	// two separate loads of the same definition must color identically
	a := styles.NewTypeColorMap(loadGrammar(t))
	b := styles.NewTypeColorMap(loadGrammar(t))

	require.Equal(t, a.Labels(), b.Labels())
	for _, label := range a.Labels() {
		assert.Equal(t, a.ColorFor(label), b.ColorFor(label))
	}
}

func TestColorForFallback(t *testing.T) {
	m := styles.NewTypeColorMap(loadGrammar(t))

	assert.Equal(t, styles.FallbackColor, m.ColorFor(styles.DefaultLabel))
	assert.Equal(t, styles.FallbackColor, m.ColorFor("scope.never.seen"))
}

func TestEmptyPaletteFallsBackToDefault(t *testing.T) {
	m := styles.NewTypeColorMapWithPalette(loadGrammar(t), nil)
	assert.Equal(t, styles.DefaultPalette[0], m.ColorFor(styles.ScopeNames(loadGrammar(t))[0]))
}
