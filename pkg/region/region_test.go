package region_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/embedlit/pkg/dialect"
	"github.com/walteh/embedlit/pkg/region"
)

func mustDialect(t *testing.T, id string) dialect.Dialect {
	t.Helper()
	d, ok := dialect.ForLanguage(id)
	require.True(t, ok, "dialect for %q", id)
	return d
}

func scanText(t *testing.T, hostLang, text string) []region.Region {
	t.Helper()
	return region.Scan(context.Background(), strings.Split(text, "\n"), mustDialect(t, hostLang))
}

func TestScanTripleQuoted(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []region.Region
	}{
		{
			name: "basic multi-line literal",
			text: "# lang: js\nx = \"\"\"\nfunction f(a){return a}\n\"\"\"\n",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           3,
					ContentLines:      []string{"", "function f(a){return a}", ""},
					LanguageID:        "js",
				},
			},
		},
		{
			name: "no directive yields no regions",
			text: "x = \"\"\"\nnot announced\n\"\"\"\n",
			want: nil,
		},
		{
			name: "directive at end of document",
			text: "a = 1\n# lang: sql",
			want: nil,
		},
		{
			name: "unterminated literal is dropped",
			text: "# lang: js\nx = \"\"\"\nnever closed",
			want: nil,
		},
		{
			name: "single-quote variant",
			text: "# lang: css\ns = '''\nbody { color: red }\n'''",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           3,
					ContentLines:      []string{"", "body { color: red }", ""},
					LanguageID:        "css",
				},
			},
		},
		{
			name: "other quote variant inside open literal is content",
			text: "# lang: txt\nx = \"\"\"\nhas ''' inside\n\"\"\"",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           3,
					ContentLines:      []string{"", "has ''' inside", ""},
					LanguageID:        "txt",
				},
			},
		},
		{
			name: "open and close on the same line",
			text: "# lang: js\nx = \"\"\"const a = 1\"\"\"\ny = 2",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           1,
					ContentLines:      []string{"const a = 1"},
					LanguageID:        "js",
				},
			},
		},
		{
			name: "uppercase language id is normalized",
			text: "# lang: SQL\nq = \"\"\"\nselect 1\n\"\"\"",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           3,
					ContentLines:      []string{"", "select 1", ""},
					LanguageID:        "sql",
				},
			},
		},
		{
			name: "two directive literal pairs",
			text: "# lang: js\na = \"\"\"\nlet x = 1\n\"\"\"\n# lang: css\nb = \"\"\"\np {}\n\"\"\"",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           3,
					ContentLines:      []string{"", "let x = 1", ""},
					LanguageID:        "js",
				},
				{
					StartLine:         5,
					StartColumnOffset: 7,
					EndLine:           7,
					ContentLines:      []string{"", "p {}", ""},
					LanguageID:        "css",
				},
			},
		},
		{
			name: "directive-looking line inside literal is skipped",
			text: "# lang: py\nx = \"\"\"\n# lang: js\ncode\n\"\"\"",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 7,
					EndLine:           4,
					ContentLines:      []string{"", "# lang: js", "code", ""},
					LanguageID:        "py",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanText(t, "python", tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanTemplated(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []region.Region
	}{
		{
			name: "basic template literal",
			text: "// lang: sql\nconst q = `\nSELECT * FROM users\n`;",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 11,
					EndLine:           3,
					ContentLines:      []string{"", "SELECT * FROM users", ""},
					LanguageID:        "sql",
				},
			},
		},
		{
			name: "single line template literal",
			text: "// lang: css\nconst s = `p { margin: 0 }`;",
			want: []region.Region{
				{
					StartLine:         1,
					StartColumnOffset: 11,
					EndLine:           1,
					ContentLines:      []string{"p { margin: 0 }"},
					LanguageID:        "css",
				},
			},
		},
		{
			name: "unterminated template is dropped",
			text: "// lang: sql\nconst q = `\nSELECT 1",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanText(t, "javascript", tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanRoundTrip(t *testing.T) {
	interior := "\nfunction add(a, b) {\n    return a + b;\n}\n\nconst result = add(5, 10);\n"
	text := "# lang: js\nmy_js_string = \"\"\"" + interior + "\"\"\"\n"

	regions := scanText(t, "python", text)
	require.Len(t, regions, 1)

	assert.Equal(t, interior, regions[0].Content())
}

func TestScanLineCountInvariant(t *testing.T) {
	for k := 1; k <= 5; k++ {
		body := strings.Repeat("line of code\n", k-1)
		text := "# lang: js\nx = \"\"\"\n" + body + "\"\"\""

		regions := scanText(t, "python", text)
		require.Len(t, regions, 1)

		reg := regions[0]
		assert.Equal(t, reg.EndLine-reg.StartLine+1, len(reg.ContentLines))
		assert.Equal(t, k+1, reg.LineCount())
	}
}

func TestScanRegionsNeverOverlap(t *testing.T) {
	text := "# lang: js\na = \"\"\"\nx\n\"\"\"\n# lang: css\nb = \"\"\"\ny\n\"\"\"\n# lang: sql\nc = \"\"\"\nz\n\"\"\""

	regions := scanText(t, "python", text)
	require.Len(t, regions, 3)

	for i := 1; i < len(regions); i++ {
		assert.Greater(t, regions[i].StartLine, regions[i-1].EndLine,
			"region %d starts inside region %d", i, i-1)
	}
}
