package highlight

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/embedlit/pkg/grammar"
	"github.com/walteh/embedlit/pkg/highlight"
)

const jsGrammar = `{
	"scopeName": "source.js",
	"patterns": [
		{"match": "\\b(function|return|const)\\b", "name": "keyword.control.js"},
		{"match": "\\d+", "name": "constant.numeric.js"}
	]
}`

func testResult(t *testing.T) (*highlight.Document, *highlight.Result) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "grammars/js.json", []byte(jsGrammar), 0o644))

	coordinator := highlight.NewCoordinator(grammar.NewStore(fsys, "grammars"))
	doc := highlight.NewDocument("file:///demo.py", "python",
		"# lang: js\nx = \"\"\"\nreturn 42\n\"\"\"\n")

	res, err := coordinator.Highlight(context.Background(), doc)
	require.NoError(t, err)
	require.NoError(t, res.Skipped)
	return doc, res
}

func TestJSONRendererOutput(t *testing.T) {
	doc, res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{Out: &buf}).ApplyHighlights(context.Background(), doc, res))

	var pass jsonPass
	require.NoError(t, json.Unmarshal(buf.Bytes(), &pass))

	assert.Equal(t, "file:///demo.py", pass.URI)
	require.Contains(t, pass.Ranges, "keyword.control.js")
	assert.Equal(t, []jsonRange{{
		Start: jsonPlace{Line: 2, Character: 0},
		End:   jsonPlace{Line: 2, Character: 6},
	}}, pass.Ranges["keyword.control.js"])
	assert.Contains(t, pass.Ranges, "constant.numeric.js")
	assert.NotEmpty(t, pass.Colors["keyword.control.js"])
}

func TestTermRendererPreservesText(t *testing.T) {
	doc, res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, (&TermRenderer{Out: &buf}).ApplyHighlights(context.Background(), doc, res))

	// styling aside, every line of host text must come through intact
	out := buf.String()
	assert.Contains(t, out, "# lang: js")
	assert.Contains(t, out, "return")
	assert.Contains(t, out, "42")
}
