package grammar_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/embedlit/pkg/grammar"
	"gitlab.com/tozd/go/errors"
)

func makeBundle(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

func TestLoadBundle(t *testing.T) {
	store := grammar.NewStore(afero.NewMemMapFs(), "grammars")

	bundle := makeBundle(t, map[string]string{
		"raw/js.json":     jsGrammar,
		"raw/notes.txt":   "not a grammar",
		"raw/broken.json": `{"patterns": []}`,
	})

	ctx := context.Background()
	require.NoError(t, store.LoadBundle(ctx, bundle))

	// valid grammar resolves straight from the cache
	entry, err := store.Resolve(ctx, "js")
	require.NoError(t, err)
	assert.Equal(t, "source.js", entry.Grammar.ScopeName)

	// malformed bundle entries were skipped, not fatal
	_, err = store.Resolve(ctx, "broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, grammar.ErrUnavailable))

	assert.Equal(t, []string{"js"}, store.Loaded())
}

func TestLoadBundleRejectsGarbage(t *testing.T) {
	store := grammar.NewStore(afero.NewMemMapFs(), "grammars")
	err := store.LoadBundle(context.Background(), []byte("definitely not gzip"))
	assert.Error(t, err)
}

func TestLoadBundleDoesNotOverrideCache(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "grammars/js.json", []byte(jsGrammar), 0o644))
	store := grammar.NewStore(fsys, "grammars")
	ctx := context.Background()

	first, err := store.Resolve(ctx, "js")
	require.NoError(t, err)

	require.NoError(t, store.LoadBundle(ctx, makeBundle(t, map[string]string{
		"js.json": `{"scopeName": "source.other", "patterns": []}`,
	})))

	// first writer wins
	second, err := store.Resolve(ctx, "js")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
