package grammar

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/embedlit/pkg/styles"
	"github.com/walteh/embedlit/pkg/tmlanguage"
	"gitlab.com/tozd/go/errors"
)

// LoadBundle seeds the store's cache from a tar.gz bundle of "<id>.json"
// grammar definitions, e.g. a go:embed'ed asset. Definitions that fail to
// parse are skipped with a log line; they resolve as unavailable later.
func (s *Store) LoadBundle(ctx context.Context, data []byte) error {
	logger := zerolog.Ctx(ctx)

	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return errors.Errorf("reading grammar bundle: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Errorf("reading grammar bundle entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !strings.HasSuffix(header.Name, ".json") {
			continue
		}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return errors.Errorf("reading bundled grammar %s: %w", header.Name, err)
		}

		id := strings.ToLower(strings.TrimSuffix(path.Base(header.Name), ".json"))

		g, err := tmlanguage.UnmarshalGrammar(payload)
		if err != nil {
			logger.Debug().Err(err).Str("entry", header.Name).Msg("skipping malformed bundled grammar")
			continue
		}

		entry := &Entry{
			LanguageID: id,
			Grammar:    g,
			Tokenizer:  tmlanguage.NewTokenizer(g),
			Colors:     styles.NewTypeColorMapWithPalette(g, s.palette),
		}

		s.mu.Lock()
		if _, ok := s.entries[id]; !ok {
			s.entries[id] = entry
		}
		s.mu.Unlock()

		logger.Debug().Str("language", id).Str("scope", g.ScopeName).Msg("bundled grammar loaded")
	}

	return nil
}
