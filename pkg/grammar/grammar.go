// Package grammar resolves embedded-language identifiers to tokenizing
// grammars, caching one entry per language id for the life of the
// process.
package grammar

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/embedlit/pkg/styles"
	"github.com/walteh/embedlit/pkg/tmlanguage"
	"gitlab.com/tozd/go/errors"
)

// ErrUnavailable marks every resolution failure: unknown id, unreadable
// payload, or malformed grammar. Callers branch with errors.Is and treat
// it as a normal result, not a fault.
var ErrUnavailable = errors.Base("grammar unavailable")

// Entry is one resolved grammar plus everything derived from it at load
// time. Colors is computed once here so re-tokenizing never reshuffles
// the palette.
type Entry struct {
	LanguageID string
	Grammar    *tmlanguage.Grammar
	Tokenizer  *tmlanguage.Tokenizer
	Colors     *styles.TypeColorMap
}

// Provider resolves a language identifier to a grammar Entry. An
// ErrUnavailable-wrapped error is a normal outcome the coordinator skips
// past; Provider implementations never panic.
type Provider interface {
	Resolve(ctx context.Context, languageID string) (*Entry, error)
}

// Store is a Provider backed by a directory of "<id>.json" grammar
// definitions. Successful loads are cached; failures are retried on the
// next Resolve.
type Store struct {
	fs      afero.Fs
	dir     string
	palette []string

	mu      sync.RWMutex
	entries map[string]*Entry
}

type StoreOption func(*Store)

// WithPalette overrides the default style palette for every grammar the
// store loads.
func WithPalette(palette []string) StoreOption {
	return func(s *Store) {
		s.palette = palette
	}
}

// NewStore creates a grammar store reading definitions from dir on fsys.
func NewStore(fsys afero.Fs, dir string, opts ...StoreOption) *Store {
	s := &Store{
		fs:      fsys,
		dir:     dir,
		palette: styles.DefaultPalette,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve implements Provider. The first successful load per id wins;
// concurrent loads of the same id are idempotent.
func (s *Store) Resolve(ctx context.Context, languageID string) (*Entry, error) {
	logger := zerolog.Ctx(ctx)
	id := strings.ToLower(languageID)

	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	file := path.Join(s.dir, id+".json")
	data, err := afero.ReadFile(s.fs, file)
	if err != nil {
		logger.Debug().Err(err).Str("language", id).Str("file", file).Msg("grammar definition not readable")
		return nil, errors.Errorf("%w: reading %s: %v", ErrUnavailable, file, err)
	}

	g, err := tmlanguage.UnmarshalGrammar(data)
	if err != nil {
		logger.Debug().Err(err).Str("language", id).Msg("grammar definition malformed")
		return nil, errors.Errorf("%w: parsing %s: %v", ErrUnavailable, file, err)
	}

	entry = &Entry{
		LanguageID: id,
		Grammar:    g,
		Tokenizer:  tmlanguage.NewTokenizer(g),
		Colors:     styles.NewTypeColorMapWithPalette(g, s.palette),
	}

	s.mu.Lock()
	if cached, ok := s.entries[id]; ok {
		entry = cached
	} else {
		s.entries[id] = entry
	}
	s.mu.Unlock()

	logger.Debug().Str("language", id).Str("scope", g.ScopeName).Int("labels", entry.Colors.Len()).Msg("grammar loaded")
	return entry, nil
}

// Loaded returns the language ids with cached entries, for diagnostics.
func (s *Store) Loaded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	return out
}
