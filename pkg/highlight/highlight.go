// Package highlight orchestrates region scanning, grammar resolution and
// tokenization over one host document, producing the type→ranges mapping
// a renderer turns into decorations.
//
//	host text --> region.Scan --> []Region
//	                                 |
//	              grammar.Provider --+--> TokenizeRegion
//	                                 |
//	                                 v
//	                    Result{label -> ranges, label -> color}
package highlight

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/embedlit/pkg/dialect"
	"github.com/walteh/embedlit/pkg/grammar"
	"github.com/walteh/embedlit/pkg/position"
	"github.com/walteh/embedlit/pkg/region"
	"github.com/walteh/embedlit/pkg/styles"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

// Document is the read-only view of a host document the coordinator
// consumes.
type Document struct {
	// URI identifies the document to the renderer.
	URI string

	// LanguageID selects the host dialect.
	LanguageID string

	// Lines is the full text split on newlines.
	Lines []string
}

// NewDocument builds a Document from full text.
func NewDocument(uri, languageID, text string) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		Lines:      strings.Split(text, "\n"),
	}
}

// Result is one pass's output: every host range each token type should
// color. A new Result replaces any previously applied one for the same
// document view.
type Result struct {
	// PassID tags the pass in logs.
	PassID string

	// Ranges maps token-type labels to host-document ranges, in region
	// order. Ranges never overlap: regions are disjoint by construction
	// and tokens within a region are disjoint by construction.
	Ranges map[string][]position.Range

	// Skipped aggregates per-region grammar failures. The pass still
	// succeeded; this exists for logging.
	Skipped error

	colors map[string]string
}

// ColorFor returns the display color for a token-type label, falling back
// for the reserved default label and anything unseen.
func (r *Result) ColorFor(label string) string {
	if c, ok := r.colors[label]; ok {
		return c
	}
	return styles.FallbackColor
}

// IsEmpty reports whether the pass produced no ranges at all.
func (r *Result) IsEmpty() bool {
	return len(r.Ranges) == 0
}

// Renderer applies a pass's highlights to the document's view.
// Implementations must clear any highlights they applied for the same
// document before applying the new set.
type Renderer interface {
	ApplyHighlights(ctx context.Context, doc *Document, res *Result) error
}

// Coordinator runs full highlight passes. One sequential pass per
// trigger; regions are processed strictly in document order, suspending
// only at grammar resolution.
type Coordinator struct {
	provider grammar.Provider
}

func NewCoordinator(provider grammar.Provider) *Coordinator {
	return &Coordinator{provider: provider}
}

// Highlight recomputes the full type→ranges mapping for doc.
//
// An unsupported host language is a reported no-op: empty result, debug
// log, no error. A region whose grammar cannot be resolved contributes
// nothing and is recorded in Result.Skipped; later regions still run.
func (c *Coordinator) Highlight(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	res := &Result{
		PassID: uuid.NewString(),
		Ranges: make(map[string][]position.Range),
		colors: make(map[string]string),
	}

	logger := zerolog.Ctx(ctx).With().Str("pass", res.PassID).Str("uri", doc.URI).Logger()
	ctx = logger.WithContext(ctx)

	d, ok := dialect.ForLanguage(doc.LanguageID)
	if !ok {
		logger.Debug().Str("language", doc.LanguageID).Msg("unsupported host dialect, nothing to highlight")
		return res, nil
	}

	regions := region.Scan(ctx, doc.Lines, d)
	logger.Debug().Int("regions", len(regions)).Msg("scan complete")

	for _, reg := range regions {
		entry, err := c.provider.Resolve(ctx, reg.LanguageID)
		if err != nil {
			logger.Debug().Err(err).Str("language", reg.LanguageID).Int("start_line", reg.StartLine).Msg("skipping region")
			res.Skipped = multierr.Append(res.Skipped, err)
			continue
		}

		for _, tok := range TokenizeRegion(ctx, reg, entry) {
			res.Ranges[tok.TypeLabel] = append(res.Ranges[tok.TypeLabel], tok.Range)
			if _, ok := res.colors[tok.TypeLabel]; !ok {
				res.colors[tok.TypeLabel] = entry.Colors.ColorFor(tok.TypeLabel)
			}
		}
	}

	logger.Debug().Int("labels", len(res.Ranges)).Msg("highlight pass complete")
	return res, nil
}
