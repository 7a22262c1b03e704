package highlight

import (
	"context"

	"github.com/walteh/embedlit/pkg/grammar"
	"github.com/walteh/embedlit/pkg/position"
	"github.com/walteh/embedlit/pkg/region"
	"github.com/walteh/embedlit/pkg/styles"
	"github.com/walteh/embedlit/pkg/tmlanguage"
)

// Token is one labeled span of embedded content in host-document
// coordinates. TypeLabel is the most specific grammar scope active over
// the span, or styles.DefaultLabel when the scope stack is empty.
type Token struct {
	TypeLabel string
	Range     position.Range
}

// TokenizeRegion runs the region's content through the grammar line by
// line, carrying tokenizer state across lines, and maps each span back
// into host coordinates: line StartLine+i, column shifted by
// StartColumnOffset on the first content line only.
func TokenizeRegion(ctx context.Context, reg region.Region, entry *grammar.Entry) []Token {
	var tokens []Token

	st := tmlanguage.NewState()
	for i, line := range reg.ContentLines {
		var spans []tmlanguage.Span
		spans, st = entry.Tokenizer.Tokenize(ctx, line, st)

		shift := 0
		if i == 0 {
			shift = reg.StartColumnOffset
		}
		hostLine := reg.StartLine + i

		for _, span := range spans {
			label := span.Label()
			if label == "" {
				label = styles.DefaultLabel
			}
			tokens = append(tokens, Token{
				TypeLabel: label,
				Range:     position.NewRange(hostLine, span.Start+shift, hostLine, span.End+shift),
			})
		}
	}

	return tokens
}
