// Package region locates embedded-language regions in a host document.
//
// A region is announced by a directive comment ("lang: <id>") and covers
// the string literal that follows it. The scanner walks the document top
// to bottom, resolves each directive's literal under the host dialect's
// quoting rules, and returns one Region per resolved literal with exact
// host-document coordinates.
package region

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/embedlit/pkg/dialect"
)

// Directive is a matched "lang: <id>" comment line. Produced while
// scanning; not retained past the scan.
type Directive struct {
	// LineIndex is the zero-based host line the directive sits on.
	LineIndex int

	// LanguageID is the embedded language identifier, lowercased.
	LanguageID string
}

// Region is one resolved (directive, literal-span, content) unit.
//
// ContentLines[0] excludes the opening delimiter and any host code before
// it on the opening line; the final content line excludes the closing
// delimiter and anything after it. Invariant:
// len(ContentLines) == EndLine - StartLine + 1.
type Region struct {
	// StartLine is the zero-based host line the literal opens on.
	StartLine int

	// StartColumnOffset is the host column where content begins on the
	// opening line (pre-literal host code plus the opening delimiter).
	// It applies to the first content line only; all later content lines
	// start at host column 0.
	StartColumnOffset int

	// EndLine is the zero-based host line the literal closes on.
	EndLine int

	// ContentLines is the literal's interior text, one entry per host
	// line covered by the region.
	ContentLines []string

	// LanguageID names the embedded language the content is written in.
	LanguageID string
}

// Content reassembles the literal's interior text.
func (r *Region) Content() string {
	return strings.Join(r.ContentLines, "\n")
}

// LineCount returns the number of host lines the region covers.
func (r *Region) LineCount() int {
	return r.EndLine - r.StartLine + 1
}

const (
	tripleDouble = `"""`
	tripleSingle = `'''`
	backtick     = "`"
)

// Scan walks the document lines and returns the regions introduced by
// directive comments, in document order. Returned regions never overlap:
// once a literal closes, scanning resumes on the line after it, so a
// literal's own content is never misread as another directive.
//
// Unterminated literals produce no region and do not stop the scan.
func Scan(ctx context.Context, lines []string, d dialect.Dialect) []Region {
	logger := zerolog.Ctx(ctx)
	pattern := d.DirectivePattern()

	var regions []Region
	for idx := 0; idx < len(lines); idx++ {
		m := pattern.FindStringSubmatch(lines[idx])
		if m == nil {
			continue
		}

		dir := Directive{LineIndex: idx, LanguageID: strings.ToLower(m[1])}
		logger.Debug().Int("line", dir.LineIndex).Str("language", dir.LanguageID).Msg("directive found")

		reg, next := resolveLiteral(ctx, lines, idx+1, d, dir.LanguageID)
		if reg == nil {
			logger.Debug().Int("directive_line", dir.LineIndex).Str("language", dir.LanguageID).Msg("no literal found for directive")
			// resolveLiteral consumed everything it examined
			idx = next - 1
			continue
		}

		regions = append(regions, *reg)
		idx = reg.EndLine // skip rule: resume after the literal
	}

	return regions
}

// resolveLiteral searches forward from line start for the dialect's
// opening delimiter, then for the matching close. It returns the resolved
// region (nil if the document ends first) and the index of the first line
// it did not consume.
func resolveLiteral(ctx context.Context, lines []string, start int, d dialect.Dialect, langID string) (*Region, int) {
	switch d.Literal {
	case dialect.TripleQuoted:
		return resolveTripleQuoted(ctx, lines, start, langID)
	case dialect.Templated:
		return resolveTemplated(lines, start, langID)
	default:
		return nil, len(lines)
	}
}

func resolveTripleQuoted(ctx context.Context, lines []string, start int, langID string) (*Region, int) {
	logger := zerolog.Ctx(ctx)

	for open := start; open < len(lines); open++ {
		line := lines[open]
		quoteIdx, quote := firstTripleQuote(line)
		if quoteIdx < 0 {
			continue
		}

		rest := line[quoteIdx+len(quote):]
		reg := &Region{
			StartLine:         open,
			StartColumnOffset: quoteIdx + len(quote),
			LanguageID:        langID,
		}

		// open and close on the same line: single content line between
		// the delimiters
		if closeIdx := strings.Index(rest, quote); closeIdx >= 0 {
			reg.EndLine = open
			reg.ContentLines = []string{rest[:closeIdx]}
			return reg, open + 1
		}

		reg.ContentLines = append(reg.ContentLines, rest)

		other := tripleSingle
		if quote == tripleSingle {
			other = tripleDouble
		}

		for cur := open + 1; cur < len(lines); cur++ {
			if closeIdx := strings.Index(lines[cur], quote); closeIdx >= 0 {
				reg.EndLine = cur
				reg.ContentLines = append(reg.ContentLines, lines[cur][:closeIdx])
				return reg, cur + 1
			}
			if strings.Contains(lines[cur], other) {
				// differing quote variant inside an open literal is
				// ordinary content, not a delimiter
				logger.Debug().Int("line", cur).Str("expected", quote).Msg("quote variant mismatch inside open literal")
			}
			reg.ContentLines = append(reg.ContentLines, lines[cur])
		}

		logger.Debug().Int("open_line", open).Str("language", langID).Msg("unterminated literal dropped")
		return nil, len(lines)
	}

	return nil, len(lines)
}

func resolveTemplated(lines []string, start int, langID string) (*Region, int) {
	for open := start; open < len(lines); open++ {
		tickIdx := strings.Index(lines[open], backtick)
		if tickIdx < 0 {
			continue
		}

		rest := lines[open][tickIdx+1:]
		reg := &Region{
			StartLine:         open,
			StartColumnOffset: tickIdx + 1,
			LanguageID:        langID,
		}

		if closeIdx := strings.Index(rest, backtick); closeIdx >= 0 {
			reg.EndLine = open
			reg.ContentLines = []string{rest[:closeIdx]}
			return reg, open + 1
		}

		reg.ContentLines = append(reg.ContentLines, rest)

		for cur := open + 1; cur < len(lines); cur++ {
			if closeIdx := strings.Index(lines[cur], backtick); closeIdx >= 0 {
				reg.EndLine = cur
				reg.ContentLines = append(reg.ContentLines, lines[cur][:closeIdx])
				return reg, cur + 1
			}
			reg.ContentLines = append(reg.ContentLines, lines[cur])
		}

		return nil, len(lines)
	}

	return nil, len(lines)
}

// firstTripleQuote returns the index and text of the leftmost triple-quote
// delimiter on the line, or (-1, "") if there is none.
func firstTripleQuote(line string) (int, string) {
	di := strings.Index(line, tripleDouble)
	si := strings.Index(line, tripleSingle)
	switch {
	case di < 0 && si < 0:
		return -1, ""
	case si < 0 || (di >= 0 && di < si):
		return di, tripleDouble
	default:
		return si, tripleSingle
	}
}
