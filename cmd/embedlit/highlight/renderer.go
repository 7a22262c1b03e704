package highlight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/walteh/embedlit/pkg/highlight"
	"github.com/walteh/embedlit/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// TermRenderer writes the host document to a terminal with embedded
// regions colored per token type. Each ApplyHighlights call redraws the
// whole document, which subsumes clearing the previous decorations.
type TermRenderer struct {
	Out io.Writer
}

func (r *TermRenderer) ApplyHighlights(ctx context.Context, doc *highlight.Document, res *highlight.Result) error {
	type segment struct {
		r     position.Range
		label string
	}

	// tokens are single-line by construction; bucket them per host line
	byLine := make(map[int][]segment)
	for label, ranges := range res.Ranges {
		for _, rng := range ranges {
			byLine[rng.Start.Line] = append(byLine[rng.Start.Line], segment{r: rng, label: label})
		}
	}
	for _, segs := range byLine {
		sort.Slice(segs, func(i, j int) bool { return segs[i].r.Start.Character < segs[j].r.Start.Character })
	}

	for lineNo, line := range doc.Lines {
		segs := byLine[lineNo]
		if len(segs) == 0 {
			if _, err := fmt.Fprintln(r.Out, line); err != nil {
				return errors.Errorf("writing line: %w", err)
			}
			continue
		}

		col := 0
		for _, seg := range segs {
			start, end := seg.r.Start.Character, seg.r.End.Character
			if start > len(line) || end > len(line) || start < col {
				continue
			}
			if start > col {
				fmt.Fprint(r.Out, line[col:start])
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(res.ColorFor(seg.label)))
			fmt.Fprint(r.Out, style.Render(line[start:end]))
			col = end
		}
		if col < len(line) {
			fmt.Fprint(r.Out, line[col:])
		}
		if _, err := fmt.Fprintln(r.Out); err != nil {
			return errors.Errorf("writing line: %w", err)
		}
	}

	return nil
}

// JSONRenderer emits the range mapping and color assignment as one JSON
// document per pass, for tooling that applies decorations itself.
type JSONRenderer struct {
	Out io.Writer
}

type jsonPlace struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type jsonRange struct {
	Start jsonPlace `json:"start"`
	End   jsonPlace `json:"end"`
}

type jsonPass struct {
	URI    string                 `json:"uri"`
	Ranges map[string][]jsonRange `json:"ranges"`
	Colors map[string]string      `json:"colors"`
}

func (r *JSONRenderer) ApplyHighlights(ctx context.Context, doc *highlight.Document, res *highlight.Result) error {
	out := jsonPass{
		URI:    doc.URI,
		Ranges: make(map[string][]jsonRange, len(res.Ranges)),
		Colors: make(map[string]string, len(res.Ranges)),
	}

	for label, ranges := range res.Ranges {
		out.Colors[label] = res.ColorFor(label)
		for _, rng := range ranges {
			out.Ranges[label] = append(out.Ranges[label], jsonRange{
				Start: jsonPlace{Line: rng.Start.Line, Character: rng.Start.Character},
				End:   jsonPlace{Line: rng.End.Line, Character: rng.End.Character},
			})
		}
	}

	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Errorf("encoding highlights: %w", err)
	}
	return nil
}
