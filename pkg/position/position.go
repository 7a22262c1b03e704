package position

import (
	"fmt"
)

// Place is a single point in a host document. Line and Character are
// zero-based; Character is a byte offset within the line.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before reports whether p comes strictly before other in document order.
func (p Place) Before(other Place) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is a half-open span [Start, End) in a host document.
type Range struct {
	Start Place
	End   Place
}

func NewRange(startLine, startChar, endLine, endChar int) Range {
	return Range{
		Start: Place{Line: startLine, Character: startChar},
		End:   Place{Line: endLine, Character: endChar},
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Overlaps reports whether two ranges share at least one position.
// Empty ranges overlap nothing.
func (r Range) Overlaps(other Range) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether p falls inside the range.
func (r Range) Contains(p Place) bool {
	if p.Before(r.Start) {
		return false
	}
	return p.Before(r.End)
}

type RangeSlice []Range

func (me RangeSlice) ToStrings() []string {
	var out []string
	for _, r := range me {
		out = append(out, r.String())
	}
	return out
}
