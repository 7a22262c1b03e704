package tmlanguage

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// maxIncludeDepth bounds include expansion so mutually referential
// repository entries terminate.
const maxIncludeDepth = 32

// Span is one labeled segment of a line, [Start, End) in bytes. Scopes is
// the active scope stack, outermost first; the last entry is the most
// specific label for the segment.
type Span struct {
	Start  int
	End    int
	Scopes []string
}

// Label returns the most specific scope for the span, or "" when the
// stack is empty.
func (s Span) Label() string {
	if len(s.Scopes) == 0 {
		return ""
	}
	return s.Scopes[len(s.Scopes)-1]
}

// State carries the tokenizer's open begin/end contexts from one line to
// the next. Carrying it forward is mandatory: resetting state per line
// breaks multi-line constructs.
type State struct {
	stack []stackEntry
}

// NewState returns the initial state for fresh content.
func NewState() State {
	return State{}
}

// Depth returns the number of open contexts.
func (s State) Depth() int {
	return len(s.stack)
}

type stackEntry struct {
	rule *Rule

	// contentScopes applies to text between the delimiters (includes the
	// rule's contentName); delimScopes applies to the end delimiter
	// itself.
	contentScopes []string
	delimScopes   []string
}

// Tokenizer feeds lines through a Grammar. Safe for reuse across regions;
// each region starts from NewState.
type Tokenizer struct {
	grammar *Grammar

	regexps map[string]*regexp.Regexp
	broken  map[string]bool
}

func NewTokenizer(g *Grammar) *Tokenizer {
	return &Tokenizer{
		grammar: g,
		regexps: make(map[string]*regexp.Regexp),
		broken:  make(map[string]bool),
	}
}

// Tokenize labels one line and returns the spans covering it together
// with the state to carry into the next line. Spans cover the whole line:
// text no rule claims gets the enclosing context's scope stack.
func (t *Tokenizer) Tokenize(ctx context.Context, line string, st State) ([]Span, State) {
	stack := append([]stackEntry(nil), st.stack...)

	var spans []Span
	pos := 0

	// hard backstop against zero-width match loops
	maxIterations := 4*len(line) + 64

	for iter := 0; pos < len(line) && iter < maxIterations; iter++ {
		var top *stackEntry
		if len(stack) > 0 {
			top = &stack[len(stack)-1]
		}
		cur := t.currentScopes(top)

		start, end, loc, rule, isEnd := t.nextMatch(ctx, line, pos, top)
		if start < 0 {
			spans = appendSpan(spans, Span{Start: pos, End: len(line), Scopes: cur})
			pos = len(line)
			break
		}

		if start > pos {
			spans = appendSpan(spans, Span{Start: pos, End: start, Scopes: cur})
		}

		switch {
		case isEnd:
			spans = t.emitCaptures(spans, loc, top.delimScopes, rule.EndCaptures)
			stack = stack[:len(stack)-1]
			pos = end

		case rule.Begin != "":
			delim := appendScope(cur, rule.Name)
			spans = t.emitCaptures(spans, loc, delim, rule.BeginCaptures)
			stack = append(stack, stackEntry{
				rule:          rule,
				contentScopes: appendScope(delim, rule.ContentName),
				delimScopes:   delim,
			})
			pos = end

		default: // match rule
			caps := rule.Captures
			spans = t.emitCaptures(spans, loc, appendScope(cur, rule.Name), caps)
			if end == start {
				// zero-width match; consume one character so the scan
				// always progresses
				spans = appendSpan(spans, Span{Start: pos, End: pos + 1, Scopes: cur})
				pos++
			} else {
				pos = end
			}
		}
	}

	if pos < len(line) {
		var top *stackEntry
		if len(stack) > 0 {
			top = &stack[len(stack)-1]
		}
		spans = appendSpan(spans, Span{Start: pos, End: len(line), Scopes: t.currentScopes(top)})
	}

	return spans, State{stack: stack}
}

// nextMatch finds the earliest rule hit at or after pos. The open
// context's end pattern is tried first and wins ties with nested
// patterns. Returns start -1 when nothing matches.
func (t *Tokenizer) nextMatch(ctx context.Context, line string, pos int, top *stackEntry) (start, end int, loc []int, rule *Rule, isEnd bool) {
	start = -1

	if top != nil && top.rule.End != "" {
		if re, ok := t.compile(ctx, top.rule.End); ok {
			if m := re.FindStringSubmatchIndex(line[pos:]); m != nil {
				loc = offsetLoc(m, pos)
				start, end = loc[0], loc[1]
				rule = top.rule
				isEnd = true
			}
		}
	}

	for _, r := range t.candidates(ctx, top) {
		pat := r.Match
		if pat == "" {
			pat = r.Begin
		}
		re, ok := t.compile(ctx, pat)
		if !ok {
			continue
		}
		m := re.FindStringSubmatchIndex(line[pos:])
		if m == nil {
			continue
		}
		if s := pos + m[0]; start < 0 || s < start {
			loc = offsetLoc(m, pos)
			start, end = loc[0], loc[1]
			rule = r
			isEnd = false
		}
	}

	return start, end, loc, rule, isEnd
}

// candidates returns the flat, include-expanded list of matchable rules
// for the current context.
func (t *Tokenizer) candidates(ctx context.Context, top *stackEntry) []*Rule {
	src := t.grammar.Patterns
	if top != nil {
		src = top.rule.Patterns
	}
	var out []*Rule
	t.expand(ctx, src, &out, 0)
	return out
}

func (t *Tokenizer) expand(ctx context.Context, rules []*Rule, out *[]*Rule, depth int) {
	if depth > maxIncludeDepth {
		return
	}
	for _, r := range rules {
		if r == nil || r.Disabled == 1 {
			continue
		}
		switch {
		case r.Include == "$self":
			t.expand(ctx, t.grammar.Patterns, out, depth+1)
		case strings.HasPrefix(r.Include, "#"):
			name := strings.TrimPrefix(r.Include, "#")
			entry, ok := t.grammar.Repository[name]
			if !ok {
				zerolog.Ctx(ctx).Debug().Str("include", r.Include).Msg("unresolved repository include")
				continue
			}
			t.expand(ctx, []*Rule{entry}, out, depth+1)
		case r.Match != "" || r.Begin != "":
			*out = append(*out, r)
		case len(r.Patterns) > 0:
			t.expand(ctx, r.Patterns, out, depth+1)
		}
	}
}

// emitCaptures splits the matched range [loc[0], loc[1]) into spans: each
// named capture group gets base plus its capture scope, the rest keeps
// base. Overlapping capture groups keep the lower-numbered group.
func (t *Tokenizer) emitCaptures(spans []Span, loc []int, base []string, caps map[string]Capture) []Span {
	matchStart, matchEnd := loc[0], loc[1]

	type segment struct {
		start, end int
		scopes     []string
	}

	var segs []segment
	for _, k := range sortedCaptureKeys(caps) {
		name := caps[k].Name
		if name == "" {
			continue
		}
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || 2*idx+1 >= len(loc) {
			continue
		}
		s, e := loc[2*idx], loc[2*idx+1]
		if s < 0 || s == e {
			continue
		}
		segs = append(segs, segment{start: s, end: e, scopes: appendScope(base, name)})
	}

	sort.SliceStable(segs, func(i, j int) bool { return segs[i].start < segs[j].start })

	pos := matchStart
	for _, seg := range segs {
		if seg.start < pos {
			continue
		}
		if seg.start > pos {
			spans = appendSpan(spans, Span{Start: pos, End: seg.start, Scopes: base})
		}
		spans = appendSpan(spans, Span{Start: seg.start, End: seg.end, Scopes: seg.scopes})
		pos = seg.end
	}
	if pos < matchEnd {
		spans = appendSpan(spans, Span{Start: pos, End: matchEnd, Scopes: base})
	}

	return spans
}

func (t *Tokenizer) currentScopes(top *stackEntry) []string {
	if top == nil {
		return []string{t.grammar.ScopeName}
	}
	return top.contentScopes
}

// compile memoizes pattern compilation. Grammars in the wild use regex
// features the stdlib engine rejects; such rules are skipped, logged
// once, and never abort tokenization.
func (t *Tokenizer) compile(ctx context.Context, pattern string) (*regexp.Regexp, bool) {
	if t.broken[pattern] {
		return nil, false
	}
	if re, ok := t.regexps[pattern]; ok {
		return re, true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("pattern", pattern).Msg("skipping uncompilable grammar pattern")
		t.broken[pattern] = true
		return nil, false
	}
	t.regexps[pattern] = re
	return re, true
}

func appendScope(scopes []string, name string) []string {
	if name == "" {
		return scopes
	}
	out := make([]string, 0, len(scopes)+1)
	out = append(out, scopes...)
	return append(out, name)
}

func appendSpan(spans []Span, s Span) []Span {
	if s.Start >= s.End {
		return spans
	}
	return append(spans, s)
}

func offsetLoc(loc []int, by int) []int {
	out := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			out[i] = v
			continue
		}
		out[i] = v + by
	}
	return out
}

func sortedCaptureKeys(caps map[string]Capture) []string {
	keys := make([]string, 0, len(caps))
	for k := range caps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}
