// Package tmlanguage holds a TextMate-style grammar model and a stateful
// line tokenizer over it.
//
//	  Grammar (rules)          State (open contexts)
//	       |                         |
//	       v                         v
//	  +-----------+  per line  +-----------+
//	  | Tokenizer | ---------> | Spans     |
//	  +-----------+            | (scopes)  |
//	                           +-----------+
//
// Grammars are declarative scope-labeling rulesets: match rules label a
// single regex hit, begin/end rules open a context that may span many
// lines, and include rules reference the repository or the grammar
// itself. The tokenizer carries its context stack across lines, which is
// what makes multi-line constructs (block comments, nested strings) come
// out right.
package tmlanguage

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

// Grammar is the root of a tokenization ruleset for one language.
type Grammar struct {
	// ScopeName is the grammar's root scope, e.g. "source.js". Required.
	ScopeName string `json:"scopeName"`

	Name string `json:"name,omitempty"`

	Patterns []*Rule `json:"patterns"`

	// Repository holds named rules referenced by "#name" includes.
	// Entries may reference each other, including cyclically.
	Repository map[string]*Rule `json:"repository,omitempty"`
}

// Rule is one grammar rule. Exactly one of Match, Begin or Include is
// normally set; a rule with only Patterns acts as a grouping container.
type Rule struct {
	// Name is the scope assigned to whatever the rule matches.
	Name string `json:"name,omitempty"`

	// ContentName is the scope assigned to the text between a begin and
	// end match, excluding the delimiters themselves.
	ContentName string `json:"contentName,omitempty"`

	// Match labels a single-line regex hit.
	Match string `json:"match,omitempty"`

	// Begin and End delimit a context that may span lines.
	Begin string `json:"begin,omitempty"`
	End   string `json:"end,omitempty"`

	// Include references "#repository-entry" or "$self".
	Include string `json:"include,omitempty"`

	Patterns []*Rule `json:"patterns,omitempty"`

	// Captures assigns scopes to numbered regex groups. Keys are group
	// numbers as decimal strings.
	Captures      map[string]Capture `json:"captures,omitempty"`
	BeginCaptures map[string]Capture `json:"beginCaptures,omitempty"`
	EndCaptures   map[string]Capture `json:"endCaptures,omitempty"`

	// Disabled set to 1 turns the rule off.
	Disabled int `json:"disabled,omitempty"`
}

// Capture names the scope for one regex capture group.
type Capture struct {
	Name string `json:"name,omitempty"`
}

// UnmarshalGrammar parses a grammar definition from JSON. A payload
// without a scope-name root is malformed.
func UnmarshalGrammar(data []byte) (*Grammar, error) {
	var g Grammar
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Errorf("unmarshaling grammar: %w", err)
	}
	if g.ScopeName == "" {
		return nil, errors.New("malformed grammar: missing scopeName")
	}
	return &g, nil
}
