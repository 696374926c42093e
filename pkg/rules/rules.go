// Package rules holds the user-editable text rules applied to article content:
// symbols to strip and ordered find/replace pairs.
package rules

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Replacement is a single literal find/replace rule.
type Replacement struct {
	Find        string `json:"find" yaml:"find" validate:"required"`
	ReplaceWith string `json:"replace_with" yaml:"replace_with"`
}

// RuleSet is an ordered collection of text rules.
// A nil *RuleSet behaves as an empty one.
type RuleSet struct {
	RemoveSymbols []string      `json:"remove_symbols" yaml:"remove_symbols"`
	Replacements  []Replacement `json:"replacements" yaml:"replacements"`
}

var validate = validator.New()

// Empty returns a rule set with no rules.
func Empty() *RuleSet {
	return &RuleSet{}
}

// ReplacementRules returns the replacement rules in application order.
func (r *RuleSet) ReplacementRules() []Replacement {
	if r == nil {
		return nil
	}
	return r.Replacements
}

// Symbols returns the symbols removed by Strip.
func (r *RuleSet) Symbols() []string {
	if r == nil {
		return nil
	}
	return r.RemoveSymbols
}

// IsEmpty reports whether the set carries no rules at all.
func (r *RuleSet) IsEmpty() bool {
	return r == nil || (len(r.RemoveSymbols) == 0 && len(r.Replacements) == 0)
}

// Apply runs every replacement in order. Each rule sees the output of the
// previous one, so [a->b, b->c] turns "a" into "c".
func (r *RuleSet) Apply(text string) string {
	for _, rep := range r.ReplacementRules() {
		if rep.Find == "" {
			continue
		}
		text = strings.ReplaceAll(text, rep.Find, rep.ReplaceWith)
	}
	return text
}

// Strip removes every configured symbol from text.
func (r *RuleSet) Strip(text string) string {
	for _, sym := range r.Symbols() {
		if sym == "" {
			continue
		}
		text = strings.ReplaceAll(text, sym, "")
	}
	return text
}

// Store holds the two named rule sets used by the pipeline.
type Store struct {
	// Cleaning rules are applied when tidying already published posts.
	Cleaning *RuleSet
	// Publishing rules are applied when formatting new articles.
	Publishing *RuleSet
}

// NewStore returns a store with both sets empty.
func NewStore() *Store {
	return &Store{Cleaning: Empty(), Publishing: Empty()}
}

// String returns a short summary for logs.
func (r *RuleSet) String() string {
	return fmt.Sprintf("rules(replacements=%d, symbols=%d)",
		len(r.ReplacementRules()), len(r.Symbols()))
}
