// Package junk strips site-specific boilerplate (bylines, timestamps,
// call-to-action lines) from a scraped article subtree.
//
// Rules are keyed by the article's origin domain. Origins without an entry
// get the identity strategy, which leaves the tree untouched.
package junk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Report summarises what a strategy removed.
type Report struct {
	Strategy    string `json:"strategy"`
	Decomposed  int    `json:"decomposed"`
	InlineEdits int    `json:"inline_edits"`
}

// Changed reports whether the tree was modified.
func (r Report) Changed() bool {
	return r.Decomposed > 0 || r.InlineEdits > 0
}

// Strategy cleans a content subtree in place.
type Strategy interface {
	Name() string
	Apply(root *goquery.Selection) Report
}

// Identity is the strategy for origins with no known junk rules.
var Identity Strategy = identity{}

type identity struct{}

func (identity) Name() string { return "identity" }

func (identity) Apply(*goquery.Selection) Report {
	return Report{Strategy: "identity"}
}

// SiteRules is the declarative rule table for one site.
type SiteRules struct {
	Decompose []Rule
	Inline    []InlineRule
}

type siteStrategy struct {
	name      string
	decompose []compiledRule
	inline    []*regexp.Regexp
}

// NewStrategy compiles a site rule table into a strategy.
func NewStrategy(name string, rules SiteRules) (Strategy, error) {
	s := &siteStrategy{name: name}
	for _, r := range rules.Decompose {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		s.decompose = append(s.decompose, cr)
	}
	for _, r := range rules.Inline {
		re, err := compileInline(r)
		if err != nil {
			return nil, err
		}
		s.inline = append(s.inline, re)
	}
	return s, nil
}

// MustStrategy is NewStrategy for static tables; it panics on a bad pattern.
func MustStrategy(name string, rules SiteRules) Strategy {
	s, err := NewStrategy(name, rules)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *siteStrategy) Name() string { return s.name }

func (s *siteStrategy) Apply(root *goquery.Selection) Report {
	report := Report{Strategy: s.name}
	if root == nil || root.Length() == 0 {
		return report
	}
	for _, n := range root.Nodes {
		if len(s.decompose) > 0 {
			report.Decomposed += decomposeMatching(n, s.decompose)
		}
		if len(s.inline) > 0 {
			report.InlineEdits += removeInline(n, s.inline)
		}
	}
	return report
}

// Entry binds a domain key to its strategy.
type Entry struct {
	Domain   string
	Strategy Strategy
}

// Table is an ordered domain lookup. The first entry whose domain occurs in
// the origin URL wins.
type Table []Entry

// Lookup returns the strategy for originURL, or Identity.
func (t Table) Lookup(originURL string) Strategy {
	if originURL == "" {
		return Identity
	}
	lower := strings.ToLower(originURL)
	for _, e := range t {
		if e.Domain != "" && strings.Contains(lower, strings.ToLower(e.Domain)) {
			return e.Strategy
		}
	}
	return Identity
}

// Domains lists the configured domain keys in lookup order.
func (t Table) Domains() []string {
	out := make([]string, 0, len(t))
	for _, e := range t {
		out = append(out, e.Domain)
	}
	return out
}

// Filter applies the strategy selected from a Table.
type Filter struct {
	table Table
}

// NewFilter creates a filter over table. A nil table always selects Identity.
func NewFilter(table Table) *Filter {
	return &Filter{table: table}
}

// Default returns a filter over DefaultTable.
func Default() *Filter {
	return NewFilter(DefaultTable)
}

// Apply cleans root in place using the rules for originURL.
func (f *Filter) Apply(originURL string, root *goquery.Selection) Report {
	return f.table.Lookup(originURL).Apply(root)
}

// String describes the filter for logs.
func (f *Filter) String() string {
	return fmt.Sprintf("junk.Filter(%s)", strings.Join(f.table.Domains(), ","))
}
