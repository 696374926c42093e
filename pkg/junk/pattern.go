package junk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule decomposes a block element whose text matches Pattern.
//
// Flags uses RE2 flag letters (i, m, s, U). Tolerance widens the substring
// branch of the match; a negative tolerance restricts the rule to full
// matches only.
type Rule struct {
	Pattern   string
	Flags     string
	Tolerance int
}

// InlineRule removes every match of Pattern from text nodes.
type InlineRule struct {
	Pattern string
	Flags   string
}

type compiledRule struct {
	source    string
	search    *regexp.Regexp
	full      *regexp.Regexp
	core      int
	tolerance int
}

// matches reports whether text (already trimmed) triggers the rule.
func (r compiledRule) matches(text string) bool {
	if r.full.MatchString(text) {
		return true
	}
	if r.tolerance < 0 {
		return false
	}
	return r.search.MatchString(text) &&
		utf8.RuneCountInString(text) < r.core+r.tolerance+30
}

func compileRule(rule Rule) (compiledRule, error) {
	src := unicodeClasses(rule.Pattern)
	prefix := flagPrefix(rule.Flags)

	search, err := regexp.Compile(prefix + src)
	if err != nil {
		return compiledRule{}, fmt.Errorf("junk rule %q: %w", rule.Pattern, err)
	}
	full, err := regexp.Compile(prefix + `\A(?:` + src + `)\z`)
	if err != nil {
		return compiledRule{}, fmt.Errorf("junk rule %q: %w", rule.Pattern, err)
	}

	return compiledRule{
		source:    rule.Pattern,
		search:    search,
		full:      full,
		core:      coreLength(rule.Pattern),
		tolerance: rule.Tolerance,
	}, nil
}

func compileInline(rule InlineRule) (*regexp.Regexp, error) {
	re, err := regexp.Compile(flagPrefix(rule.Flags) + unicodeClasses(rule.Pattern))
	if err != nil {
		return nil, fmt.Errorf("junk inline rule %q: %w", rule.Pattern, err)
	}
	return re, nil
}

func flagPrefix(flags string) string {
	if flags == "" {
		return ""
	}
	return "(?" + flags + ")"
}

// coreLength approximates how many meaningful characters a pattern needs:
// the letters and digits of its source, ignoring punctuation and whitespace.
func coreLength(pattern string) int {
	n := 0
	for _, r := range pattern {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			n++
		}
	}
	return n
}

// unicodeClasses widens the ASCII-only \w, \d and \s escapes so rules written
// for scripts such as Arabic match letters, digits and non-breaking spaces
// outside the ASCII range.
func unicodeClasses(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 16)

	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			next := pattern[i+1]
			i++
			switch next {
			case 'w':
				if inClass {
					b.WriteString(`\p{L}\p{N}_`)
				} else {
					b.WriteString(`[\p{L}\p{N}_]`)
				}
			case 'd':
				b.WriteString(`\p{Nd}`)
			case 's':
				if inClass {
					b.WriteString(`\s\p{Z}`)
				} else {
					b.WriteString(`[\s\p{Z}]`)
				}
			case 'W':
				if inClass {
					b.WriteString(`\W`)
				} else {
					b.WriteString(`[^\p{L}\p{N}_]`)
				}
			case 'S':
				if inClass {
					b.WriteString(`\S`)
				} else {
					b.WriteString(`[^\s\p{Z}]`)
				}
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// a leading ']' (or '^]') is a literal member of the class
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(pattern) && pattern[i+1] == ']' {
				i++
				b.WriteByte(']')
			}
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
