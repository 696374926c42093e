// Package keywords picks the most frequent meaningful words of an article
// for use as post labels.
package keywords

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jmylchreest/repost/internal/logger"
)

// Defaults used when Config leaves fields empty.
const (
	DefaultLanguage = "ar"
	DefaultCount    = 5
)

var (
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	digitsRe      = regexp.MustCompile(`\p{Nd}+`)
)

// Config controls extraction.
type Config struct {
	Language string `mapstructure:"language" json:"language" yaml:"language"`
	Count    int    `mapstructure:"count" json:"count" yaml:"count" validate:"gte=0"`
}

// Extractor ranks words by frequency.
type Extractor struct {
	cfg   Config
	strip *bluemonday.Policy
}

// New creates an extractor.
func New(cfg Config) *Extractor {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	strip := bluemonday.StripTagsPolicy()
	strip.AddSpaceWhenStrippingTag(true)
	return &Extractor{cfg: cfg, strip: strip}
}

// Text returns the visible text of an HTML fragment.
func (e *Extractor) Text(htmlContent string) string {
	text := html.UnescapeString(e.strip.Sanitize(htmlContent))
	return strings.Join(strings.Fields(text), " ")
}

// FromHTML strips markup and extracts keywords in the configured language.
func (e *Extractor) FromHTML(htmlContent string) []string {
	return e.Extract(e.Text(htmlContent), "")
}

// Extract returns up to Count keywords from text, most frequent first. Ties
// keep first-occurrence order. lang overrides the configured language.
func (e *Extractor) Extract(text, lang string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if lang == "" {
		lang = e.cfg.Language
	}
	lang = strings.ToLower(lang)

	cleaned := normalize(text)
	if lang != "ar" {
		cleaned = cases.Lower(language.Make(lang)).String(cleaned)
	}

	minLen := 2
	if lang == "ar" {
		minLen = 3
	}
	stop := stopwords[lang]
	if stop == nil {
		logger.Debug("no stopwords for language", "language", lang)
	}

	var tokens []string
	for _, w := range strings.Fields(cleaned) {
		if !isAlpha(w) || utf8.RuneCountInString(w) < minLen || stop[w] {
			continue
		}
		tokens = append(tokens, w)
	}

	if len(tokens) == 0 {
		logger.Warn("no tokens left after filtering, using fallback", "language", lang)
		return e.fallback(text)
	}

	keywords := mostCommon(tokens, e.cfg.Count)
	logger.Debug("keywords extracted", "language", lang, "keywords", keywords)
	return keywords
}

// fallback keeps any lowercased word longer than four runes.
func (e *Extractor) fallback(text string) []string {
	var long []string
	for _, w := range strings.Fields(strings.ToLower(normalize(text))) {
		if utf8.RuneCountInString(w) > 4 {
			long = append(long, w)
		}
	}
	if len(long) == 0 {
		return nil
	}
	return mostCommon(long, e.cfg.Count)
}

// normalize composes the text and drops punctuation and digit runs.
func normalize(text string) string {
	text = norm.NFC.String(text)
	text = punctuationRe.ReplaceAllString(text, "")
	return digitsRe.ReplaceAllString(text, " ")
}

func isAlpha(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return w != ""
}

// mostCommon returns the n most frequent words. Equal counts keep the order
// in which the words first appeared.
func mostCommon(words []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
