// Package permalink suggests an English title and a URL slug for a post.
package permalink

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"github.com/jmylchreest/repost/internal/logger"
)

// MaxSlugLength is the default slug cap.
const MaxSlugLength = 75

const fallbackSlugLength = 30

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	slugUnsafeRe = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
)

// Translator renders a title in English.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang string) (string, error)
}

// Suggestion is the generator's output.
type Suggestion struct {
	// Title is the English rendering of the original title.
	Title string `json:"title" yaml:"title"`
	Slug  string `json:"slug" yaml:"slug"`
}

// Generator builds suggestions. The zero value transliterates only.
type Generator struct {
	translator    Translator
	maxSlugLength int
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithTranslator enables translation. A nil translator keeps
// transliteration only.
func WithTranslator(t Translator) Option {
	return func(g *Generator) {
		g.translator = t
	}
}

// WithMaxSlugLength overrides MaxSlugLength. Non-positive values are ignored.
func WithMaxSlugLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxSlugLength = n
		}
	}
}

// WithClock sets the time source used by the last-resort slug.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{maxSlugLength: MaxSlugLength, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Suggest returns the English title and slug for title. sourceLang is passed
// to the translator as a hint.
func (g *Generator) Suggest(ctx context.Context, title, sourceLang string) Suggestion {
	if strings.TrimSpace(title) == "" {
		return Suggestion{Title: "Untitled Post", Slug: "untitled-post"}
	}

	english := g.english(ctx, title, sourceLang)
	slug := g.slug(english, title)

	logger.Info("permalink suggested", "title", preview(title), "english", preview(english), "slug", slug)
	return Suggestion{Title: english, Slug: slug}
}

func (g *Generator) english(ctx context.Context, title, sourceLang string) string {
	if g.translator == nil {
		logger.Debug("translation disabled, transliterating", "title", preview(title))
		return unidecode.Unidecode(title)
	}
	translated, err := g.translator.Translate(ctx, title, sourceLang)
	if err != nil || strings.TrimSpace(translated) == "" {
		logger.Warn("title translation failed, transliterating", "title", preview(title), "error", err)
		return unidecode.Unidecode(title)
	}
	return strings.TrimSpace(translated)
}

func (g *Generator) slug(english, original string) string {
	slug := Slugify(english, g.maxSlugLength)
	if slug != "" {
		return slug
	}

	fallback := slugChars(original)
	if len(fallback) > fallbackSlugLength {
		fallback = fallback[:fallbackSlugLength]
	}
	if fallback = strings.Trim(fallback, "-"); fallback != "" {
		return fallback
	}
	return "post-" + strconv.FormatInt(g.now().Unix(), 10)
}

// Slugify lowercases and transliterates s, turns whitespace into hyphens,
// keeps only [a-z0-9-], collapses hyphen runs and caps the result at
// maxLen bytes. It may return "".
func Slugify(s string, maxLen int) string {
	slug := hyphenRunRe.ReplaceAllString(slugChars(s), "-")
	slug = strings.Trim(slug, "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}

// slugChars is the shared first step: transliterate, hyphenate whitespace,
// drop everything outside [a-z0-9-].
func slugChars(s string) string {
	s = strings.ToLower(unidecode.Unidecode(strings.ToLower(s)))
	s = spaceRe.ReplaceAllString(s, "-")
	return slugUnsafeRe.ReplaceAllString(s, "")
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return s
}
