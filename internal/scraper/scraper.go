// Package scraper turns an article page into the pieces the formatter needs:
// title, raw content HTML, in-content image references and a feature image.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/cleaner"
	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/junk"
)

// ErrNoTitle is returned when no selector, JSON-LD headline or og:title
// yields a title. Such pages are skipped.
var ErrNoTitle = errors.New("no title found")

// ImageRef is an image found inside the content container.
type ImageRef struct {
	// OriginalSrc is the attribute value as it appears in the markup.
	OriginalSrc string `json:"original_src" yaml:"original_src"`
	// FullURL is OriginalSrc without its query, resolved against the page.
	FullURL string `json:"full_url" yaml:"full_url"`
	AltText string `json:"alt_text" yaml:"alt_text"`
}

// ContentSource records how the content HTML was obtained.
type ContentSource string

const (
	SourceSelector    ContentSource = "selector"
	SourceReadability ContentSource = "readability"
	SourceTrafilatura ContentSource = "trafilatura"
	SourcePlaceholder ContentSource = "placeholder"
)

// Extractor pulls the main content out of a whole page. Extract returns ""
// when it finds nothing usable.
type Extractor interface {
	Extract(page, pageURL string) (string, error)
	Name() string
}

// Article is the scraped result.
type Article struct {
	SourceURL       string        `json:"source_url" yaml:"source_url"`
	Title           string        `json:"title" yaml:"title"`
	RawHTML         string        `json:"raw_html" yaml:"raw_html"`
	FeatureImageURL string        `json:"feature_image_url,omitempty" yaml:"feature_image_url,omitempty"`
	Images          []ImageRef    `json:"images,omitempty" yaml:"images,omitempty"`
	ContentSource   ContentSource `json:"content_source" yaml:"content_source"`
	Junk            junk.Report   `json:"junk" yaml:"junk"`
}

// Config holds the page selectors.
type Config struct {
	TitleSelectors   []string `mapstructure:"title_selectors" validate:"min=1"`
	ContentSelectors []string `mapstructure:"content_selectors" validate:"min=1"`
	ExcludeSelectors []string `mapstructure:"exclude_selectors"`
	// MaxContentSize rejects pages larger than this many bytes. 0 disables
	// the check.
	MaxContentSize int64 `mapstructure:"max_content_size"`
}

// DefaultConfig returns the generic selectors.
func DefaultConfig() Config {
	return Config{
		TitleSelectors:   []string{"h1"},
		ContentSelectors: []string{"article"},
	}
}

// Scraper extracts articles from pages.
type Scraper struct {
	cfg         Config
	fetcher     fetcher.Fetcher
	junk        *junk.Filter
	readability *cleaner.ReadabilityCleaner
	extractors  []Extractor
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithJunkFilter replaces the default site junk filter.
func WithJunkFilter(f *junk.Filter) Option {
	return func(s *Scraper) {
		s.junk = f
	}
}

// WithReadability sets the fallback used when no content selector matches.
// Pass nil to disable the fallback.
func WithReadability(r *cleaner.ReadabilityCleaner) Option {
	return func(s *Scraper) {
		s.readability = r
	}
}

// WithExtractor adds a fallback tried, in order, after readability.
func WithExtractor(e Extractor) Option {
	return func(s *Scraper) {
		if e != nil {
			s.extractors = append(s.extractors, e)
		}
	}
}

// New creates a scraper. f may be nil when only Extract is used.
func New(cfg Config, f fetcher.Fetcher, opts ...Option) *Scraper {
	if len(cfg.TitleSelectors) == 0 {
		cfg.TitleSelectors = DefaultConfig().TitleSelectors
	}
	if len(cfg.ContentSelectors) == 0 {
		cfg.ContentSelectors = DefaultConfig().ContentSelectors
	}
	s := &Scraper{
		cfg:         cfg,
		fetcher:     f,
		junk:        junk.Default(),
		readability: cleaner.NewReadability(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.junk == nil {
		s.junk = junk.NewFilter(nil)
	}
	return s
}

// Scrape fetches pageURL and extracts the article.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*Article, error) {
	if s.fetcher == nil {
		return nil, errors.New("scraper has no fetcher")
	}
	logger.Info("scraping article", "url", pageURL, "fetcher", s.fetcher.Type())

	content, err := s.fetcher.Fetch(ctx, pageURL, fetcher.Options{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return s.Extract(pageURL, content.HTML)
}

// Extract builds an Article from an already fetched page.
func (s *Scraper) Extract(pageURL, page string) (*Article, error) {
	if s.cfg.MaxContentSize > 0 && int64(len(page)) > s.cfg.MaxContentSize {
		return nil, fmt.Errorf("%s: %w", pageURL, fetcher.ErrContentTooLarge)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	base, _ := url.Parse(pageURL)
	ld := jsonLDArticles(doc)

	title := s.title(doc, ld)
	if title == "" {
		logger.Error("no title found, skipping", "url", pageURL)
		return nil, fmt.Errorf("%s: %w", pageURL, ErrNoTitle)
	}

	article := &Article{SourceURL: pageURL, Title: title}

	if container := firstMatch(doc.Selection, s.cfg.ContentSelectors); container != nil {
		article.Junk = s.junk.Apply(pageURL, container)
		for _, sel := range s.cfg.ExcludeSelectors {
			container.Find(sel).Remove()
		}
		article.Images = contentImages(container, base, title)
		raw, err := goquery.OuterHtml(container)
		if err != nil {
			return nil, fmt.Errorf("render content %s: %w", pageURL, err)
		}
		article.RawHTML = raw
		article.ContentSource = SourceSelector
	} else {
		s.fallbackContent(article, page, base)
	}

	article.FeatureImageURL = featureImage(doc, ld, base, article.Images)
	if article.FeatureImageURL == "" {
		logger.Warn("no feature image determined", "url", pageURL)
	}

	logger.Debug("article extracted",
		"url", pageURL,
		"title", title,
		"source", article.ContentSource,
		"images", len(article.Images),
		"junk_removed", article.Junk.Decomposed+article.Junk.InlineEdits)
	return article, nil
}

// fallbackContent fills RawHTML when no content selector matched.
func (s *Scraper) fallbackContent(article *Article, page string, base *url.URL) {
	logger.Warn("no content container matched", "url", article.SourceURL, "selectors", s.cfg.ContentSelectors)

	chain := s.extractors
	if s.readability != nil {
		chain = append([]Extractor{s.readability}, chain...)
	}
	for _, e := range chain {
		extracted, err := e.Extract(page, article.SourceURL)
		if err != nil {
			logger.Warn("content extraction failed", "extractor", e.Name(), "url", article.SourceURL, "error", err)
			continue
		}
		if strings.TrimSpace(extracted) == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(extracted))
		if err != nil {
			continue
		}
		body := doc.Find("body")
		report := s.junk.Apply(article.SourceURL, body)
		out, err := body.Html()
		if err != nil || strings.TrimSpace(out) == "" {
			continue
		}
		article.Junk = report
		article.Images = contentImages(body, base, article.Title)
		article.RawHTML = out
		article.ContentSource = ContentSource(e.Name())
		return
	}

	article.RawHTML = fmt.Sprintf("<p><i>[Content for '%s' could not be extracted. Source: %s]</i></p>",
		html.EscapeString(article.Title), html.EscapeString(article.SourceURL))
	article.ContentSource = SourcePlaceholder
}

// title tries the selectors, then JSON-LD, then og:title.
func (s *Scraper) title(doc *goquery.Document, ld []map[string]any) string {
	if sel := firstMatch(doc.Selection, s.cfg.TitleSelectors); sel != nil {
		if t := collapse(sel.Text()); t != "" {
			return t
		}
	}
	for _, obj := range ld {
		if h, ok := obj["headline"].(string); ok && strings.TrimSpace(h) != "" {
			return strings.TrimSpace(h)
		}
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

// firstMatch returns the first element matched by the first selector that
// matches anything.
func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		// Invalid selectors match nothing.
		if found := root.Find(sel); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
