// Package pipeline runs the republishing cycle: scrape each article,
// re-host its images, format it, label it, publish it and remember it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/repost/internal/keywords"
	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/permalink"
	"github.com/jmylchreest/repost/internal/publisher"
	"github.com/jmylchreest/repost/internal/scraper"
	"github.com/jmylchreest/repost/internal/store"
	"github.com/jmylchreest/repost/pkg/formatter"
	"github.com/jmylchreest/repost/pkg/rules"
)

// ErrEmptyContent marks an article whose formatted body is empty.
var ErrEmptyContent = errors.New("empty content")

// ArticleScraper fetches and extracts one article.
type ArticleScraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Article, error)
}

// Result describes the outcome for one URL.
type Result struct {
	URL      string              `json:"url" yaml:"url"`
	Title    string              `json:"title,omitempty" yaml:"title,omitempty"`
	Slug     string              `json:"slug,omitempty" yaml:"slug,omitempty"`
	Location string              `json:"location,omitempty" yaml:"location,omitempty"`
	Labels   []string            `json:"labels,omitempty" yaml:"labels,omitempty"`
	Skipped  bool                `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Stats    *formatter.Stats    `json:"-" yaml:"-"`
	Warnings []formatter.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error    error               `json:"-" yaml:"-"`
	Duration time.Duration       `json:"duration" yaml:"duration"`
}

// Config controls a run.
type Config struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=0"`
	Delay       time.Duration `mapstructure:"delay"`
	// MaxArticles stops dispatching once this many posts were published.
	// 0 means no limit.
	MaxArticles int `mapstructure:"max_articles" validate:"gte=0"`
	// Language is the source language hint for keywords and translation.
	Language string `mapstructure:"language"`
	// Labels replace keyword extraction when set.
	Labels []string `mapstructure:"labels"`
	// DefaultLabels are put in front of extracted keywords.
	DefaultLabels []string `mapstructure:"default_labels"`
	MaxLabels     int      `mapstructure:"max_labels" validate:"gte=0"`
	Draft         bool     `mapstructure:"draft"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 1,
		Delay:       30 * time.Second,
		Language:    keywords.DefaultLanguage,
		MaxLabels:   publisher.DefaultMaxLabels,
	}
}

// Runner orchestrates the cycle.
type Runner struct {
	cfg        Config
	scraper    ArticleScraper
	publisher  publisher.Publisher
	formatter  *formatter.Formatter
	uploader   Uploader
	store      *store.Published
	keywords   *keywords.Extractor
	permalinks *permalink.Generator
	rules      *rules.RuleSet
}

// Option configures a Runner.
type Option func(*Runner)

// WithFormatter sets the content formatter.
func WithFormatter(f *formatter.Formatter) Option {
	return func(r *Runner) { r.formatter = f }
}

// WithUploader sets the image uploader.
func WithUploader(u Uploader) Option {
	return func(r *Runner) { r.uploader = u }
}

// WithStore sets the published-URL store.
func WithStore(s *store.Published) Option {
	return func(r *Runner) { r.store = s }
}

// WithKeywords sets the label extractor.
func WithKeywords(k *keywords.Extractor) Option {
	return func(r *Runner) { r.keywords = k }
}

// WithPermalinks sets the title and slug generator.
func WithPermalinks(g *permalink.Generator) Option {
	return func(r *Runner) { r.permalinks = g }
}

// WithRules sets the publishing rule set applied by the formatter.
func WithRules(rs *rules.RuleSet) Option {
	return func(r *Runner) { r.rules = rs }
}

// New creates a runner. Collaborators not given as options get defaults:
// the default formatter, pass-through image hosting, an in-memory store,
// keyword labels and transliterated slugs.
func New(cfg Config, s ArticleScraper, p publisher.Publisher, opts ...Option) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxLabels == 0 {
		cfg.MaxLabels = publisher.DefaultMaxLabels
	}
	r := &Runner{cfg: cfg, scraper: s, publisher: p}
	for _, opt := range opts {
		opt(r)
	}
	if r.formatter == nil {
		r.formatter = formatter.New(nil)
	}
	if r.uploader == nil {
		r.uploader = PassthroughUploader{}
	}
	if r.store == nil {
		r.store, _ = store.Open("")
	}
	if r.keywords == nil {
		r.keywords = keywords.New(keywords.Config{Language: cfg.Language})
	}
	if r.permalinks == nil {
		r.permalinks = permalink.New()
	}
	return r
}

// Run processes urls and streams one Result per URL. Duplicate URLs are
// dropped and already published ones reported as skipped. A failing
// article never stops the run. Cancellation is honored between articles;
// an article in progress runs to completion. The channel is closed when
// the run ends.
func (r *Runner) Run(ctx context.Context, urls []string) <-chan Result {
	results := make(chan Result, 100)

	go func() {
		defer close(results)
		r.run(ctx, urls, results)
	}()

	return results
}

func (r *Runner) run(ctx context.Context, urls []string, results chan<- Result) {
	logger.Info("run started",
		"urls", len(urls),
		"concurrency", r.cfg.Concurrency,
		"delay", r.cfg.Delay,
		"max_articles", r.cfg.MaxArticles)

	queue := NewURLQueue()
	for _, u := range urls {
		if !queue.Add(u) {
			logger.Debug("dropping duplicate or invalid URL", "url", u)
		}
	}

	var published atomic.Int64
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	dispatched := 0

	for {
		// Holding a slot before checking the limit keeps MaxArticles exact
		// when Concurrency is 1.
		sem <- struct{}{}

		if dispatched > 0 && r.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.cfg.Delay):
			}
		}
		if ctx.Err() != nil {
			logger.Info("run cancelled", "remaining", queue.Len())
			<-sem
			break
		}
		if r.cfg.MaxArticles > 0 && published.Load() >= int64(r.cfg.MaxArticles) {
			logger.Info("reached max articles for this run", "max_articles", r.cfg.MaxArticles)
			<-sem
			break
		}

		u, ok := queue.Pop()
		if !ok {
			<-sem
			break
		}
		if r.store.Contains(u) {
			logger.Debug("already published, skipping", "url", u)
			results <- Result{URL: u, Skipped: true}
			<-sem
			continue
		}

		dispatched++
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-sem }()

			res := r.Process(context.WithoutCancel(ctx), u)
			if res.Error == nil {
				published.Add(1)
			}
			results <- res
		}(u)
	}

	wg.Wait()
	logger.Info("run finished", "published", published.Load(), "dispatched", dispatched)
}

// Process runs the full cycle for one URL.
func (r *Runner) Process(ctx context.Context, url string) (res Result) {
	start := time.Now()
	res.URL = url
	defer func() {
		res.Duration = time.Since(start)
		if res.Error != nil {
			logger.Error("article failed", "url", url, "error", res.Error, "duration", res.Duration.Round(time.Millisecond))
		}
	}()

	logger.Info("processing article", "url", url)
	article, err := r.scraper.Scrape(ctx, url)
	if err != nil {
		res.Error = fmt.Errorf("scrape: %w", err)
		return res
	}

	suggestion := r.permalinks.Suggest(ctx, article.Title, r.cfg.Language)
	images, feature := hostImages(ctx, r.uploader, article)

	// Site junk was already removed while scraping, so the formatter gets no
	// SourceURL and only the scraper's counts are reported.
	formatted := r.formatter.FormatWithStats(formatter.Input{
		RawHTML:         article.RawHTML,
		Images:          images,
		FeatureImageURL: feature,
		Title:           article.Title,
		Rules:           r.rules,
	})
	res.Stats = formatted.Stats
	res.Stats.JunkDecomposed = article.Junk.Decomposed
	res.Stats.JunkInlineEdits = article.Junk.InlineEdits
	res.Warnings = formatted.Warnings
	if strings.TrimSpace(formatted.Content) == "" {
		res.Error = fmt.Errorf("format %s: %w", url, ErrEmptyContent)
		return res
	}

	post := publisher.Post{
		Title:           PostTitle(article.Title, suggestion.Title),
		Slug:            suggestion.Slug,
		Content:         formatted.Content,
		Labels:          r.labels(article),
		SourceURL:       article.SourceURL,
		FeatureImageURL: feature,
		Draft:           r.cfg.Draft,
	}
	location, err := r.publisher.Publish(ctx, post)
	if err != nil {
		res.Error = fmt.Errorf("publish: %w", err)
		return res
	}

	if err := r.store.Add(url); err != nil {
		logger.Error("failed to record published URL", "url", url, "error", err)
	}

	res.Title = post.Title
	res.Slug = post.Slug
	res.Labels = post.Labels
	res.Location = location
	logger.Info("article published", "url", url, "location", location, "duration", time.Since(start).Round(time.Millisecond))
	return res
}

// labels returns the configured labels, or the default labels followed by
// keywords extracted from the article.
func (r *Runner) labels(article *scraper.Article) []string {
	if len(r.cfg.Labels) > 0 {
		return publisher.NormalizeLabels(r.cfg.Labels, r.cfg.MaxLabels)
	}
	extracted := r.keywords.FromHTML(article.RawHTML)
	combined := append(append([]string{}, r.cfg.DefaultLabels...), extracted...)
	return publisher.NormalizeLabels(combined, r.cfg.MaxLabels)
}

// PostTitle appends the English rendering to the original title when it
// adds something.
func PostTitle(original, english string) string {
	english = strings.TrimSpace(english)
	if english == "" || english == strings.TrimSpace(original) {
		return original
	}
	return fmt.Sprintf("%s (%s)", original, english)
}

// Summary counts results by outcome.
type Summary struct {
	Published int
	Skipped   int
	Failed    int
}

// Add counts one result.
func (s *Summary) Add(res Result) {
	switch {
	case res.Skipped:
		s.Skipped++
	case res.Error != nil:
		s.Failed++
	default:
		s.Published++
	}
}
