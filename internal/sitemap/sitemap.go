// Package sitemap walks XML sitemaps and lists the article URLs they
// announce, newest first.
package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/fetcher"
)

// Entry is one article URL with its last modification time. LastMod is the
// zero time when the sitemap gives none or it cannot be parsed.
type Entry struct {
	URL     string    `json:"url" yaml:"url"`
	LastMod time.Time `json:"lastmod,omitempty" yaml:"lastmod,omitempty"`
}

// Config controls the walk.
type Config struct {
	// Delay is the pause between two sitemap fetches.
	Delay time.Duration `mapstructure:"delay"`
	// MaxSitemaps bounds the number of sitemap files read. 0 means no limit.
	MaxSitemaps int `mapstructure:"max_sitemaps"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{Delay: time.Second}
}

var fetchHeaders = map[string]string{
	"Accept":          "application/xml,text/xml;q=0.9",
	"Accept-Language": "en-US,en;q=0.8,ar;q=0.7",
}

// Reader walks sitemaps with a fetcher.
type Reader struct {
	cfg     Config
	fetcher fetcher.Fetcher
}

// NewReader creates a reader.
func NewReader(cfg Config, f fetcher.Fetcher) *Reader {
	return &Reader{cfg: cfg, fetcher: f}
}

// URLs returns the article URLs reachable from sitemapURL, sorted by
// lastmod descending.
func (r *Reader) URLs(ctx context.Context, sitemapURL string) ([]string, error) {
	entries, err := r.Entries(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	return urls, nil
}

// Entries walks sitemapURL breadth-first. Nested sitemap indexes are
// followed, each sitemap is read once, and only same-host article URLs are
// kept. A sitemap that fails to load is logged and skipped. Equal lastmod
// values keep document order.
func (r *Reader) Entries(ctx context.Context, sitemapURL string) ([]Entry, error) {
	base, err := url.Parse(sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sitemap URL %q: %w", sitemapURL, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("sitemap URL %q has no host", sitemapURL)
	}

	var entries []Entry
	pending := []string{sitemapURL}
	processed := make(map[string]bool)
	read := 0

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := pending[0]
		pending = pending[1:]
		if processed[current] {
			continue
		}
		processed[current] = true

		if r.cfg.MaxSitemaps > 0 && read >= r.cfg.MaxSitemaps {
			logger.Warn("sitemap limit reached", "limit", r.cfg.MaxSitemaps, "skipped", current)
			break
		}
		read++

		children, found, err := r.read(ctx, current, base.Host)
		if err != nil {
			logger.Error("sitemap skipped", "url", current, "error", err)
		}
		pending = append(pending, children...)
		entries = append(entries, found...)

		if len(pending) > 0 && r.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.Delay):
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastMod.After(entries[j].LastMod)
	})
	logger.Info("sitemap walk complete", "sitemap", sitemapURL, "sitemaps", read, "urls", len(entries))
	return entries, nil
}

// read fetches and parses one sitemap file. It returns the nested sitemap
// locations of an index, or the article entries of a URL set.
func (r *Reader) read(ctx context.Context, sitemapURL, host string) ([]string, []Entry, error) {
	logger.Info("fetching sitemap", "url", sitemapURL)
	content, err := r.fetcher.Fetch(ctx, sitemapURL, fetcher.Options{Headers: fetchHeaders})
	if err != nil {
		if errors.Is(err, fetcher.ErrForbidden) {
			logger.Error("sitemap forbidden", "url", sitemapURL)
		}
		return nil, nil, err
	}
	return Parse(content.HTML, host)
}

// Parse reads a sitemap document. Nested sitemap locations are returned as
// is; URL entries are filtered with IsArticleURL against host.
func Parse(doc, host string) (children []string, entries []Entry, err error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, nil, fmt.Errorf("parse sitemap: %w", err)
	}

	sitemaps := xmlquery.Find(root, "/*/*[local-name()='sitemap']")
	urls := xmlquery.Find(root, "/*/*[local-name()='url']")

	switch {
	case len(sitemaps) > 0:
		for _, n := range sitemaps {
			if loc := childText(n, "loc"); loc != "" {
				children = append(children, loc)
			}
		}
	case len(urls) > 0:
		for _, n := range urls {
			loc := childText(n, "loc")
			if loc == "" || !IsArticleURL(loc, host) {
				continue
			}
			entries = append(entries, Entry{URL: loc, LastMod: parseLastMod(childText(n, "lastmod"))})
		}
	default:
		logger.Warn("sitemap has no <sitemap> or <url> elements")
	}
	return children, entries, nil
}

func childText(n *xmlquery.Node, name string) string {
	if c := xmlquery.FindOne(n, "*[local-name()='"+name+"']"); c != nil {
		return strings.TrimSpace(c.InnerText())
	}
	return ""
}

var lastModLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseLastMod accepts the W3C datetime profiles sitemaps use. Values
// without a zone are taken as UTC; unparseable values give the zero time.
func parseLastMod(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range lastModLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	logger.Debug("unparseable lastmod", "value", s)
	return time.Time{}
}
