package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/fetcher"
)

// LinkSelector extracts article links from a listing page.
type LinkSelector struct {
	CSSSelector string         // links to collect, default a[href]
	URLPattern  *regexp.Regexp // optional filter on the absolute URL
}

// NewLinkSelector creates a link selector.
func NewLinkSelector(cssSelector, urlPattern string) (*LinkSelector, error) {
	ls := &LinkSelector{CSSSelector: cssSelector}
	if urlPattern != "" {
		pattern, err := regexp.Compile(urlPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid link pattern: %w", err)
		}
		ls.URLPattern = pattern
	}
	return ls, nil
}

// ExtractLinks returns the matching absolute links of a page, without
// fragments, deduplicated in document order.
func (ls *LinkSelector) ExtractLinks(page, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	selector := ls.CSSSelector
	if selector == "" {
		selector = "a[href]"
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		link, ok := resolveHref(s, base)
		if !ok {
			return
		}
		if ls.URLPattern != nil && !ls.URLPattern.MatchString(link) {
			return
		}
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links, nil
}

// nextPage returns the first link matched by selector.
func nextPage(page, baseURL, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", false
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	return resolveHref(doc.Find(selector).First(), base)
}

// resolveHref returns the absolute href of s, skipping fragment-only and
// javascript links.
func resolveHref(s *goquery.Selection, base *url.URL) (string, bool) {
	href := strings.TrimSpace(s.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String(), true
}

// DiscoverConfig controls listing-page discovery.
type DiscoverConfig struct {
	LinkSelector string `mapstructure:"link_selector"`
	LinkPattern  string `mapstructure:"link_pattern"`
	NextSelector string `mapstructure:"next_selector"`
	// MaxPages bounds the listing pages visited, pagination included.
	MaxPages int `mapstructure:"max_pages"`
	// SameHost drops links that leave the listing's host.
	SameHost bool `mapstructure:"same_host"`
}

// Discover collects article links from a listing page and, when
// NextSelector is set, from the pages it paginates to. A page that fails
// to load ends the walk; links found so far are returned with the error.
func Discover(ctx context.Context, f fetcher.Fetcher, listingURL string, cfg DiscoverConfig) ([]string, error) {
	selector, err := NewLinkSelector(cfg.LinkSelector, cfg.LinkPattern)
	if err != nil {
		return nil, err
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	listing, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL %q: %w", listingURL, err)
	}

	queue := NewURLQueue()
	var links []string
	visited := make(map[string]bool)
	current := listingURL

	for page := 0; page < maxPages && current != "" && !visited[current]; page++ {
		if err := ctx.Err(); err != nil {
			return links, err
		}
		visited[current] = true

		logger.Info("reading listing page", "url", current, "page", page+1)
		content, err := f.Fetch(ctx, current, fetcher.Options{})
		if err != nil {
			return links, fmt.Errorf("listing %s: %w", current, err)
		}

		found, err := selector.ExtractLinks(content.HTML, current)
		if err != nil {
			return links, fmt.Errorf("listing %s: %w", current, err)
		}
		added := 0
		for _, link := range found {
			if cfg.SameHost && !sameHost(listing, link) {
				continue
			}
			if queue.Add(link) {
				links = append(links, normalizeURL(link))
				added++
			}
		}
		logger.Debug("listing links collected", "url", current, "found", len(found), "added", added)

		next, ok := nextPage(content.HTML, current, cfg.NextSelector)
		if !ok {
			break
		}
		current = next
	}
	return links, nil
}

func sameHost(base *url.URL, link string) bool {
	u, err := url.Parse(link)
	return err == nil && u.Host == base.Host
}
