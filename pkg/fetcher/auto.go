package fetcher

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/repost/internal/logger"
)

// AutoFetcher fetches statically and switches to the browser when the page
// looks like a JavaScript shell.
type AutoFetcher struct {
	static  *StaticFetcher
	dynamic *DynamicFetcher
}

// NewAuto creates a fetcher that detects JavaScript-rendered pages.
func NewAuto(cfg Config) (*AutoFetcher, error) {
	dynamic, err := NewDynamic(cfg)
	if err != nil {
		return nil, err
	}
	return &AutoFetcher{
		static:  NewStatic(cfg),
		dynamic: dynamic,
	}, nil
}

// Fetch tries static first, then dynamic if the static result is unusable.
func (f *AutoFetcher) Fetch(ctx context.Context, url string, opts Options) (Content, error) {
	content, err := f.static.Fetch(ctx, url, opts)
	switch {
	case errors.Is(err, ErrContentTooLarge), errors.Is(err, ErrForbidden), ctx.Err() != nil:
		return content, err
	case err != nil:
		logger.Debug("static fetch failed, trying browser", "url", url, "error", err)
		return f.dynamic.Fetch(ctx, url, opts)
	case NeedsJavaScript(content.HTML):
		logger.Debug("page needs JavaScript, trying browser", "url", url)
		return f.dynamic.Fetch(ctx, url, opts)
	}
	return content, nil
}

var spaMarkers = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<app-root></app-root>`,
	`<div id="__next"></div>`,
	`<div id="__nuxt"></div>`,
	`<div data-reactroot`,
	`ng-app`,
	`v-cloak`,
}

// NeedsJavaScript reports whether html looks like a client-rendered shell.
func NeedsJavaScript(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range spaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	noscript := strings.ToLower(doc.Find("noscript").Text())
	if strings.Contains(noscript, "javascript") && (strings.Contains(noscript, "enable") || strings.Contains(noscript, "required")) {
		return true
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	if len(text) < 100 {
		for _, indicator := range []string{"loading", "please wait", "javascript required", "enable javascript"} {
			if strings.Contains(text, indicator) {
				return true
			}
		}
	}
	return false
}

// Close releases all fetcher resources.
func (f *AutoFetcher) Close() error {
	return f.dynamic.Close()
}

// Type returns the fetcher type.
func (f *AutoFetcher) Type() string {
	return "auto"
}
