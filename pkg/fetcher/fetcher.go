// Package fetcher retrieves article and sitemap pages. A static fetcher
// (colly) covers plain HTML; a dynamic fetcher (headless Chrome) renders
// pages that build their content in JavaScript.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL. One attempt is made.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls a single fetch. Zero values fall back to the fetcher's
// Config.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []string // Absolute links found on the page
}

// Config holds settings shared by all fetchers.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize rejects larger pages with ErrContentTooLarge. 0 disables
	// the check.
	MaxBodySize int64
}

// DefaultUserAgent identifies the bot to origin servers.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: DefaultUserAgent,
		Timeout:   35 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrForbidden).
var (
	// ErrContentTooLarge indicates the page exceeded Config.MaxBodySize.
	ErrContentTooLarge = errors.New("content too large")
	// ErrForbidden indicates the origin answered 403.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyBody indicates a successful response with no content.
	ErrEmptyBody = errors.New("empty response body")
)

// Mode determines how pages are fetched.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// New creates a fetcher for mode.
func New(mode Mode, cfg Config) (Fetcher, error) {
	switch mode {
	case ModeStatic, "":
		return NewStatic(cfg), nil
	case ModeDynamic:
		return NewDynamic(cfg)
	case ModeAuto:
		return NewAuto(cfg)
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", mode)
	}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
