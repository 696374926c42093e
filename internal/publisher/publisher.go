// Package publisher hands finished posts to their destination.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/output"
	"github.com/jmylchreest/repost/pkg/cleaner"
)

// DefaultMaxLabels caps the labels attached to a post.
const DefaultMaxLabels = 10

// Post is a formatted article ready to publish.
type Post struct {
	Title           string    `json:"title" yaml:"title"`
	Slug            string    `json:"slug" yaml:"slug"`
	Content         string    `json:"content" yaml:"content"`
	Markdown        string    `json:"markdown,omitempty" yaml:"markdown,omitempty"`
	Labels          []string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	SourceURL       string    `json:"source_url" yaml:"source_url"`
	FeatureImageURL string    `json:"feature_image_url,omitempty" yaml:"feature_image_url,omitempty"`
	Draft           bool      `json:"draft" yaml:"draft"`
	PublishedAt     time.Time `json:"published_at" yaml:"published_at"`
}

// HTML returns the post body.
func (p Post) HTML() string {
	return p.Content
}

// Publisher publishes a post and returns where it can be found.
type Publisher interface {
	Publish(ctx context.Context, post Post) (string, error)
}

// Config controls the writer publisher.
type Config struct {
	// BaseURL prefixes the returned location. Without it the slug is
	// returned.
	BaseURL string `mapstructure:"base_url"`
	// Markdown also renders each post to Markdown for messaging targets.
	Markdown  bool `mapstructure:"markdown"`
	MaxLabels int  `mapstructure:"max_labels" validate:"gte=0"`
	Draft     bool `mapstructure:"draft"`
}

// WriterPublisher writes posts through an output.Writer.
type WriterPublisher struct {
	mu       sync.Mutex
	cfg      Config
	w        output.Writer
	markdown *cleaner.MarkdownCleaner
	now      func() time.Time
}

// NewWriterPublisher creates a publisher over w. The caller closes w.
func NewWriterPublisher(w output.Writer, cfg Config) *WriterPublisher {
	if cfg.MaxLabels == 0 {
		cfg.MaxLabels = DefaultMaxLabels
	}
	p := &WriterPublisher{cfg: cfg, w: w, now: time.Now}
	if cfg.Markdown {
		p.markdown = cleaner.NewMarkdown(cleaner.WithDomain(cfg.BaseURL))
	}
	return p
}

// Publish normalizes labels, stamps the post and writes it.
func (p *WriterPublisher) Publish(ctx context.Context, post Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(post.Title) == "" {
		return "", fmt.Errorf("publish %s: empty title", post.SourceURL)
	}

	post.Labels = NormalizeLabels(post.Labels, p.cfg.MaxLabels)
	post.Draft = post.Draft || p.cfg.Draft
	post.PublishedAt = p.now().UTC()

	if p.markdown != nil {
		md, err := p.markdown.Clean(post.Content)
		if err != nil {
			logger.Warn("markdown rendering failed", "url", post.SourceURL, "error", err)
		} else {
			post.Markdown = md
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.w.Write(post); err != nil {
		return "", fmt.Errorf("publish %s: %w", post.SourceURL, err)
	}

	location := post.Slug
	if p.cfg.BaseURL != "" {
		location = strings.TrimRight(p.cfg.BaseURL, "/") + "/" + post.Slug + ".html"
	}
	logger.Info("post published", "title", post.Title, "labels", post.Labels, "location", location, "draft", post.Draft)
	return location, nil
}

// NormalizeLabels trims labels, drops blank and repeated ones and keeps at
// most max (0 means no limit).
func NormalizeLabels(labels []string, max int) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// SplitLabels parses a comma separated label list.
func SplitLabels(s string) []string {
	return NormalizeLabels(strings.Split(s, ","), 0)
}
