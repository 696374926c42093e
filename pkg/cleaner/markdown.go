package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// MarkdownCleaner converts formatted HTML into Markdown for publishing
// targets that do not render HTML (chat channels, plain feeds).
type MarkdownCleaner struct {
	cfg  markdownConfig
	conv *converter.Converter
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	// StripLinks removes link URLs, keeping only the link text
	StripLinks bool
	// StripImages removes images entirely
	StripImages bool
	// Domain resolves relative links and images.
	Domain string
}

// WithStripLinks configures the cleaner to remove link URLs.
func WithStripLinks(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripLinks = strip
	}
}

// WithStripImages configures the cleaner to remove images.
func WithStripImages(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripImages = strip
	}
}

// WithDomain sets the base used for relative URLs.
func WithDomain(domain string) MarkdownOption {
	return func(c *markdownConfig) {
		c.Domain = domain
	}
}

// NewMarkdown creates a new Markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	var cfg markdownConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MarkdownCleaner{
		cfg: cfg,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	if c.cfg.StripImages || c.cfg.StripLinks {
		c.strip(doc)
	}

	var opts []converter.ConvertOptionFunc
	if c.cfg.Domain != "" {
		opts = append(opts, converter.WithDomain(c.cfg.Domain))
	}
	markdown, err := c.conv.ConvertNode(doc, opts...)
	if err != nil {
		return "", err
	}
	return cleanWhitespace(string(markdown)), nil
}

// strip removes images and unwraps anchors according to the options.
func (c *MarkdownCleaner) strip(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode {
			switch {
			case c.cfg.StripImages && child.Data == "img":
				n.RemoveChild(child)
				child = next
				continue
			case c.cfg.StripLinks && child.Data == "a":
				c.strip(child)
				for gc := child.FirstChild; gc != nil; {
					gnext := gc.NextSibling
					child.RemoveChild(gc)
					n.InsertBefore(gc, child)
					gc = gnext
				}
				n.RemoveChild(child)
				child = next
				continue
			}
		}
		c.strip(child)
		child = next
	}
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace collapses runs of blank lines to one and trims the result.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var result []string
	blankCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
		} else {
			blankCount = 0
			result = append(result, strings.TrimRight(line, " \t"))
		}
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
