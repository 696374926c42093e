//go:build trafilatura

package cleaner

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// TrafilaturaConfig configures the Trafilatura extractor.
type TrafilaturaConfig struct {
	// Output format: OutputHTML (default) or OutputText
	Output OutputFormat
	// Comments keeps reader comments found below the article.
	Comments bool
	// ExcludeTables drops tables from the extracted content.
	ExcludeTables bool
	// FavorPrecision trades recall for less boilerplate.
	FavorPrecision bool
	// Pretty indents HTML output with gohtml.
	Pretty bool
}

// TrafilaturaCleaner extracts the main content of a page with go-trafilatura.
// It is the second fallback after readability for pages where no content
// selector matched. Links and images are always kept so the formatter can
// rehost images and drop internal links itself.
type TrafilaturaCleaner struct {
	cfg  TrafilaturaConfig
	opts trafilatura.Options
}

// NewTrafilatura creates a Trafilatura extractor.
// Pass nil for default configuration.
func NewTrafilatura(cfg *TrafilaturaConfig) *TrafilaturaCleaner {
	if cfg == nil {
		cfg = &TrafilaturaConfig{}
	}
	return &TrafilaturaCleaner{
		cfg: *cfg,
		opts: trafilatura.Options{
			ExcludeComments: !cfg.Comments,
			ExcludeTables:   cfg.ExcludeTables,
			IncludeLinks:    true,
			IncludeImages:   true,
			FavorPrecision:  cfg.FavorPrecision,
			EnableFallback:  true,
		},
	}
}

// Extract returns the main content of a page, or "" if trafilatura found
// nothing usable. pageURL may be empty.
func (c *TrafilaturaCleaner) Extract(htmlContent, pageURL string) (string, error) {
	opts := c.opts
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			opts.OriginalURL = u
		}
	}

	result, err := trafilatura.Extract(strings.NewReader(htmlContent), opts)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}

	if c.cfg.Output == OutputText || result.ContentNode == nil {
		return strings.TrimSpace(result.ContentText), nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return strings.TrimSpace(result.ContentText), nil
	}
	out := strings.TrimSpace(buf.String())
	if out != "" && c.cfg.Pretty {
		out = gohtml.Format(out)
	}
	return out, nil
}

// Clean extracts the main content, returning the input unchanged when
// nothing could be extracted.
func (c *TrafilaturaCleaner) Clean(htmlContent string) (string, error) {
	out, err := c.Extract(htmlContent, "")
	if err != nil {
		return "", err
	}
	if out == "" {
		return htmlContent, nil
	}
	return out, nil
}

// Name returns the cleaner type.
func (c *TrafilaturaCleaner) Name() string {
	return "trafilatura"
}

// IsAvailable reports whether trafilatura is compiled in.
func (c *TrafilaturaCleaner) IsAvailable() bool {
	return true
}
