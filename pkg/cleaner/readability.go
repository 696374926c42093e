package cleaner

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// OutputFormat selects what the readability cleaner returns.
type OutputFormat int

const (
	// OutputHTML returns the extracted article as HTML (default).
	OutputHTML OutputFormat = iota
	// OutputText returns plain text.
	OutputText
)

// ReadabilityConfig configures the Readability cleaner.
type ReadabilityConfig struct {
	// Output format: OutputHTML (default) or OutputText
	Output OutputFormat
	// NTopCandidates is the number of top candidates to consider (default: 5).
	NTopCandidates int
	// CharThreshold is the minimum character count for valid content (default: 500).
	CharThreshold int
	// BaseURL resolves relative URLs in Clean. Extract takes it per call.
	BaseURL string
	// Pretty indents HTML output with gohtml.
	Pretty bool
}

// ReadabilityCleaner extracts the main content of a page with go-readability.
// The scraper uses it when none of the configured content selectors match.
type ReadabilityCleaner struct {
	cfg    ReadabilityConfig
	parser readability.Parser
}

// NewReadability creates a new Readability cleaner.
// Pass nil for default configuration.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityCleaner {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.NTopCandidates > 0 {
		parser.NTopCandidates = cfg.NTopCandidates
	}
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}
	// Classes are never useful downstream; the formatter drops them anyway.
	parser.KeepClasses = false

	return &ReadabilityCleaner{
		cfg:    *cfg,
		parser: parser,
	}
}

// Extract returns the main content of a page, or "" if readability found
// nothing usable. pageURL may be empty.
func (c *ReadabilityCleaner) Extract(htmlContent, pageURL string) (string, error) {
	var baseURL *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			baseURL = u
		}
	}

	article, err := c.parser.Parse(strings.NewReader(htmlContent), baseURL)
	if err != nil {
		return "", err
	}
	if article.Node == nil {
		return "", nil
	}

	var buf bytes.Buffer
	switch c.cfg.Output {
	case OutputText:
		if err := article.RenderText(&buf); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	default:
		if err := article.RenderHTML(&buf); err != nil {
			buf.Reset()
			if err := html.Render(&buf, article.Node); err != nil {
				return "", err
			}
		}
		out := strings.TrimSpace(buf.String())
		if out != "" && c.cfg.Pretty {
			out = gohtml.Format(out)
		}
		return out, nil
	}
}

// Clean extracts the main content, returning the input unchanged when
// nothing could be extracted.
func (c *ReadabilityCleaner) Clean(htmlContent string) (string, error) {
	out, err := c.Extract(htmlContent, c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	if out == "" {
		return htmlContent, nil
	}
	return out, nil
}

// Name returns the cleaner type.
func (c *ReadabilityCleaner) Name() string {
	return "readability"
}
