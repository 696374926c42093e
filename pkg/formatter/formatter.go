package formatter

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/junk"
	"github.com/jmylchreest/repost/pkg/rules"
)

// Input is one article to format.
type Input struct {
	RawHTML string

	// Images maps original image URLs to hosted ones. May be nil.
	Images *ImageMap

	// FeatureImageURL is the hosted feature image, prepended unless it is
	// already the first image in the body.
	FeatureImageURL string

	// Title is the article title, used as image alt fallback.
	Title string

	// Rules are the per-call replacement rules. May be nil.
	Rules *rules.RuleSet

	// SourceURL selects the site junk rules. Empty means none.
	SourceURL string
}

// Formatter runs the formatting pipeline. It holds no per-call state and is
// safe for concurrent use.
type Formatter struct {
	cfg  *Config
	junk *junk.Filter
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithJunkFilter replaces the default site junk filter.
func WithJunkFilter(f *junk.Filter) Option {
	return func(fm *Formatter) {
		fm.junk = f
	}
}

// New creates a Formatter. A nil cfg means DefaultConfig().
func New(cfg *Config, opts ...Option) *Formatter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ImageStyle == "" {
		c := *cfg
		c.ImageStyle = DefaultImageStyle
		cfg = &c
	}
	f := &Formatter{cfg: cfg, junk: junk.Default()}
	for _, opt := range opts {
		opt(f)
	}
	if f.junk == nil {
		f.junk = junk.NewFilter(nil)
	}
	return f
}

// Name returns the formatter name for logging.
func (f *Formatter) Name() string {
	return "formatter"
}

// Format returns the formatted document, or the raw input if formatting
// failed.
func (f *Formatter) Format(in Input) string {
	return f.FormatWithStats(in).Content
}

// FormatContent is Format with positional arguments.
func (f *Formatter) FormatContent(rawHTML string, images *ImageMap, featureImageURL, title string, rs *rules.RuleSet) string {
	return f.Format(Input{
		RawHTML:         rawHTML,
		Images:          images,
		FeatureImageURL: featureImageURL,
		Title:           title,
		Rules:           rs,
	})
}

// FormatWithStats formats in and reports what was done.
func (f *Formatter) FormatWithStats(in Input) (result *Result) {
	startTime := time.Now()
	result = &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(in.RawHTML)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("formatting failed, returning original content",
				"error", r, "source", in.SourceURL, "stack", string(debug.Stack()))
			result.Content = in.RawHTML
			result.Error = fmt.Errorf("formatter panic: %v", r)
			result.AddWarning("format", "formatting failed, returning original", fmt.Sprint(r))
		}
		result.Stats.OutputBytes = len(result.Content)
		result.Stats.TotalDuration = time.Since(startTime)
	}()

	if strings.TrimSpace(in.RawHTML) == "" {
		result.Content = f.emptyDocument(in, result)
		return result
	}

	parseStart := time.Now()
	root, err := parseFragment(in.RawHTML)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		return f.fail(in, result, "parse", err)
	}

	transformStart := time.Now()
	root, err = f.transform(root, &in, result)
	result.Stats.TransformDuration = time.Since(transformStart)
	if err != nil {
		return f.fail(in, result, "transform", err)
	}

	outputStart := time.Now()
	body, err := renderChildren(root)
	result.Stats.OutputDuration = time.Since(outputStart)
	if err != nil {
		return f.fail(in, result, "output", err)
	}

	result.Content = f.wrap(body)
	logger.Debug("formatted content",
		"source", in.SourceURL,
		"input_bytes", result.Stats.InputBytes,
		"output_bytes", len(result.Content),
		"warnings", len(result.Warnings))
	return result
}

func (f *Formatter) fail(in Input, result *Result, phase string, err error) *Result {
	logger.Error("formatting failed, returning original content", "phase", phase, "error", err)
	result.Content = in.RawHTML
	result.Error = fmt.Errorf("%s: %w", phase, err)
	result.AddWarning(phase, "formatting failed, returning original", err.Error())
	return result
}

// transform runs every pipeline stage over root. It may return a new root
// when the tree had to be normalised.
func (f *Formatter) transform(root *html.Node, in *Input, result *Result) (*html.Node, error) {
	f.applyReplacements(root, in, result)

	if f.rewriteEmbeds(root, result) > 0 {
		var err error
		if root, err = reparse(root); err != nil {
			return nil, err
		}
	}

	if in.SourceURL != "" {
		doc := goquery.NewDocumentFromNode(root)
		report := f.junk.Apply(in.SourceURL, doc.Selection)
		result.Stats.JunkDecomposed = report.Decomposed
		result.Stats.JunkInlineEdits = report.InlineEdits
		if report.Changed() {
			logger.Debug("site junk removed", "strategy", report.Strategy,
				"decomposed", report.Decomposed, "inline", report.InlineEdits)
		}
	}

	f.removeStructural(root, result)
	if f.cfg.RemoveInternalLinks {
		f.stripLinks(root, result)
	}

	firstImage := f.reconcileImages(root, in, result)
	result.FirstContentImage = firstImage

	f.whitelist(root, result)

	// Unwrapping leaves split text nodes and nesting a parser would not
	// build. Normalise now, then give URLs joined by the parse their embed,
	// so a second run over the output finds nothing left to do.
	var err error
	if root, err = reparse(root); err != nil {
		return nil, err
	}
	if f.rewriteEmbeds(root, result) > 0 {
		if root, err = reparse(root); err != nil {
			return nil, err
		}
		f.whitelist(root, result)
	}

	f.prune(root, result)

	if in.FeatureImageURL != "" && in.FeatureImageURL != firstImage {
		alt := strings.TrimSpace(in.Title)
		if alt == "" {
			alt = "Featured Image"
		}
		p := f.featureParagraph(in.FeatureImageURL, alt)
		root.InsertBefore(p, root.FirstChild)
		result.Stats.FeatureImagePrepended = true
	}
	return root, nil
}

// emptyDocument handles blank input: a lone feature image paragraph, or
// nothing.
func (f *Formatter) emptyDocument(in Input, result *Result) string {
	if in.FeatureImageURL == "" {
		return ""
	}
	alt := in.Title
	if alt == "" {
		alt = "Main Image"
	}
	out, err := renderChildren(wrapNode(f.featureParagraph(in.FeatureImageURL, alt)))
	if err != nil {
		result.AddWarning("output", "failed to render feature image", err.Error())
		return ""
	}
	result.Stats.FeatureImagePrepended = true
	return f.wrap(out)
}

func wrapNode(n *html.Node) *html.Node {
	root := newElement("body")
	root.AppendChild(n)
	return root
}

// wrap applies the configured prefix and suffix.
func (f *Formatter) wrap(body string) string {
	return strings.TrimSpace(f.cfg.PrefixContentHTML + body + f.cfg.SuffixContentHTML)
}

// guard runs fn, turning a panic into a warning so one bad node does not
// abort the document.
func (f *Formatter) guard(result *Result, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("skipping node after error", "phase", phase, "error", r)
			result.AddWarning(phase, "node skipped after error", fmt.Sprint(r))
		}
	}()
	fn()
}
