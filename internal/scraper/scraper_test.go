package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/junk"
)

const articlePage = `<html><head>
<meta property="og:image" content="/og.jpg">
<meta property="og:title" content="OG Title">
</head><body>
<h1 class="headline">  Storm hits
 the coast </h1>
<div class="post-body">
  <p>By Editor Team</p>
  <p>The storm reached the coast overnight.</p>
  <img src="/img/a.jpg?w=300" alt="A">
  <img data-src="https://cdn.example/b.png">
  <img src="data:image/png;base64,xx">
  <div class="share">Share this</div>
</div>
</body></html>`

func editorTeamFilter() *junk.Filter {
	return junk.NewFilter(junk.Table{{
		Domain: "example.com",
		Strategy: junk.MustStrategy("example.com", junk.SiteRules{
			Decompose: []junk.Rule{{Pattern: `Editor\s+Team`, Tolerance: 5}},
		}),
	}})
}

func testConfig() Config {
	return Config{
		TitleSelectors:   []string{".missing", "h1.headline"},
		ContentSelectors: []string{"div.post-body"},
		ExcludeSelectors: []string{".share"},
	}
}

func TestExtract_SelectorPath(t *testing.T) {
	s := New(testConfig(), nil, WithJunkFilter(editorTeamFilter()))

	a, err := s.Extract("https://example.com/news/1", articlePage)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if a.Title != "Storm hits the coast" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.ContentSource != SourceSelector {
		t.Errorf("ContentSource = %q", a.ContentSource)
	}
	if a.Junk.Decomposed != 1 {
		t.Errorf("Junk.Decomposed = %d, want 1", a.Junk.Decomposed)
	}
	for _, unwanted := range []string{"Editor Team", "Share this"} {
		if strings.Contains(a.RawHTML, unwanted) {
			t.Errorf("RawHTML should not contain %q", unwanted)
		}
	}
	if !strings.HasPrefix(a.RawHTML, `<div class="post-body">`) {
		t.Errorf("RawHTML should be the container itself: %s", a.RawHTML)
	}

	want := []ImageRef{
		{OriginalSrc: "/img/a.jpg?w=300", FullURL: "https://example.com/img/a.jpg", AltText: "A"},
		{OriginalSrc: "https://cdn.example/b.png", FullURL: "https://cdn.example/b.png", AltText: "Storm hits the coast"},
	}
	if len(a.Images) != len(want) {
		t.Fatalf("Images = %+v", a.Images)
	}
	for i := range want {
		if a.Images[i] != want[i] {
			t.Errorf("Images[%d] = %+v, want %+v", i, a.Images[i], want[i])
		}
	}

	if a.FeatureImageURL != "https://example.com/og.jpg" {
		t.Errorf("FeatureImageURL = %q", a.FeatureImageURL)
	}
}

func TestExtract_JSONLD(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","headline":" LD Title ","image":[{"url":"https://cdn.example/ld.jpg"}]}]}
</script><meta property="og:image" content="/og.jpg"></head>
<body><article><p>Body</p></article></body></html>`

	a, err := New(DefaultConfig(), nil).Extract("https://news.example/x", page)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if a.Title != "LD Title" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.FeatureImageURL != "https://cdn.example/ld.jpg" {
		t.Errorf("FeatureImageURL = %q", a.FeatureImageURL)
	}
}

func TestExtract_FeatureFallbacks(t *testing.T) {
	tests := []struct {
		name string
		head string
		body string
		want string
	}{
		{
			name: "twitter image",
			head: `<meta name="twitter:image" content="https://cdn.example/tw.jpg">`,
			body: `<article><p>x</p></article>`,
			want: "https://cdn.example/tw.jpg",
		},
		{
			name: "first content image",
			body: `<article><img src="/first.jpg"><img src="/second.jpg"></article>`,
			want: "https://site.example/first.jpg",
		},
		{
			name: "none",
			body: `<article><p>x</p></article>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><head><title>t</title>` + tt.head + `</head><body><h1>T</h1>` + tt.body + `</body></html>`
			a, err := New(DefaultConfig(), nil).Extract("https://site.example/p", page)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if a.FeatureImageURL != tt.want {
				t.Errorf("FeatureImageURL = %q, want %q", a.FeatureImageURL, tt.want)
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Run("no title", func(t *testing.T) {
		_, err := New(DefaultConfig(), nil).Extract("https://x.example/", `<html><body><p>nothing</p></body></html>`)
		if !errors.Is(err, ErrNoTitle) {
			t.Errorf("error = %v, want ErrNoTitle", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxContentSize = 10
		_, err := New(cfg, nil).Extract("https://x.example/", articlePage)
		if !errors.Is(err, fetcher.ErrContentTooLarge) {
			t.Errorf("error = %v, want ErrContentTooLarge", err)
		}
	})
}

func TestExtract_Placeholder(t *testing.T) {
	s := New(DefaultConfig(), nil, WithReadability(nil))

	a, err := s.Extract("https://x.example/p", `<html><body><h1>Only a title</h1></body></html>`)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if a.ContentSource != SourcePlaceholder {
		t.Errorf("ContentSource = %q", a.ContentSource)
	}
	if !strings.Contains(a.RawHTML, "could not be extracted") || !strings.Contains(a.RawHTML, "https://x.example/p") {
		t.Errorf("unexpected placeholder: %s", a.RawHTML)
	}
}

// fixedExtractor returns canned content for every page.
type fixedExtractor struct {
	name string
	out  string
	err  error
}

func (e fixedExtractor) Extract(string, string) (string, error) { return e.out, e.err }

func (e fixedExtractor) Name() string { return e.name }

func TestExtract_ExtractorChain(t *testing.T) {
	page := `<html><body><h1>Only a title</h1></body></html>`

	tests := []struct {
		name       string
		extractors []Extractor
		wantSource ContentSource
		contains   string
	}{
		{
			name: "failing and empty extractors are skipped",
			extractors: []Extractor{
				fixedExtractor{name: "broken", err: errors.New("boom")},
				fixedExtractor{name: "empty", out: "  "},
				fixedExtractor{name: "trafilatura", out: `<p>By Editor Team</p><p>Recovered body.</p><img src="/x.jpg">`},
			},
			wantSource: SourceTrafilatura,
			contains:   "Recovered body.",
		},
		{
			name:       "all extractors fail",
			extractors: []Extractor{fixedExtractor{name: "broken", err: errors.New("boom")}},
			wantSource: SourcePlaceholder,
			contains:   "could not be extracted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithReadability(nil), WithJunkFilter(editorTeamFilter())}
			for _, e := range tt.extractors {
				opts = append(opts, WithExtractor(e))
			}
			a, err := New(DefaultConfig(), nil, opts...).Extract("https://example.com/p", page)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if a.ContentSource != tt.wantSource {
				t.Errorf("ContentSource = %q, want %q", a.ContentSource, tt.wantSource)
			}
			if !strings.Contains(a.RawHTML, tt.contains) {
				t.Errorf("expected %q in %s", tt.contains, a.RawHTML)
			}
			if tt.wantSource == SourceTrafilatura {
				if strings.Contains(a.RawHTML, "Editor Team") || a.Junk.Decomposed != 1 {
					t.Errorf("junk not removed from fallback content: %s", a.RawHTML)
				}
				if len(a.Images) != 1 || a.Images[0].FullURL != "https://example.com/x.jpg" {
					t.Errorf("images = %+v", a.Images)
				}
			}
		})
	}
}

type stubFetcher struct {
	html string
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	f.urls = append(f.urls, url)
	return fetcher.Content{URL: url, HTML: f.html}, f.err
}

func (f *stubFetcher) Close() error { return nil }

func (f *stubFetcher) Type() string { return "stub" }

func TestScrape(t *testing.T) {
	f := &stubFetcher{html: articlePage}
	s := New(testConfig(), f)

	a, err := s.Scrape(context.Background(), "https://example.com/news/1")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if a.SourceURL != "https://example.com/news/1" || len(f.urls) != 1 {
		t.Errorf("unexpected fetch: %+v %v", a, f.urls)
	}

	f.err = fetcher.ErrForbidden
	if _, err := s.Scrape(context.Background(), "https://example.com/x"); !errors.Is(err, fetcher.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}
