package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jmylchreest/repost/internal/keywords"
	"github.com/jmylchreest/repost/internal/permalink"
	"github.com/jmylchreest/repost/internal/publisher"
	"github.com/jmylchreest/repost/internal/scraper"
	"github.com/jmylchreest/repost/internal/store"
	"github.com/jmylchreest/repost/pkg/formatter"
	"github.com/jmylchreest/repost/pkg/junk"
)

// stubScraper serves articles from memory.
type stubScraper struct {
	mu       sync.Mutex
	articles map[string]*scraper.Article
	calls    []string
}

func (s *stubScraper) Scrape(_ context.Context, url string) (*scraper.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
	a, ok := s.articles[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, scraper.ErrNoTitle)
	}
	return a, nil
}

// stubPublisher records published posts.
type stubPublisher struct {
	mu    sync.Mutex
	posts []publisher.Post
	err   error
}

func (p *stubPublisher) Publish(_ context.Context, post publisher.Post) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.posts = append(p.posts, post)
	return "https://blog.example/" + post.Slug + ".html", nil
}

// stubTranslator returns a fixed English title.
type stubTranslator struct{ english string }

func (t stubTranslator) Translate(context.Context, string, string) (string, error) {
	return t.english, nil
}

func article(url, title, body string) *scraper.Article {
	return &scraper.Article{SourceURL: url, Title: title, RawHTML: body}
}

func collect(ch <-chan Result) []Result {
	var out []Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestRunner_Run(t *testing.T) {
	s := &stubScraper{articles: map[string]*scraper.Article{
		"https://news.example/a": article("https://news.example/a", "Storm hits the coast", "<p>Coast coast coast storm storm harbor.</p>"),
		"https://news.example/b": article("https://news.example/b", "Harbor closed", "<p>Harbor harbor closed.</p>"),
		"https://news.example/c": article("https://news.example/c", "Empty body", "   "),
	}}
	p := &stubPublisher{}
	published, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	if err := published.Add("https://news.example/b"); err != nil {
		t.Fatal(err)
	}

	r := New(Config{Concurrency: 2, Language: "en", DefaultLabels: []string{"News"}}, s, p, WithStore(published))
	results := collect(r.Run(context.Background(), []string{
		"https://news.example/a",
		"https://news.example/a/",
		"https://news.example/b",
		"https://news.example/c",
		"https://news.example/missing",
		"not a url",
	}))

	var sum Summary
	byURL := make(map[string]Result)
	for _, res := range results {
		sum.Add(res)
		byURL[res.URL] = res
	}
	if sum != (Summary{Published: 1, Skipped: 1, Failed: 2}) {
		t.Errorf("summary = %+v", sum)
	}

	if !byURL["https://news.example/b"].Skipped {
		t.Error("already published URL should be skipped")
	}
	if err := byURL["https://news.example/c"].Error; !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty article error = %v", err)
	}
	if err := byURL["https://news.example/missing"].Error; !errors.Is(err, scraper.ErrNoTitle) {
		t.Errorf("missing article error = %v", err)
	}

	a := byURL["https://news.example/a"]
	if a.Error != nil {
		t.Fatalf("article a failed: %v", a.Error)
	}
	if a.Slug != "storm-hits-the-coast" || a.Location != "https://blog.example/storm-hits-the-coast.html" {
		t.Errorf("slug/location = %q %q", a.Slug, a.Location)
	}
	if want := []string{"News", "coast", "storm", "harbor"}; !reflect.DeepEqual(a.Labels, want) {
		t.Errorf("labels = %v, want %v", a.Labels, want)
	}
	if a.Stats == nil || a.Duration <= 0 {
		t.Error("expected stats and duration")
	}

	if !published.Contains("https://news.example/a") || published.Contains("https://news.example/c") {
		t.Error("store should only record published URLs")
	}

	sort.Strings(s.calls)
	wantCalls := []string{"https://news.example/a", "https://news.example/c", "https://news.example/missing"}
	if !reflect.DeepEqual(s.calls, wantCalls) {
		t.Errorf("scraped %v, want %v", s.calls, wantCalls)
	}
}

func TestRunner_MaxArticles(t *testing.T) {
	s := &stubScraper{articles: map[string]*scraper.Article{}}
	var urls []string
	for i := range 5 {
		u := fmt.Sprintf("https://news.example/%d", i)
		s.articles[u] = article(u, fmt.Sprintf("Story %d", i), "<p>Body text.</p>")
		urls = append(urls, u)
	}
	p := &stubPublisher{}

	r := New(Config{Concurrency: 1, MaxArticles: 2, Language: "en"}, s, p)
	results := collect(r.Run(context.Background(), urls))

	if len(results) != 2 || len(p.posts) != 2 {
		t.Fatalf("got %d results and %d posts, want 2", len(results), len(p.posts))
	}
	if p.posts[0].SourceURL != urls[0] || p.posts[1].SourceURL != urls[1] {
		t.Errorf("published out of order: %s, %s", p.posts[0].SourceURL, p.posts[1].SourceURL)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	s := &stubScraper{articles: map[string]*scraper.Article{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{}, s, &stubPublisher{})
	if results := collect(r.Run(ctx, []string{"https://news.example/a"})); len(results) != 0 {
		t.Errorf("expected no results after cancel, got %v", results)
	}
	if len(s.calls) != 0 {
		t.Errorf("nothing should be scraped, got %v", s.calls)
	}
}

func TestRunner_PersistentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "published.txt")
	u := "https://news.example/a"
	s := &stubScraper{articles: map[string]*scraper.Article{u: article(u, "Storm", "<p>Body text.</p>")}}

	for run := 0; run < 2; run++ {
		published, err := store.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		results := collect(New(Config{}, s, &stubPublisher{}, WithStore(published)).Run(context.Background(), []string{u}))
		if len(results) != 1 {
			t.Fatalf("run %d: got %d results", run, len(results))
		}
		if skipped := results[0].Skipped; skipped != (run == 1) {
			t.Errorf("run %d: skipped = %v", run, skipped)
		}
	}
	if len(s.calls) != 1 {
		t.Errorf("article scraped %d times, want 1", len(s.calls))
	}
}

func TestRunner_Process(t *testing.T) {
	u := "https://news.example/ar"
	s := &stubScraper{articles: map[string]*scraper.Article{
		u: {
			SourceURL:       u,
			Title:           "عاصفة على الساحل",
			RawHTML:         `<div><p>Body text.</p><img src="/img/a.jpg?w=300"></div>`,
			FeatureImageURL: "https://news.example/og.jpg",
			Images: []scraper.ImageRef{
				{OriginalSrc: "/img/a.jpg?w=300", FullURL: "https://news.example/img/a.jpg"},
			},
		},
	}}

	tests := []struct {
		name       string
		cfg        Config
		wantTitle  string
		wantSlug   string
		wantLabels []string
	}{
		{
			name:       "translated title and custom labels",
			cfg:        Config{Labels: []string{" Weather ", "Weather", "Coast"}},
			wantTitle:  "عاصفة على الساحل (Storm on the coast)",
			wantSlug:   "storm-on-the-coast",
			wantLabels: []string{"Weather", "Coast"},
		},
		{
			name:       "label limit",
			cfg:        Config{Labels: []string{"a", "b", "c"}, MaxLabels: 2},
			wantTitle:  "عاصفة على الساحل (Storm on the coast)",
			wantSlug:   "storm-on-the-coast",
			wantLabels: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPublisher{}
			r := New(tt.cfg, s, p,
				WithPermalinks(permalink.New(permalink.WithTranslator(stubTranslator{"Storm on the coast"}))),
				WithKeywords(keywords.New(keywords.Config{})),
			)
			res := r.Process(context.Background(), u)
			if res.Error != nil {
				t.Fatalf("Process() error = %v", res.Error)
			}
			if len(p.posts) != 1 {
				t.Fatalf("published %d posts", len(p.posts))
			}
			post := p.posts[0]
			if post.Title != tt.wantTitle || res.Title != tt.wantTitle {
				t.Errorf("title = %q", post.Title)
			}
			if post.Slug != tt.wantSlug {
				t.Errorf("slug = %q, want %q", post.Slug, tt.wantSlug)
			}
			if !reflect.DeepEqual(post.Labels, tt.wantLabels) {
				t.Errorf("labels = %v, want %v", post.Labels, tt.wantLabels)
			}
			if post.FeatureImageURL != "https://news.example/og.jpg" {
				t.Errorf("feature = %q", post.FeatureImageURL)
			}
			if !strings.Contains(post.Content, `src="https://news.example/img/a.jpg"`) {
				t.Errorf("content image not rehosted: %s", post.Content)
			}
			if !strings.Contains(post.Content, `src="https://news.example/og.jpg"`) {
				t.Errorf("feature image not prepended: %s", post.Content)
			}
		})
	}
}

func TestRunner_JunkCountedFromScrape(t *testing.T) {
	u := "https://news.example/a"
	// The scraped body still carries a byline the filter would match. A
	// second junk pass in the formatter would remove it and count it again.
	a := article(u, "Storm", `<p>By Editor Team</p><p>Body text.</p>`)
	a.Junk = junk.Report{Strategy: "news.example", Decomposed: 1, InlineEdits: 2}
	s := &stubScraper{articles: map[string]*scraper.Article{u: a}}

	filter := junk.NewFilter(junk.Table{{
		Domain: "news.example",
		Strategy: junk.MustStrategy("news.example", junk.SiteRules{
			Decompose: []junk.Rule{{Pattern: `Editor\s+Team`, Tolerance: 5}},
		}),
	}})
	p := &stubPublisher{}
	r := New(Config{}, s, p, WithFormatter(formatter.New(nil, formatter.WithJunkFilter(filter))))

	res := r.Process(context.Background(), u)
	if res.Error != nil {
		t.Fatalf("Process() error = %v", res.Error)
	}
	if res.Stats.JunkDecomposed != 1 || res.Stats.JunkInlineEdits != 2 {
		t.Errorf("junk stats = %d/%d, want 1/2", res.Stats.JunkDecomposed, res.Stats.JunkInlineEdits)
	}
	if !strings.Contains(p.posts[0].Content, "By Editor Team") {
		t.Errorf("formatter ran the junk filter again: %s", p.posts[0].Content)
	}
}

func TestRunner_PublishError(t *testing.T) {
	u := "https://news.example/a"
	s := &stubScraper{articles: map[string]*scraper.Article{u: article(u, "Storm", "<p>Body text.</p>")}}
	published, _ := store.Open("")
	boom := errors.New("boom")

	r := New(Config{}, s, &stubPublisher{err: boom}, WithStore(published))
	res := r.Process(context.Background(), u)
	if !errors.Is(res.Error, boom) {
		t.Errorf("Process() error = %v, want boom", res.Error)
	}
	if published.Contains(u) {
		t.Error("failed publish must not be recorded")
	}
}

// mapUploader rehosts images under a CDN prefix and fails for some.
type mapUploader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (u *mapUploader) Upload(_ context.Context, imageURL string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, imageURL)
	if u.fail[imageURL] {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example/" + filepath.Base(imageURL), nil
}

func TestHostImages(t *testing.T) {
	up := &mapUploader{fail: map[string]bool{"https://news.example/img/broken.jpg": true}}
	a := &scraper.Article{
		FeatureImageURL: "https://news.example/img/lead.jpg",
		Images: []scraper.ImageRef{
			{OriginalSrc: "/img/lead.jpg?w=800", FullURL: "https://news.example/img/lead.jpg"},
			{OriginalSrc: "/img/b.jpg", FullURL: "https://news.example/img/b.jpg"},
			{OriginalSrc: "/img/b.jpg", FullURL: "https://news.example/img/b.jpg"},
			{OriginalSrc: "/img/broken.jpg", FullURL: "https://news.example/img/broken.jpg"},
		},
	}

	images, feature := hostImages(context.Background(), up, a)
	if feature != "https://cdn.example/lead.jpg" {
		t.Errorf("feature = %q", feature)
	}
	want := map[string]string{
		"https://news.example/img/lead.jpg": "https://cdn.example/lead.jpg",
		"/img/lead.jpg?w=800":               "https://cdn.example/lead.jpg",
		"/img/b.jpg":                        "https://cdn.example/b.jpg",
	}
	if images.Len() != len(want) {
		t.Errorf("image map has %v", images.Keys())
	}
	for src, hosted := range want {
		if got, _ := images.Get(src); got != hosted {
			t.Errorf("images[%q] = %q, want %q", src, got, hosted)
		}
	}
	wantCalls := []string{
		"https://news.example/img/lead.jpg",
		"https://news.example/img/b.jpg",
		"https://news.example/img/broken.jpg",
	}
	if !reflect.DeepEqual(up.calls, wantCalls) {
		t.Errorf("uploads = %v, want %v", up.calls, wantCalls)
	}
}

func TestHostImages_Passthrough(t *testing.T) {
	a := &scraper.Article{Images: []scraper.ImageRef{{OriginalSrc: "a.jpg", FullURL: "https://news.example/a.jpg"}}}
	images, feature := hostImages(context.Background(), PassthroughUploader{}, a)
	if feature != "" {
		t.Errorf("feature = %q, want empty", feature)
	}
	if got, _ := images.Get("a.jpg"); got != "https://news.example/a.jpg" {
		t.Errorf("images[a.jpg] = %q", got)
	}
}

func TestPostTitle(t *testing.T) {
	tests := []struct {
		original, english, want string
	}{
		{"عاصفة", "Storm", "عاصفة (Storm)"},
		{"Storm", "Storm", "Storm"},
		{"Storm", " ", "Storm"},
	}
	for _, tt := range tests {
		if got := PostTitle(tt.original, tt.english); got != tt.want {
			t.Errorf("PostTitle(%q, %q) = %q, want %q", tt.original, tt.english, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Concurrency != 1 || cfg.Language != keywords.DefaultLanguage || cfg.MaxLabels != publisher.DefaultMaxLabels {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
