package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/repost/pkg/fetcher"
)

func TestIsArticleURL(t *testing.T) {
	const host = "news.example"

	tests := []struct {
		url  string
		want bool
	}{
		{"https://news.example/2024/05/storm-hits-coast", true},
		{"http://news.example/world/story-1?id=5", true},
		{"https://news.example/%D8%B9%D8%A7%D8%B5%D9%81%D8%A9", true},
		{"https://other.example/story", false},
		{"ftp://news.example/story", false},
		{"https://news.example/", false},
		{"https://news.example", false},
		{"https://news.example/?p=12", true},
		{"https://news.example/category/world/", false},
		{"https://news.example/Tag/storm", false},
		{"https://news.example/about-us", false},
		{"https://news.example/amp/story", false},
		{"https://news.example/robots.txt", false},
		{"https://news.example/img/photo.JPG", false},
		{"https://news.example/archive.tar.gz", false},
		{"https://news.example/story?utm_source=x", false},
		{"https://news.example/story?fbclid=abc", false},
		{"https://news.example/story?replytocom=3", false},
		{"https://news.example/story?s=storm", false},
		{"https://news.example/story?paged=2", false},
		{"https://news.example/story?format=pdf", false},
		{"https://news.example/story?format=html", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsArticleURL(tt.url, host); got != tt.want {
				t.Errorf("IsArticleURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	index := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc> https://news.example/post-sitemap.xml </loc></sitemap>
  <sitemap><loc></loc></sitemap>
</sitemapindex>`

	children, entries, err := Parse(index, "news.example")
	if err != nil {
		t.Fatalf("Parse(index) error = %v", err)
	}
	if !reflect.DeepEqual(children, []string{"https://news.example/post-sitemap.xml"}) || len(entries) != 0 {
		t.Errorf("Parse(index) = %v, %v", children, entries)
	}

	urlset := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://news.example/a</loc><lastmod>2024-05-01T10:00:00+02:00</lastmod></url>
  <url><loc>https://news.example/tag/x</loc></url>
  <url><loc>https://news.example/b</loc><lastmod>2024-05-02</lastmod></url>
</urlset>`

	children, entries, err = Parse(urlset, "news.example")
	if err != nil {
		t.Fatalf("Parse(urlset) error = %v", err)
	}
	if len(children) != 0 || len(entries) != 2 {
		t.Fatalf("Parse(urlset) = %v, %v", children, entries)
	}
	want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if entries[0].URL != "https://news.example/a" || !entries[0].LastMod.Equal(want) {
		t.Errorf("entries[0] = %+v", entries[0])
	}

	children, entries, err = Parse("<html><body>not a sitemap</body></html>", "news.example")
	if err != nil || len(children) != 0 || len(entries) != 0 {
		t.Errorf("Parse(html) = %v, %v, %v", children, entries, err)
	}
}

func TestParseLastMod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00.250Z", time.Date(2024, 5, 1, 10, 0, 0, 250_000_000, time.UTC)},
		{"2024-05-01T10:00+01:00", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"yesterday", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLastMod(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseLastMod(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// mapFetcher serves documents from memory.
type mapFetcher struct {
	docs  map[string]string
	calls []string
}

func (f *mapFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	f.calls = append(f.calls, url)
	doc, ok := f.docs[url]
	if !ok {
		return fetcher.Content{URL: url}, fmt.Errorf("%s: %w", url, fetcher.ErrForbidden)
	}
	return fetcher.Content{URL: url, HTML: doc}, nil
}

func (f *mapFetcher) Close() error { return nil }

func (f *mapFetcher) Type() string { return "map" }

func urlset(entries ...string) string {
	var b strings.Builder
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for i := 0; i+1 < len(entries); i += 2 {
		fmt.Fprintf(&b, "<url><loc>%s</loc>", entries[i])
		if entries[i+1] != "" {
			fmt.Fprintf(&b, "<lastmod>%s</lastmod>", entries[i+1])
		}
		b.WriteString("</url>")
	}
	b.WriteString("</urlset>")
	return b.String()
}

func TestReader_Entries(t *testing.T) {
	f := &mapFetcher{docs: map[string]string{
		"https://news.example/sitemap.xml": `<sitemapindex>
			<sitemap><loc>https://news.example/posts-1.xml</loc></sitemap>
			<sitemap><loc>https://news.example/nested.xml</loc></sitemap>
			<sitemap><loc>https://news.example/missing.xml</loc></sitemap>
		</sitemapindex>`,
		"https://news.example/nested.xml": `<sitemapindex>
			<sitemap><loc>https://news.example/posts-1.xml</loc></sitemap>
			<sitemap><loc>https://news.example/posts-2.xml</loc></sitemap>
		</sitemapindex>`,
		"https://news.example/posts-1.xml": urlset(
			"https://news.example/old", "2023-01-01",
			"https://news.example/undated", "",
			"https://elsewhere.example/new", "2025-01-01",
		),
		"https://news.example/posts-2.xml": urlset(
			"https://news.example/newest", "2024-06-01T00:00:00Z",
			"https://news.example/also-undated", "",
		),
	}}

	r := NewReader(Config{}, f)
	urls, err := r.URLs(context.Background(), "https://news.example/sitemap.xml")
	if err != nil {
		t.Fatalf("URLs() error = %v", err)
	}

	want := []string{
		"https://news.example/newest",
		"https://news.example/old",
		"https://news.example/undated",
		"https://news.example/also-undated",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("URLs() = %v, want %v", urls, want)
	}

	wantCalls := []string{
		"https://news.example/sitemap.xml",
		"https://news.example/posts-1.xml",
		"https://news.example/nested.xml",
		"https://news.example/missing.xml",
		"https://news.example/posts-2.xml",
	}
	if !reflect.DeepEqual(f.calls, wantCalls) {
		t.Errorf("fetch order = %v, want %v", f.calls, wantCalls)
	}
}

func TestReader_Limits(t *testing.T) {
	f := &mapFetcher{docs: map[string]string{
		"https://news.example/sitemap.xml": `<sitemapindex><sitemap><loc>https://news.example/a.xml</loc></sitemap></sitemapindex>`,
		"https://news.example/a.xml":       urlset("https://news.example/story", ""),
	}}

	urls, err := NewReader(Config{MaxSitemaps: 1}, f).URLs(context.Background(), "https://news.example/sitemap.xml")
	if err != nil || len(urls) != 0 || len(f.calls) != 1 {
		t.Errorf("MaxSitemaps not honored: urls=%v calls=%v err=%v", urls, f.calls, err)
	}

	if _, err := NewReader(Config{}, f).URLs(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader(Config{}, f).URLs(ctx, "https://news.example/sitemap.xml"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReader_StaticFetcher(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/posts.xml</loc></sitemap></sitemapindex>`, srv.URL)
		case "/posts.xml":
			fmt.Fprint(w, urlset(srv.URL+"/story-1", "2024-01-01", srv.URL+"/story-2", "2024-02-01"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := NewReader(Config{}, fetcher.NewStatic(fetcher.Config{Timeout: 5 * time.Second}))
	urls, err := r.URLs(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("URLs() error = %v", err)
	}
	want := []string{srv.URL + "/story-2", srv.URL + "/story-1"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("URLs() = %v, want %v", urls, want)
	}
}
