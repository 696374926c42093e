package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/repost/internal/keywords"
	"github.com/jmylchreest/repost/internal/permalink"
	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/formatter"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.Formatting, *formatter.DefaultConfig()) {
		t.Errorf("formatting = %+v", cfg.Formatting)
	}
	if cfg.Scraping.FetchMode != "static" || cfg.Scraping.Timeout != fetcher.DefaultConfig().Timeout {
		t.Errorf("scraping = %+v", cfg.Scraping)
	}
	if cfg.Keywords.Language != keywords.DefaultLanguage || cfg.Keywords.Count != keywords.DefaultCount {
		t.Errorf("keywords = %+v", cfg.Keywords)
	}
	if cfg.Permalink.MaxSlugLength != permalink.MaxSlugLength {
		t.Errorf("max slug length = %d", cfg.Permalink.MaxSlugLength)
	}
	if cfg.Run.Concurrency != 1 || cfg.Run.Delay != 30*time.Second {
		t.Errorf("run = %+v", cfg.Run)
	}
	if cfg.Publish.Format != "jsonl" || cfg.Paths.PublishedURLsFile != "published_urls.txt" {
		t.Errorf("publish = %+v paths = %+v", cfg.Publish, cfg.Paths)
	}

	n, err := cfg.Scraping.MaxContentBytes()
	if err != nil || n != 2_000_000 {
		t.Errorf("MaxContentBytes() = %d, %v", n, err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repost.yaml")
	data := `
formatting:
  extra_break_after_paragraph: true
  prefix_content_html: "<div dir=\"rtl\">"
scraping:
  fetch_mode: auto
  max_content_size: 1MB
  content_selectors: ["div.entry-content", "article"]
keywords:
  language: en
run:
  concurrency: 3
  delay: 5s
publish:
  labels: [Weather, Coast]
  draft: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	v := New(path)
	if err := ReadFile(v); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Formatting.ExtraBreakAfterParagraph || cfg.Formatting.PrefixContentHTML != `<div dir="rtl">` {
		t.Errorf("formatting = %+v", cfg.Formatting)
	}
	if !cfg.Formatting.RemoveInternalLinks {
		t.Error("unset keys should keep their defaults")
	}

	mode, fc := cfg.Scraping.Fetcher()
	if mode != fetcher.ModeAuto || fc.MaxBodySize != 1_000_000 {
		t.Errorf("Fetcher() = %v %+v", mode, fc)
	}
	sc := cfg.Scraping.Scraper()
	if !reflect.DeepEqual(sc.ContentSelectors, []string{"div.entry-content", "article"}) || sc.MaxContentSize != 1_000_000 {
		t.Errorf("Scraper() = %+v", sc)
	}

	pc := cfg.Pipeline()
	if pc.Concurrency != 3 || pc.Delay != 5*time.Second || pc.Language != "en" || !pc.Draft {
		t.Errorf("Pipeline() = %+v", pc)
	}
	if !reflect.DeepEqual(pc.Labels, []string{"Weather", "Coast"}) {
		t.Errorf("labels = %v", pc.Labels)
	}
	if pub := cfg.Publisher(); !pub.Draft || pub.MaxLabels != 10 {
		t.Errorf("Publisher() = %+v", pub)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("REPOST_RUN_CONCURRENCY", "4")
	t.Setenv("REPOST_SCRAPING_FETCH_MODE", "dynamic")

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Run.Concurrency != 4 || cfg.Scraping.FetchMode != "dynamic" {
		t.Errorf("env overrides not applied: run=%+v fetch_mode=%s", cfg.Run, cfg.Scraping.FetchMode)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"fetch mode", "scraping.fetch_mode", "curl", "FetchMode must be one of"},
		{"concurrency", "run.concurrency", 0, "Concurrency must be at least 1"},
		{"selectors", "scraping.content_selectors", []string{}, "ContentSelectors must have at least 1"},
		{"format", "publish.format", "xml", "Format must be one of"},
		{"size", "scraping.max_content_size", "lots", "max_content_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New("")
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	if err := ReadFile(New(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("missing explicit config file should fail")
	}

	v := New("")
	v.AddConfigPath(t.TempDir())
	if err := ReadFile(v); err != nil {
		t.Errorf("missing searched config file should be ignored, got %v", err)
	}
}

func TestMaxContentBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"100KB", 100_000, false},
		{"1MiB", 1 << 20, false},
		{"huge", 0, true},
	}
	for _, tt := range tests {
		got, err := Scraping{MaxContentSize: tt.in}.MaxContentBytes()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("MaxContentBytes(%q) = %d, %v", tt.in, got, err)
		}
	}
}
