package permalink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeTranslator struct {
	out string
	err error
}

func (f fakeTranslator) Translate(context.Context, string, string) (string, error) {
	return f.out, f.err
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Storm Hits the Coast", 75, "storm-hits-the-coast"},
		{"  Hello,   World!! ", 75, "hello-world"},
		{"a -- b", 75, "a-b"},
		{"Café déjà vu", 75, "cafe-deja-vu"},
		{"one two three", 8, "one-two"},
		{"!!!", 75, ""},
		{strings.Repeat("word ", 30), 75, strings.TrimSuffix(strings.Repeat("word-", 15), "-")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slugify(tt.in, tt.maxLen)
			if got != tt.want {
				t.Errorf("Slugify(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
			if len(got) > tt.maxLen {
				t.Errorf("slug longer than %d: %q", tt.maxLen, got)
			}
		})
	}
}

func TestGenerator_Suggest(t *testing.T) {
	clock := func() time.Time { return time.Unix(1700000000, 0) }

	tests := []struct {
		name      string
		opts      []Option
		title     string
		wantTitle string
		wantSlug  string
	}{
		{
			name:      "empty title",
			title:     "   ",
			wantTitle: "Untitled Post",
			wantSlug:  "untitled-post",
		},
		{
			name:      "translated",
			opts:      []Option{WithTranslator(fakeTranslator{out: " Storm Hits the Coast "})},
			title:     "عاصفة تضرب الساحل",
			wantTitle: "Storm Hits the Coast",
			wantSlug:  "storm-hits-the-coast",
		},
		{
			name:      "translation error transliterates",
			opts:      []Option{WithTranslator(fakeTranslator{err: errors.New("down")})},
			title:     "Crème Brûlée",
			wantTitle: "Creme Brulee",
			wantSlug:  "creme-brulee",
		},
		{
			name:      "no translator",
			title:     "Hello World",
			wantTitle: "Hello World",
			wantSlug:  "hello-world",
		},
		{
			name:      "timestamp fallback",
			opts:      []Option{WithTranslator(fakeTranslator{out: "???"}), WithClock(clock)},
			title:     "!!!",
			wantTitle: "???",
			wantSlug:  "post-1700000000",
		},
		{
			name:      "custom length",
			opts:      []Option{WithMaxSlugLength(5)},
			title:     "abc def ghi",
			wantTitle: "abc def ghi",
			wantSlug:  "abc-d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts...).Suggest(context.Background(), tt.title, "ar")
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", got.Slug, tt.wantSlug)
			}
		})
	}
}

func TestGenerator_FallbackToOriginal(t *testing.T) {
	// The translation yields nothing slug-safe but the original does.
	g := New(WithTranslator(fakeTranslator{out: "***"}))
	got := g.Suggest(context.Background(), "Breaking News Today And Tomorrow Forever", "")
	if got.Slug != "breaking-news-today-and-tomorr" {
		t.Errorf("Slug = %q", got.Slug)
	}
}
