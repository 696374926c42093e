// Package config loads repost settings from the config file, environment and
// command-line flags into typed, validated structs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/repost/internal/keywords"
	"github.com/jmylchreest/repost/internal/permalink"
	"github.com/jmylchreest/repost/internal/pipeline"
	"github.com/jmylchreest/repost/internal/publisher"
	"github.com/jmylchreest/repost/internal/scraper"
	"github.com/jmylchreest/repost/internal/sitemap"
	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/formatter"
)

// File naming used by the CLI.
const (
	FileName  = ".repost"
	EnvPrefix = "REPOST"
)

// Config is the complete settings tree.
type Config struct {
	Debug   bool `mapstructure:"debug"`
	Quiet   bool `mapstructure:"quiet"`
	LogJSON bool `mapstructure:"log_json"`

	Formatting formatter.Config        `mapstructure:"formatting"`
	Scraping   Scraping                `mapstructure:"scraping"`
	Keywords   keywords.Config         `mapstructure:"keywords"`
	Permalink  Permalink               `mapstructure:"permalink"`
	Rules      Rules                   `mapstructure:"rules"`
	Paths      Paths                   `mapstructure:"paths"`
	Publish    Publish                 `mapstructure:"publish"`
	Run        Run                     `mapstructure:"run"`
	Sitemap    sitemap.Config          `mapstructure:"sitemap"`
	Discover   pipeline.DiscoverConfig `mapstructure:"discover"`
}

// Scraping configures fetching and article extraction.
type Scraping struct {
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	FetchMode        string        `mapstructure:"fetch_mode" validate:"oneof=static dynamic auto"`
	TitleSelectors   []string      `mapstructure:"title_selectors" validate:"min=1"`
	ContentSelectors []string      `mapstructure:"content_selectors" validate:"min=1"`
	ExcludeSelectors []string      `mapstructure:"exclude_selectors"`
	// MaxContentSize accepts human sizes such as "2MB". Empty or "0"
	// disables the limit.
	MaxContentSize string `mapstructure:"max_content_size"`
	// Trafilatura adds a second main-content extractor after readability.
	// It needs a binary built with -tags trafilatura.
	Trafilatura bool `mapstructure:"trafilatura"`
}

// Permalink configures title translation and slugs.
type Permalink struct {
	Translate     bool   `mapstructure:"translate"`
	MaxSlugLength int    `mapstructure:"max_slug_length" validate:"gte=0"`
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
}

// Rules names the rule files.
type Rules struct {
	CleaningFile   string `mapstructure:"cleaning_file"`
	PublishingFile string `mapstructure:"publishing_file"`
}

// Paths holds state file locations.
type Paths struct {
	PublishedURLsFile string `mapstructure:"published_urls_file"`
}

// Publish configures the publishing target.
type Publish struct {
	Format        string   `mapstructure:"format" validate:"oneof=json jsonl yaml yml html"`
	Output        string   `mapstructure:"output"`
	BaseURL       string   `mapstructure:"base_url"`
	Markdown      bool     `mapstructure:"markdown"`
	Labels        []string `mapstructure:"labels"`
	DefaultLabels []string `mapstructure:"default_labels"`
	MaxLabels     int      `mapstructure:"max_labels" validate:"gte=0"`
	Draft         bool     `mapstructure:"draft"`
}

// Run configures the batch cycle.
type Run struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	Delay       time.Duration `mapstructure:"delay" validate:"gte=0"`
	MaxArticles int           `mapstructure:"max_articles" validate:"gte=0"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_json", false)

	f := formatter.DefaultConfig()
	v.SetDefault("formatting.prefix_content_html", f.PrefixContentHTML)
	v.SetDefault("formatting.suffix_content_html", f.SuffixContentHTML)
	v.SetDefault("formatting.extra_break_after_paragraph", f.ExtraBreakAfterParagraph)
	v.SetDefault("formatting.remove_internal_links", f.RemoveInternalLinks)
	v.SetDefault("formatting.image_style", f.ImageStyle)

	fc := fetcher.DefaultConfig()
	sc := scraper.DefaultConfig()
	v.SetDefault("scraping.user_agent", fc.UserAgent)
	v.SetDefault("scraping.timeout", fc.Timeout)
	v.SetDefault("scraping.fetch_mode", string(fetcher.ModeStatic))
	v.SetDefault("scraping.title_selectors", sc.TitleSelectors)
	v.SetDefault("scraping.content_selectors", sc.ContentSelectors)
	v.SetDefault("scraping.exclude_selectors", []string{})
	v.SetDefault("scraping.max_content_size", "2MB")
	v.SetDefault("scraping.trafilatura", false)

	v.SetDefault("keywords.language", keywords.DefaultLanguage)
	v.SetDefault("keywords.count", keywords.DefaultCount)

	v.SetDefault("permalink.translate", false)
	v.SetDefault("permalink.max_slug_length", permalink.MaxSlugLength)
	v.SetDefault("permalink.provider", "")
	v.SetDefault("permalink.model", "")
	v.SetDefault("permalink.api_key", "")
	v.SetDefault("permalink.base_url", "")

	v.SetDefault("rules.cleaning_file", "rules/cleaning.json")
	v.SetDefault("rules.publishing_file", "rules/publishing.json")
	v.SetDefault("paths.published_urls_file", "published_urls.txt")

	v.SetDefault("publish.format", "jsonl")
	v.SetDefault("publish.output", "")
	v.SetDefault("publish.base_url", "")
	v.SetDefault("publish.markdown", false)
	v.SetDefault("publish.labels", []string{})
	v.SetDefault("publish.default_labels", []string{})
	v.SetDefault("publish.max_labels", publisher.DefaultMaxLabels)
	v.SetDefault("publish.draft", false)

	rc := pipeline.DefaultConfig()
	v.SetDefault("run.concurrency", rc.Concurrency)
	v.SetDefault("run.delay", rc.Delay)
	v.SetDefault("run.max_articles", 0)

	smc := sitemap.DefaultConfig()
	v.SetDefault("sitemap.delay", smc.Delay)
	v.SetDefault("sitemap.max_sitemaps", smc.MaxSitemaps)

	v.SetDefault("discover.link_selector", "")
	v.SetDefault("discover.link_pattern", "")
	v.SetDefault("discover.next_selector", "")
	v.SetDefault("discover.max_pages", 1)
	v.SetDefault("discover.same_host", true)
}

// New returns a viper instance with defaults, the REPOST_ environment
// prefix and the config file search path set up. An explicit path wins over
// the search path.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads the config file if there is one. A missing file found
// through the search path is not an error; a missing explicit file is.
func ReadFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

var validate = validator.New()

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if _, err := c.Scraping.MaxContentBytes(); err != nil {
			return err
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), formatValidationError(e)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// MaxContentBytes parses MaxContentSize.
func (s Scraping) MaxContentBytes() (int64, error) {
	raw := strings.TrimSpace(s.MaxContentSize)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid scraping.max_content_size %q: %w", raw, err)
	}
	return int64(n), nil
}

// Fetcher returns the fetcher settings.
func (s Scraping) Fetcher() (fetcher.Mode, fetcher.Config) {
	limit, _ := s.MaxContentBytes()
	return fetcher.Mode(s.FetchMode), fetcher.Config{
		UserAgent:   s.UserAgent,
		Timeout:     s.Timeout,
		MaxBodySize: limit,
	}
}

// Scraper returns the scraper settings.
func (s Scraping) Scraper() scraper.Config {
	limit, _ := s.MaxContentBytes()
	return scraper.Config{
		TitleSelectors:   s.TitleSelectors,
		ContentSelectors: s.ContentSelectors,
		ExcludeSelectors: s.ExcludeSelectors,
		MaxContentSize:   limit,
	}
}

// Publisher returns the writer publisher settings.
func (c *Config) Publisher() publisher.Config {
	return publisher.Config{
		BaseURL:   c.Publish.BaseURL,
		Markdown:  c.Publish.Markdown,
		MaxLabels: c.Publish.MaxLabels,
		Draft:     c.Publish.Draft,
	}
}

// Pipeline returns the runner settings.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Concurrency:   c.Run.Concurrency,
		Delay:         c.Run.Delay,
		MaxArticles:   c.Run.MaxArticles,
		Language:      c.Keywords.Language,
		Labels:        c.Publish.Labels,
		DefaultLabels: c.Publish.DefaultLabels,
		MaxLabels:     c.Publish.MaxLabels,
		Draft:         c.Publish.Draft,
	}
}
