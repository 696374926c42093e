package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/repost/internal/config"
	"github.com/jmylchreest/repost/internal/llm"
	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/permalink"
	"github.com/jmylchreest/repost/internal/scraper"
	"github.com/jmylchreest/repost/pkg/cleaner"
	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/rules"
)

// Flag to config key bindings shared by several commands.
var (
	fetchBindings = map[string]string{
		"fetch-mode":  "scraping.fetch_mode",
		"timeout":     "scraping.timeout",
		"user-agent":  "scraping.user_agent",
		"trafilatura": "scraping.trafilatura",
	}
	rulesBindings = map[string]string{
		"cleaning-rules":   "rules.cleaning_file",
		"publishing-rules": "rules.publishing_file",
	}
)

func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, val := range m {
			out[k] = val
		}
	}
	return out
}

func newFetcher(cfg *config.Config) (fetcher.Fetcher, error) {
	mode, fc := cfg.Scraping.Fetcher()
	f, err := fetcher.New(mode, fc)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetcher ready", "type", f.Type(), "timeout", fc.Timeout)
	return f, nil
}

func newScraper(cfg *config.Config, f fetcher.Fetcher) *scraper.Scraper {
	var opts []scraper.Option
	if cfg.Scraping.Trafilatura {
		if t := cleaner.NewTrafilatura(nil); t.IsAvailable() {
			opts = append(opts, scraper.WithExtractor(t))
		} else {
			logger.Warn("trafilatura fallback requested but not compiled in, using readability only")
		}
	}
	return scraper.New(cfg.Scraping.Scraper(), f, opts...)
}

func loadRules(cfg *config.Config) (*rules.Store, error) {
	store, err := rules.LoadStore(cfg.Rules.CleaningFile, cfg.Rules.PublishingFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return store, nil
}

// newPermalinks builds the slug generator, with an LLM translator when
// translation is enabled and a provider is configured or detected.
func newPermalinks(cfg *config.Config) (*permalink.Generator, error) {
	opts := []permalink.Option{permalink.WithMaxSlugLength(cfg.Permalink.MaxSlugLength)}
	if !cfg.Permalink.Translate {
		return permalink.New(opts...), nil
	}

	name, apiKey := cfg.Permalink.Provider, cfg.Permalink.APIKey
	if name == "" {
		name, apiKey = detectProvider(apiKey)
	}
	if name == "" {
		logger.Warn("title translation enabled but no LLM provider configured, transliterating instead")
		return permalink.New(opts...), nil
	}

	pc := llm.DefaultProviderConfig()
	pc.APIKey = apiKey
	pc.BaseURL = cfg.Permalink.BaseURL
	pc.Model = cfg.Permalink.Model
	provider, err := llm.NewProvider(name, pc)
	if err != nil {
		return nil, fmt.Errorf("title translator: %w", err)
	}
	logger.Info("translating titles", "provider", provider.Name(), "model", provider.Model())
	opts = append(opts, permalink.WithTranslator(llm.NewTranslator(provider)))
	return permalink.New(opts...), nil
}

// detectProvider falls back to the provider whose key is in the
// environment. A configured key is kept.
func detectProvider(apiKey string) (string, string) {
	name, envKey := llm.DetectProvider()
	if apiKey == "" {
		apiKey = envKey
	}
	return name, apiKey
}

func addFetchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("fetch-mode", "static", "fetch mode: static, dynamic, auto")
	flags.Duration("timeout", fetcher.DefaultConfig().Timeout, "request timeout")
	flags.String("user-agent", fetcher.DefaultUserAgent, "User-Agent header")
	flags.Bool("trafilatura", false, "try trafilatura when readability finds no content (needs -tags trafilatura)")
}

func addRulesFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("cleaning-rules", "", "cleaning rules file (JSON or YAML)")
	flags.String("publishing-rules", "", "publishing rules file (JSON or YAML)")
}
