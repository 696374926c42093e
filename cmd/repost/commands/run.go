package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/repost/internal/config"
	"github.com/jmylchreest/repost/internal/keywords"
	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/output"
	"github.com/jmylchreest/repost/internal/pipeline"
	"github.com/jmylchreest/repost/internal/publisher"
	"github.com/jmylchreest/repost/internal/sitemap"
	"github.com/jmylchreest/repost/internal/store"
	"github.com/jmylchreest/repost/pkg/fetcher"
	"github.com/jmylchreest/repost/pkg/formatter"
)

var runCmd = &cobra.Command{
	Use:   "run [url]...",
	Short: "Scrape, format and publish articles",
	Long: `Run executes one republishing cycle. Article URLs come from the
arguments, a sitemap or a listing page. Each new article is scraped, its
images mapped, its HTML formatted with the publishing rules, labelled,
given a slug and published. Published URLs are recorded so later runs
skip them.

Posts are written in the configured publish format (json, jsonl, yaml or
html) to the output file or stdout.

Examples:
  # Publish the five newest articles of a sitemap
  repost run --sitemap https://example.com/sitemap.xml --limit 5 -o posts.jsonl

  # Collect links from a listing page and its next two pages
  repost run --listing https://example.com/news --follow "h2 a" \
      --next "a.next" --max-pages 3

  # Publish explicit URLs with custom labels and English slugs
  repost run https://example.com/a https://example.com/b \
      --labels "World,Weather" --translate`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()

	// Sources
	flags.String("sitemap", "", "sitemap or sitemap index URL to read article URLs from")
	flags.String("listing", "", "listing page URL to collect article links from")
	flags.String("follow", "", "CSS selector for article links on the listing page (default a[href])")
	flags.String("follow-pattern", "", "regex the article URLs must match")
	flags.String("next", "", "CSS selector for the listing's next page link")
	flags.Int("max-pages", 1, "max listing pages to read")

	// Cycle
	flags.IntP("limit", "n", 0, "max articles to publish this run (0=unlimited)")
	flags.IntP("concurrency", "c", 1, "articles processed in parallel")
	flags.Duration("delay", 30*time.Second, "delay between articles")

	// Publishing
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "jsonl", "output format: json, jsonl, yaml, html")
	flags.String("labels", "", "comma separated labels replacing keyword labels")
	flags.Bool("draft", false, "publish as drafts")
	flags.Bool("markdown", false, "also render each post as Markdown")
	flags.Bool("translate", false, "translate titles to English with an LLM for slugs")
	flags.String("published", "", "published URLs file")

	addFetchFlags(runCmd)
	addRulesFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, merge(fetchBindings, rulesBindings, map[string]string{
		"follow":         "discover.link_selector",
		"follow-pattern": "discover.link_pattern",
		"next":           "discover.next_selector",
		"max-pages":      "discover.max_pages",
		"limit":          "run.max_articles",
		"concurrency":    "run.concurrency",
		"delay":          "run.delay",
		"output":         "publish.output",
		"format":         "publish.format",
		"draft":          "publish.draft",
		"markdown":       "publish.markdown",
		"translate":      "permalink.translate",
		"published":      "paths.published_urls_file",
	}))
	if err != nil {
		return err
	}
	if labels, _ := cmd.Flags().GetString("labels"); labels != "" {
		cfg.Publish.Labels = publisher.SplitLabels(labels)
	}

	ctx, cancel := signalContext()
	defer cancel()

	f, err := newFetcher(cfg)
	if err != nil {
		logError("failed to create fetcher: %v", err)
		return err
	}
	defer func() { _ = f.Close() }()

	sitemapURL, _ := cmd.Flags().GetString("sitemap")
	listingURL, _ := cmd.Flags().GetString("listing")
	urls, err := collectURLs(ctx, cfg, f, args, sitemapURL, listingURL)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		logInfo("no article URLs to process")
		return nil
	}

	published, err := store.Open(cfg.Paths.PublishedURLsFile)
	if err != nil {
		return err
	}
	ruleStore, err := loadRules(cfg)
	if err != nil {
		return err
	}
	permalinks, err := newPermalinks(cfg)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Publish.Format)
	if err != nil {
		return err
	}
	out, err := openOutput(cfg.Publish.Output)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	w, err := output.NewWriter(out, format)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	runner := pipeline.New(cfg.Pipeline(),
		newScraper(cfg, f),
		publisher.NewWriterPublisher(w, cfg.Publisher()),
		pipeline.WithFormatter(formatter.New(&cfg.Formatting)),
		pipeline.WithStore(published),
		pipeline.WithKeywords(keywords.New(cfg.Keywords)),
		pipeline.WithPermalinks(permalinks),
		pipeline.WithRules(ruleStore.Publishing),
	)

	var summary pipeline.Summary
	for res := range runner.Run(ctx, urls) {
		summary.Add(res)
		switch {
		case res.Skipped:
		case res.Error != nil:
			logInfo("FAIL %s: %v", res.URL, res.Error)
		default:
			logInfo("OK   %s -> %s", res.URL, res.Location)
		}
	}

	logger.Info("cycle finished",
		"published", summary.Published,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	if summary.Published == 0 && summary.Failed > 0 {
		return errors.New("no article published")
	}
	return nil
}

// collectURLs gathers article URLs from the arguments, the sitemap and the
// listing page, in that order. Already published URLs are left for the
// runner to skip.
func collectURLs(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, args []string, sitemapURL, listingURL string) ([]string, error) {
	urls := append([]string{}, args...)

	if sitemapURL != "" {
		found, err := sitemap.NewReader(cfg.Sitemap, f).URLs(ctx, sitemapURL)
		if err != nil {
			logError("failed to read sitemap: %v", err)
			return nil, err
		}
		logger.Info("sitemap read", "url", sitemapURL, "articles", len(found))
		urls = append(urls, found...)
	}

	if listingURL != "" {
		found, err := pipeline.Discover(ctx, f, listingURL, cfg.Discover)
		if err != nil {
			if len(found) == 0 {
				logError("failed to read listing: %v", err)
				return nil, err
			}
			logger.Warn("listing walk stopped early", "url", listingURL, "error", err)
		}
		logger.Info("listing read", "url", listingURL, "articles", len(found))
		urls = append(urls, found...)
	}
	return urls, nil
}
