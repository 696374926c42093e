package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/output"
	"github.com/jmylchreest/repost/pkg/fetcher"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Extract articles from pages",
	Long: `Scrape fetches each page and extracts the article title, content HTML,
in-content images and feature image using the configured selectors.

Examples:
  repost scrape https://example.com/2024/05/story

  repost scrape https://example.com/a https://example.com/b \
      --content-selector "div.entry-content" --format yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.StringSlice("title-selector", nil, "CSS selector for the title (repeatable, first match wins)")
	flags.StringSlice("content-selector", nil, "CSS selector for the content container (repeatable)")
	flags.StringSlice("exclude-selector", nil, "CSS selector removed from the content (repeatable)")
	flags.String("max-content-size", "", "max page size (e.g. 500KB, 2MB, 0=unlimited)")
	addFetchFlags(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, merge(fetchBindings, map[string]string{
		"title-selector":   "scraping.title_selectors",
		"content-selector": "scraping.content_selectors",
		"exclude-selector": "scraping.exclude_selectors",
		"max-content-size": "scraping.max_content_size",
	}))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("output")
	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	w, err := output.NewWriter(out, format)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	f, err := newFetcher(cfg)
	if err != nil {
		logError("failed to create fetcher: %v", err)
		return err
	}
	defer func() { _ = f.Close() }()
	s := newScraper(cfg, f)

	var failed int
	for _, u := range args {
		if ctx.Err() != nil {
			break
		}
		article, err := s.Scrape(ctx, u)
		if err != nil {
			failed++
			if errors.Is(err, fetcher.ErrForbidden) {
				logger.Error("access forbidden", "url", u)
			} else {
				logger.Error("scrape failed", "url", u, "error", err)
			}
			continue
		}
		if err := w.Write(article); err != nil {
			return err
		}
	}

	if failed > 0 {
		logInfo("%d of %d pages failed", failed, len(args))
		if failed == len(args) {
			return errors.New("no article scraped")
		}
	}
	return nil
}
