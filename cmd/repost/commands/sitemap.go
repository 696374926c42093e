package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/repost/internal/sitemap"
	"github.com/jmylchreest/repost/internal/store"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <url>",
	Short: "List article URLs from a sitemap",
	Long: `Sitemap walks a sitemap index breadth-first and prints the same-site
article URLs it finds, newest first, with their lastmod date.

Examples:
  repost sitemap https://example.com/sitemap.xml --limit 20

  repost sitemap https://example.com/sitemap_index.xml --unpublished`,
	Args: cobra.ExactArgs(1),
	RunE: runSitemap,
}

func init() {
	rootCmd.AddCommand(sitemapCmd)

	flags := sitemapCmd.Flags()
	flags.Int("limit", 0, "max URLs to print (0=all)")
	flags.Int("max-sitemaps", 0, "max sitemap files to read (0=unlimited)")
	flags.Duration("sitemap-delay", time.Second, "delay between sitemap fetches")
	flags.Bool("unpublished", false, "omit URLs already in the published URLs file")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	addFetchFlags(sitemapCmd)
}

func runSitemap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, merge(fetchBindings, map[string]string{
		"max-sitemaps":  "sitemap.max_sitemaps",
		"sitemap-delay": "sitemap.delay",
	}))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	entries, err := sitemap.NewReader(cfg.Sitemap, f).Entries(ctx, args[0])
	if err != nil {
		logError("failed to read sitemap: %v", err)
		return err
	}

	if unpublished, _ := cmd.Flags().GetBool("unpublished"); unpublished {
		published, err := store.Open(cfg.Paths.PublishedURLsFile)
		if err != nil {
			return err
		}
		kept := entries[:0]
		for _, e := range entries {
			if !published.Contains(e.URL) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	outPath, _ := cmd.Flags().GetString("output")
	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	for _, e := range entries {
		lastmod := "-"
		if !e.LastMod.IsZero() {
			lastmod = e.LastMod.Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", e.URL, lastmod); err != nil {
			return err
		}
	}
	logInfo("%d article URLs", len(entries))
	return nil
}
