package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yosssi/gohtml"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/formatter"
	"github.com/jmylchreest/repost/pkg/rules"
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Format an article HTML fragment for publishing",
	Long: `Format rewrites scraped article HTML into a clean, publish-ready document:
replacement rules, embed rewriting, site junk removal, structural cleanup,
image reconciliation against a hosted-image map, tag whitelisting and the
feature image.

Reads from the file argument or stdin.

Examples:
  repost format article.html --images images.json \
      --feature https://cdn.example/lead.jpg --title "Storm hits the coast"

  curl -s https://example.com/story | repost format --source https://example.com/story --stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	flags := formatCmd.Flags()
	flags.String("images", "", "hosted image map file (JSON or YAML object, source -> hosted URL)")
	flags.String("rules", "", "rules file to apply (default: the configured publishing rules)")
	flags.String("feature", "", "feature image URL to prepend")
	flags.String("title", "", "article title, used as image alt text")
	flags.String("source", "", "source article URL, selects site junk rules")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("pretty", false, "indent the formatted HTML")
	flags.Bool("stats", false, "print formatting statistics to stderr")
	flags.Bool("extra-break", false, "append a <br> after each paragraph")
	flags.Bool("keep-links", false, "keep internal link targets")
	addRulesFlags(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, merge(rulesBindings, map[string]string{
		"extra-break": "formatting.extra_break_after_paragraph",
	}))
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	raw, err := readInput(path)
	if err != nil {
		return err
	}

	in := formatter.Input{RawHTML: raw}
	in.FeatureImageURL, _ = flags.GetString("feature")
	in.Title, _ = flags.GetString("title")
	in.SourceURL, _ = flags.GetString("source")

	if imagesPath, _ := flags.GetString("images"); imagesPath != "" {
		if in.Images, err = formatter.LoadImageMap(imagesPath); err != nil {
			logError("failed to load image map: %v", err)
			return err
		}
		logger.Debug("image map loaded", "path", imagesPath, "entries", in.Images.Len())
	}

	if rulesPath, _ := flags.GetString("rules"); rulesPath != "" {
		if in.Rules, err = rules.FromFile(rulesPath); err != nil {
			logError("failed to load rules: %v", err)
			return err
		}
	} else {
		store, err := loadRules(cfg)
		if err != nil {
			return err
		}
		in.Rules = store.Publishing
	}

	fcfg := cfg.Formatting
	if keep, _ := flags.GetBool("keep-links"); keep {
		fcfg.RemoveInternalLinks = false
	}
	if err := fcfg.Validate(); err != nil {
		return err
	}

	result := formatter.New(&fcfg).FormatWithStats(in)
	content := result.Content
	if pretty, _ := flags.GetBool("pretty"); pretty && content != "" {
		content = gohtml.Format(content)
	}

	outPath, _ := flags.GetString("output")
	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := fmt.Fprintln(out, content); err != nil {
		return err
	}

	if showStats, _ := flags.GetBool("stats"); showStats {
		printFormatStats(result)
	}
	if result.Error != nil {
		logger.Warn("formatting fell back to the raw input", "error", result.Error)
	}
	return nil
}

func printFormatStats(result *formatter.Result) {
	s := result.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Size: %s -> %s", humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)))
	if s.InputBytes > 0 {
		fmt.Fprintf(&b, " (%s%%)", humanize.FtoaWithDigits(100*float64(s.OutputBytes)/float64(s.InputBytes), 1))
	}
	fmt.Fprintf(&b, " in %s\n", s.TotalDuration)
	b.WriteString(s.String())
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}
	fmt.Fprintln(os.Stderr, strings.TrimRight(b.String(), "\n"))
}
