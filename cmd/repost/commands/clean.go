package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/pkg/cleaner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Tidy an already published post",
	Long: `Clean applies the cleaning rules to a published post body: missing image
alt text is filled from the title keywords, time elements and "published
on" lines are dropped, and replacements then symbol removal run over every
text node. The cleaned title is printed to stderr.

Examples:
  repost clean post.html --title "Storm hits the coast (photos)"

  repost clean post.html --title "..." --markdown

  repost clean page.html --extractor trafilatura`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.String("title", "", "post title")
	flags.Bool("markdown", false, "convert the cleaned body to Markdown")
	flags.String("extractor", "none", "extract the main content before cleaning: none, readability, trafilatura")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	addRulesFlags(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, rulesBindings)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	content, err := readInput(path)
	if err != nil {
		return err
	}
	ruleStore, err := loadRules(cfg)
	if err != nil {
		return err
	}

	title, _ := flags.GetString("title")
	post := cleaner.NewPostCleaner(ruleStore.Cleaning, title)

	name, _ := flags.GetString("extractor")
	extractor, err := newExtractor(name)
	if err != nil {
		return err
	}
	chain := []cleaner.Cleaner{post}
	if extractor != nil {
		chain = append([]cleaner.Cleaner{extractor}, chain...)
	}
	if md, _ := flags.GetBool("markdown"); md {
		chain = append(chain, cleaner.NewMarkdown())
	}
	c := cleaner.NewChain(chain...)
	logger.Debug("cleaning post", "cleaner", c.Name())

	body, err := c.Clean(content)
	if err != nil {
		logError("clean failed: %v", err)
		return err
	}
	cleanTitle := cleaner.CleanTitle(title, ruleStore.Cleaning)

	outPath, _ := flags.GetString("output")
	out, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := fmt.Fprintln(out, body); err != nil {
		return err
	}
	if title != "" {
		logInfo("Title: %s", cleanTitle)
	}
	logInfo("Changed: %v", body != content || cleanTitle != title)
	return nil
}

// newExtractor returns the main-content cleaner for name, or nil for none.
func newExtractor(name string) (cleaner.Cleaner, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "readability":
		return cleaner.NewReadability(nil), nil
	case "trafilatura":
		t := cleaner.NewTrafilatura(nil)
		if !t.IsAvailable() {
			return nil, cleaner.ErrTrafilaturaNotAvailable
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q (want none, readability or trafilatura)", name)
	}
}
