// Package commands implements the CLI commands for repost.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/repost/internal/config"
	"github.com/jmylchreest/repost/internal/logger"
)

// v holds every setting: defaults, then the config file, then REPOST_*
// environment variables, then flags.
var v = config.New("")

var rootCmd = &cobra.Command{
	Use:   "repost",
	Short: "Scrape, clean and republish news articles",
	Long: `Repost acquires articles from news sites, rewrites their HTML into a
clean publish-ready document and hands the result to a publisher.

Examples:
  # Format a scraped fragment with a hosted-image map
  repost format article.html --images images.json --feature https://cdn/x.jpg

  # Scrape one article
  repost scrape https://example.com/2024/05/story

  # List article URLs from a sitemap
  repost sitemap https://example.com/sitemap.xml

  # Run a full cycle from a sitemap, publishing as JSON lines
  repost run --sitemap https://example.com/sitemap.xml --limit 5 -o posts.jsonl`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./.repost.yaml or $HOME/.repost.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")

	_ = v.BindPFlag("debug", flags.Lookup("debug"))
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = v.BindPFlag("log_json", flags.Lookup("log-json"))
}

func initConfig() {
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	}
	if err := config.ReadFile(v); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig binds the command's flags to their config keys, loads the
// settings and initializes the logger.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	if err := bindFlags(cmd.Flags(), bindings); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		logError("%v", err)
		return nil, err
	}
	logger.Init(logger.Options{
		Debug: cfg.Debug,
		Quiet: cfg.Quiet,
		JSON:  cfg.LogJSON,
	})
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	return cfg, nil
}

// bindFlags maps flag names to config keys. Binding at run time keeps
// commands that share a key from overriding each other.
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) error {
	for flag, key := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openOutput returns stdout for "" or "-", else the created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// readInput reads the named file, or stdin for "" or "-".
func readInput(path string) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !v.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
