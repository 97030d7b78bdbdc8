package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/formfill/internal/config"
	"github.com/v0xg/formfill/internal/crawler"
)

var (
	configPath string
	verbose    bool
	root       string
	headless   bool
	stealth    bool
	profile    string

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formfill",
		Short: "Detect and autofill personal-information fields in web forms",
		Long: `formfill scans a page for name, email, phone and address inputs and
writes a persona into them the way a user typing would, so that frameworks
tracking input state see the new values.

Example:
  formfill fill "https://myapp.com/signup" --name "Jane Doe" --email jane@example.com`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (default: $"+config.EnvConfig+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	pf.StringVar(&root, "root", "", "CSS selector limiting the scan (default: whole document)")
	pf.BoolVar(&headless, "headless", true, "Run the browser without a window")
	pf.BoolVar(&stealth, "stealth", false, "Hide automation fingerprints from the page")
	pf.StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")

	rootCmd.AddCommand(newFillCmd(), newScanCmd(), newServeCmd())
	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Scan.Root = root
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = &headless
	}
	if flags.Changed("stealth") {
		cfg.Browser.Stealth = stealth
	}
	if flags.Changed("profile") {
		cfg.Browser.ProfileDir = profile
	}

	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

func browserOptions() crawler.Options {
	return crawler.Options{
		Bin:        cfg.Browser.Bin,
		Remote:     cfg.Browser.Remote,
		Headless:   *cfg.Browser.Headless,
		Stealth:    cfg.Browser.Stealth,
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Timeout:    cfg.Browser.Timeout,
		ProfileDir: cfg.Browser.ProfileDir,
		Root:       cfg.Scan.Root,
		Logger:     logger,
	}
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
