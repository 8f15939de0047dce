package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"
	"threadrelay/internal/worker"

	"github.com/spf13/cobra"
)

var errPanic = errors.New("worker panicked")

const defaultConfigPath = "configs/worker.yaml"

type options struct {
	configPath string
	url        string
	file       string
	relayURL   string
	platform   string
	maxPages   int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "worker [--config worker.yaml] [--url <article url> | --file <page.html>]",
		Short:         "Relays a forum thread (article, comments, replies) to a storage backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML config file (falls back to "+defaultConfigPath+" when present)")
	flags.StringVar(&opts.url, "url", "", "Article page URL to read")
	flags.StringVar(&opts.file, "file", "", "Local HTML file of the rendered article page")
	flags.StringVar(&opts.relayURL, "relay-url", os.Getenv("RELAY_BASE_URL"), "Storage backend base URL")
	flags.StringVar(&opts.platform, "platform", "", "Platform name used in relay paths")
	flags.IntVar(&opts.maxPages, "max-pages", 0, "Maximum number of comment pages to fetch")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	return cmd
}

// loadConfig reads the config file, then lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()

	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	flags := cmd.Flags()

	if flags.Changed("url") {
		cfg.Source.URL = opts.url
		cfg.Source.File = ""
	}

	if flags.Changed("file") {
		cfg.Source.File = opts.file
	}

	if opts.relayURL != "" {
		cfg.Relay.BaseURL = opts.relayURL
	}

	if flags.Changed("platform") {
		cfg.Source.Platform = opts.platform
	}

	if flags.Changed("max-pages") {
		cfg.Crawler.MaxPages = opts.maxPages
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	log := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	defer func() {
		if r := recover(); r != nil {
			log.Error("unexpected panic", "panic", r)
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	log.Debug("config loaded", "config", cfg.String())
	log.Info("🚀 starting thread relay", "source", cfg.Source.GetSource(), "relay", cfg.Relay.BaseURL, "platform", cfg.Source.Platform)

	result, err := worker.New(cfg, log).Run(ctx, cfg.Source)
	if err != nil {
		log.Error("❌ run failed", "error", err)
		return err
	}

	printSummary(os.Stdout, result)

	return nil
}

func execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}
