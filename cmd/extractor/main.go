// Package main provides the extractor command: read one rendered article page
// and print its article record as JSON, without relaying anything.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"threadrelay/internal/config"
	"threadrelay/internal/crawler"
	"threadrelay/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, pageURL, file, output, logLevel string

	cmd := &cobra.Command{
		Use:           "extractor [--url <article url> | --file <page.html>] [--output article.json]",
		Short:         "Extracts the article record from a rendered thread page.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()

			if configPath != "" {
				loaded, err := config.LoadConfig(configPath)
				if err != nil {
					return err
				}

				cfg = loaded
			}

			if pageURL != "" {
				cfg.Source.URL = pageURL
				cfg.Source.File = ""
			}

			if file != "" {
				cfg.Source.File = file
			}

			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			if err := cfg.ValidateSource(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return extract(cmd.Context(), cfg, output)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to the YAML config file")
	flags.StringVar(&pageURL, "url", "", "Article page URL to read")
	flags.StringVar(&file, "file", "", "Local HTML file of the rendered article page")
	flags.StringVarP(&output, "output", "o", "", "Write the JSON record to this file instead of stdout")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	return cmd
}

func extract(ctx context.Context, cfg *config.Config, output string) error {
	log := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	extractor := crawler.NewArticleExtractor(
		crawler.NewScraper(&cfg.Crawler, log),
		crawler.NewParser(cfg.Source.Selectors),
		log,
	)

	article, err := extractor.Extract(ctx, cfg.Source)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal article: %w", err)
	}

	if output == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	log.Info("✅ article written", "path", output, "article_id", article.ID)

	return nil
}
