// Package worker runs one thread relay: extract the article, relay it, then
// relay its comments and replies.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"threadrelay/internal/config"
	"threadrelay/internal/crawler"
	"threadrelay/internal/logger"
	"threadrelay/internal/models"
	"threadrelay/internal/normalizer"
	"threadrelay/internal/relay"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "threadrelay/worker"

// ErrArticleRelayFailed is returned when the backend rejects the article.
// Nothing else is fetched or relayed after it.
var ErrArticleRelayFailed = errors.New("article relay failed")

// ArticleSource produces the article record of the configured page.
type ArticleSource interface {
	Extract(ctx context.Context, src config.SourceConfig) (models.Article, error)
}

// ArticleRelay posts the article record.
type ArticleRelay interface {
	RelayArticle(ctx context.Context, article models.Article) bool
}

// ThreadRelayer relays all comments and replies of an article.
type ThreadRelayer interface {
	RelayThread(ctx context.Context, articleID string) *crawler.ThreadResult
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Article  models.Article
	Thread   *crawler.ThreadResult
	Duration time.Duration
}

// Worker wires the extractor, the relay and the thread fetcher together.
type Worker struct {
	source    ArticleSource
	relay     ArticleRelay
	thread    ThreadRelayer
	validator *normalizer.Validator
	logger    *logger.Logger
}

// New builds a worker and its components from cfg.
func New(cfg *config.Config, log *logger.Logger) *Worker {
	scraper := crawler.NewScraper(&cfg.Crawler, log)
	backend := relay.NewRelay(&cfg.Relay, cfg.Source.Platform, log)

	extractor := crawler.NewArticleExtractor(scraper, crawler.NewParser(cfg.Source.Selectors), log)
	fetcher := crawler.NewThreadFetcher(
		scraper,
		crawler.NewEndpoints(cfg.Source.APIBaseURL),
		backend,
		crawler.ThreadOptionsFromConfig(&cfg.Crawler),
		log,
	)

	return NewWithDeps(extractor, backend, fetcher, log)
}

// NewWithDeps creates a worker with injected dependencies (useful for testing).
func NewWithDeps(source ArticleSource, articleRelay ArticleRelay, thread ThreadRelayer, log *logger.Logger) *Worker {
	return &Worker{
		source:    source,
		relay:     articleRelay,
		thread:    thread,
		validator: normalizer.NewValidator(),
		logger:    log,
	}
}

// Run performs one relay of the thread named by src.
//
// A failed extraction or a rejected article ends the run with an error before
// any comment is fetched. Comment and reply failures only show up in the
// returned thread counts.
func (w *Worker) Run(ctx context.Context, src config.SourceConfig) (result *Result, err error) {
	start := time.Now()
	result = &Result{RunID: uuid.NewString()}
	log := w.logger.With("run_id", result.RunID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "thread relay")
	span.SetAttributes(attribute.String("run_id", result.RunID))

	defer func() {
		result.Duration = time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	log.InfoContext(ctx, "run started", "source", src.GetSource())

	article, err := w.source.Extract(ctx, src)
	if err != nil {
		return result, fmt.Errorf("extraction failed: %w", err)
	}

	if err := w.validator.ValidateArticle(article); err != nil {
		return result, fmt.Errorf("extraction failed: %w", err)
	}

	result.Article = article
	log = log.With("article_id", article.ID)
	span.SetAttributes(attribute.String("article_id", article.ID))

	if !w.relay.RelayArticle(ctx, article) {
		return result, ErrArticleRelayFailed
	}

	log.InfoContext(ctx, "article relayed", "title", article.Title)

	result.Thread = w.thread.RelayThread(ctx, article.ID)

	log.InfoContext(ctx, "run finished",
		"pages", result.Thread.PagesFetched,
		"comments", result.Thread.CommentsRelayed,
		"replies", result.Thread.RepliesRelayed,
		"errors", len(result.Thread.Errors),
		"duration", time.Since(start),
	)

	return result, nil
}
