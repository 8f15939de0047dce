package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"
	"threadrelay/internal/models"
	"threadrelay/internal/normalizer"
	"threadrelay/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const previewWidth = 40

// Relay receives the comment and reply records of a thread.
// Implementations report failure through the return value and never panic.
type Relay interface {
	RelayComment(ctx context.Context, articleID string, comment models.Comment) bool
	RelayReply(ctx context.Context, articleID, commentID string, reply models.Reply) bool
}

// ThreadOptions bounds the traversal of one thread.
type ThreadOptions struct {
	MaxPages         int
	ReplyLimit       int
	ReplyConcurrency int
	PageDelay        time.Duration
	PageJitter       time.Duration
}

// ThreadOptionsFromConfig reads ThreadOptions out of the crawler config.
func ThreadOptionsFromConfig(cfg *config.CrawlerConfig) ThreadOptions {
	return ThreadOptions{
		MaxPages:         cfg.MaxPages,
		ReplyLimit:       cfg.ReplyLimit,
		ReplyConcurrency: cfg.ReplyConcurrency,
		PageDelay:        cfg.PageDelay(),
		PageJitter:       cfg.PageJitter(),
	}
}

// ThreadResult counts what happened while relaying one thread.
type ThreadResult struct {
	Errors             []error
	PagesFetched       int
	CommentsRelayed    int
	CommentsFailed     int
	CommentsSkipped    int
	RepliesRelayed     int
	RepliesFailed      int
	RepliesSkipped     int
	ReplyFetchFailures int
}

// ThreadFetcher walks the comments of an article page by page and relays
// each comment followed by its replies.
type ThreadFetcher struct {
	scraper   *Scraper
	endpoints *Endpoints
	processor *normalizer.Processor
	relay     Relay
	logger    *logger.Logger
	opts      ThreadOptions
}

// NewThreadFetcher creates a thread fetcher with injected dependencies.
func NewThreadFetcher(scraper *Scraper, endpoints *Endpoints, relay Relay, opts ThreadOptions, log *logger.Logger) *ThreadFetcher {
	return &ThreadFetcher{
		scraper:   scraper,
		endpoints: endpoints,
		processor: normalizer.NewProcessor(),
		relay:     relay,
		logger:    log,
		opts:      opts,
	}
}

// RelayThread relays every comment of the article, up to MaxPages pages.
//
// Pages are requested one after another with a paced delay between them.
// A failed page stops pagination; whatever was relayed before stays relayed.
func (f *ThreadFetcher) RelayThread(ctx context.Context, articleID string) *ThreadResult {
	result := &ThreadResult{}
	pacer := NewPacer(f.opts.PageDelay, f.opts.PageJitter)
	log := f.logger.With("article_id", articleID)

	cursor := ""

	for page := 1; page <= f.opts.MaxPages; page++ {
		if err := pacer.Wait(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("page %d: %w", page, err))
			return result
		}

		commentPage, err := f.fetchCommentPage(ctx, articleID, cursor)
		if err != nil {
			log.ErrorContext(ctx, "comment page failed, stopping pagination", "page", page, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("page %d: %w", page, err))

			return result
		}

		result.PagesFetched++
		log.InfoContext(ctx, "comment page fetched", "page", page, "items", len(commentPage.Items))

		for _, item := range commentPage.Items {
			if ctx.Err() != nil {
				result.Errors = append(result.Errors, ctx.Err())
				return result
			}

			f.relayComment(ctx, articleID, item, result)
		}

		if !commentPage.HasNext() {
			log.Debug("no more comment pages", "page", page)
			return result
		}

		cursor = *commentPage.NextKey

		if page == f.opts.MaxPages {
			log.Info("page limit reached, more comments remain", "max_pages", f.opts.MaxPages)
		}
	}

	return result
}

func (f *ThreadFetcher) fetchCommentPage(ctx context.Context, articleID, cursor string) (*models.CommentPage, error) {
	endpoint, query := f.endpoints.Comments(articleID, cursor)

	body, err := f.scraper.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	var page models.CommentPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse comment page: %w", err)
	}

	return &page, nil
}

func (f *ThreadFetcher) relayComment(ctx context.Context, articleID string, item models.CommentItem, result *ThreadResult) {
	comment, err := f.processor.Comment(item)
	if err != nil {
		f.logger.Warn("skipping comment", "article_id", articleID, "floor", item.Floor, "error", err)
		result.CommentsSkipped++

		return
	}

	if f.relay.RelayComment(ctx, articleID, comment) {
		result.CommentsRelayed++

		if f.logger.Enabled(slog.LevelDebug) {
			f.logger.Debug("comment relayed",
				"comment_id", comment.ID,
				"author", comment.Author,
				"content", utils.Preview(comment.Content, previewWidth),
			)
		}
	} else {
		result.CommentsFailed++
	}

	// Replies finish before the next comment starts.
	if item.SubCommentCount > 0 {
		f.relayReplies(ctx, articleID, comment.ID, result)
	}
}

// relayReplies fetches the first page of replies under a comment and relays
// them all concurrently. Sibling failures are independent of each other.
func (f *ThreadFetcher) relayReplies(ctx context.Context, articleID, commentID string, result *ThreadResult) {
	items, err := f.fetchReplies(ctx, articleID, commentID)
	if err != nil {
		f.logger.ErrorContext(ctx, "reply fetch failed", "article_id", articleID, "comment_id", commentID, "error", err)
		result.ReplyFetchFailures++
		result.Errors = append(result.Errors, fmt.Errorf("replies of %s: %w", commentID, err))

		return
	}

	var (
		g  errgroup.Group
		mu sync.Mutex

		relayed, failed, skipped int
	)

	if f.opts.ReplyConcurrency > 0 {
		g.SetLimit(f.opts.ReplyConcurrency)
	}

	for _, item := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					f.logger.Error("reply relay panicked", "comment_id", commentID, "reply_id", item.ID, "panic", r)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}()

			reply, err := f.processor.Reply(item)
			if err != nil {
				f.logger.Warn("skipping reply", "comment_id", commentID, "error", err)
				mu.Lock()
				skipped++
				mu.Unlock()

				return nil
			}

			ok := f.relay.RelayReply(ctx, articleID, commentID, reply)

			mu.Lock()
			defer mu.Unlock()

			if ok {
				relayed++
			} else {
				failed++
			}

			return nil
		})
	}

	_ = g.Wait()

	result.RepliesRelayed += relayed
	result.RepliesFailed += failed
	result.RepliesSkipped += skipped

	f.logger.Debug("replies relayed", "comment_id", commentID, "relayed", relayed, "failed", failed, "skipped", skipped)
}

func (f *ThreadFetcher) fetchReplies(ctx context.Context, articleID, commentID string) ([]models.CommentItem, error) {
	endpoint, query := f.endpoints.Replies(articleID, commentID, f.opts.ReplyLimit)

	body, err := f.scraper.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	var items []models.CommentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse replies: %w", err)
	}

	return items, nil
}
