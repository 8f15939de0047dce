package relay

import (
	"context"
	"fmt"
	"net/url"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"
	"threadrelay/internal/models"

	"golang.org/x/time/rate"
)

// Relay forwards article, comment and reply records to the backend.
// Every method reports success as a bool; failures are logged, never returned.
type Relay struct {
	client   Poster
	baseURL  string
	platform string
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewRelay creates a relay posting through a REST client built from cfg.
func NewRelay(cfg *config.RelayConfig, platform string, log *logger.Logger) *Relay {
	return NewRelayWithClient(
		NewRESTClient(cfg.APIKey, cfg.GetTimeout(), log),
		cfg.BaseURL,
		platform,
		cfg.MaxRequestsPerSec,
		log,
	)
}

// NewRelayWithClient creates a relay with a custom poster (useful for testing).
// A non-positive maxPerSec disables throttling.
func NewRelayWithClient(client Poster, baseURL, platform string, maxPerSec float64, log *logger.Logger) *Relay {
	var limiter *rate.Limiter
	if maxPerSec > 0 {
		burst := max(int(maxPerSec), 1)
		limiter = rate.NewLimiter(rate.Limit(maxPerSec), burst)
	}

	return &Relay{
		client:   client,
		baseURL:  baseURL,
		platform: platform,
		limiter:  limiter,
		logger:   log,
	}
}

// RelayArticle posts the article record.
func (r *Relay) RelayArticle(ctx context.Context, article models.Article) bool {
	endpoint, err := r.endpoint("articles")
	if err != nil {
		return r.fail(ctx, "article", article.ID, err)
	}

	return r.post(ctx, endpoint, article, "article", article.ID)
}

// RelayComment posts one comment under articleID.
func (r *Relay) RelayComment(ctx context.Context, articleID string, comment models.Comment) bool {
	endpoint, err := r.endpoint("articles", articleID, "comments")
	if err != nil {
		return r.fail(ctx, "comment", comment.ID, err)
	}

	return r.post(ctx, endpoint, comment, "comment", comment.ID)
}

// RelayReply posts one reply under commentID of articleID.
func (r *Relay) RelayReply(ctx context.Context, articleID, commentID string, reply models.Reply) bool {
	endpoint, err := r.endpoint("articles", articleID, "comments", commentID, "replies")
	if err != nil {
		return r.fail(ctx, "reply", reply.ID, err)
	}

	return r.post(ctx, endpoint, reply, "reply", reply.ID)
}

func (r *Relay) post(ctx context.Context, endpoint string, body any, kind, id string) bool {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return r.fail(ctx, kind, id, fmt.Errorf("throttle wait: %w", err))
		}
	}

	if err := r.client.Post(ctx, endpoint, body); err != nil {
		return r.fail(ctx, kind, id, err)
	}

	return true
}

func (r *Relay) fail(ctx context.Context, kind, id string, err error) bool {
	r.logger.ErrorContext(ctx, "relay failed", "kind", kind, "id", id, "error", err)

	return false
}

// endpoint joins path segments onto {base}/{platform}, escaping each segment.
func (r *Relay) endpoint(segments ...string) (string, error) {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, url.PathEscape(r.platform))

	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	joined, err := url.JoinPath(r.baseURL, escaped...)
	if err != nil {
		return "", fmt.Errorf("invalid relay base url: %w", err)
	}

	return joined, nil
}
