// Package crawler reads a discussion thread from the source platform: the
// rendered article page and the paginated comments API.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"
	"threadrelay/internal/telemetry"
	"threadrelay/pkg/utils"

	"github.com/go-resty/resty/v2"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrRetriesExhausted     = errors.New("retries exhausted")
)

// Scraper performs GET requests with config-driven retry logic.
type Scraper struct {
	client      *resty.Client
	retryPolicy *config.RetryPolicy
	logger      *logger.Logger
}

// NewScraper creates a scraper from the crawler config.
func NewScraper(cfg *config.CrawlerConfig, log *logger.Logger) *Scraper {
	client := resty.New().
		SetTimeout(cfg.Retry.GetTimeout()).
		SetHeaders(utils.HeaderMap(utils.BuildHeaders(cfg.UserAgent, nil)))

	telemetry.InstrumentResty(client, "threadrelay/crawler")

	return &Scraper{
		client:      client,
		retryPolicy: &cfg.Retry,
		logger:      log,
	}
}

// Get fetches rawURL with the given query and returns the body of a 2xx response.
//
// Transport errors and rate-limit statuses are retried up to MaxAttempts with
// the policy delay in between. Any other non-2xx status fails immediately.
func (s *Scraper) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	body, _, err := s.GetWithStatus(ctx, rawURL, query)

	return body, err
}

// GetWithStatus is Get that also reports the last HTTP status seen (0 if none).
func (s *Scraper) GetWithStatus(ctx context.Context, rawURL string, query url.Values) ([]byte, int, error) {
	maxAttempts := s.retryPolicy.MaxAttempts

	var lastErr error

	var lastStatusCode int

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(query).
			Get(rawURL)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, lastStatusCode, ctxErr
			}

			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, maxAttempts, err)
			s.logger.WarnContext(ctx, "request failed", "url", rawURL, "attempt", attempt, "max_attempts", maxAttempts, "error", err)
		} else {
			lastStatusCode = resp.StatusCode()

			if resp.IsSuccess() {
				return resp.Body(), lastStatusCode, nil
			}

			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, lastStatusCode)

			// Only retry on specific status codes
			if !isRetryableStatus(lastStatusCode) {
				return nil, lastStatusCode, lastErr
			}

			s.logger.WarnContext(ctx, "retryable status", "url", rawURL, "status", lastStatusCode, "attempt", attempt, "max_attempts", maxAttempts)
		}

		if attempt < maxAttempts {
			if err := sleepContext(ctx, s.retryPolicy.Delay(attempt)); err != nil {
				return nil, lastStatusCode, err
			}
		}
	}

	return nil, lastStatusCode, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
