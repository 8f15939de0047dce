// Package relay posts thread records to the storage backend.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"threadrelay/internal/logger"
	"threadrelay/internal/telemetry"

	"github.com/go-resty/resty/v2"
)

// Transport errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

const maxErrorBodyPreview = 200

// Poster sends one JSON document to an endpoint.
type Poster interface {
	Post(ctx context.Context, endpoint string, body any) error
}

// Ensure RESTClient implements Poster.
var _ Poster = (*RESTClient)(nil)

// RESTClient posts JSON documents over HTTP.
type RESTClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewRESTClient creates a REST client. An empty apiKey sends no Authorization header.
func NewRESTClient(apiKey string, timeout time.Duration, log *logger.Logger) *RESTClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", apiKey)
	}

	telemetry.InstrumentResty(client, "threadrelay/relay")

	return &RESTClient{
		client: client,
		logger: log,
	}
}

// Post sends body as JSON and succeeds only on a 2xx status.
func (c *RESTClient) Post(ctx context.Context, endpoint string, body any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		text := resp.String()
		if len(text) > maxErrorBodyPreview {
			text = text[:maxErrorBodyPreview]
		}

		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode(), text)
	}

	c.logger.Debug("record posted", "endpoint", endpoint, "status", resp.StatusCode())

	return nil
}
