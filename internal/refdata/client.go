package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/model"
)

// Client fetches index and shard documents from the remote store. Transient
// failures (5xx, transport errors, timeouts) are retried with exponential
// backoff; a 404 is "no data", not a failure.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a remote store client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// FetchIndex downloads the segment index.
func (c *Client) FetchIndex(ctx context.Context) (*model.SegmentIndex, error) {
	var index model.SegmentIndex
	if err := c.getJSON(ctx, c.cfg.indexURL(), &index); err != nil {
		return nil, fmt.Errorf("failed to fetch segment index: %w", err)
	}
	return &index, nil
}

// FetchShard downloads one shard file. A missing file returns (nil, nil):
// the store simply has no data for that prefix.
func (c *Client) FetchShard(ctx context.Context, filename string) (*model.Shard, error) {
	var shard model.Shard
	err := c.getJSON(ctx, c.cfg.segmentURL(filename), &shard)
	if err != nil {
		var status *httpStatusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			slog.Debug("Shard not found on remote store", "shard", filename)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch shard %s: %w", filename, err)
	}
	return &shard, nil
}

type httpStatusError struct {
	code int
	url  string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// getJSON fetches a URL and decodes the JSON body, applying the configured
// retry budget. Retry exhaustion surfaces as a terminal network error.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	requestID := uuid.NewString()

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failures and timeouts count as retryable.
			return &common.RetryableError{Err: err, Retryable: true}
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
			// Fall through to decode.
		case resp.StatusCode >= 500:
			return &common.RetryableError{
				Err:       &httpStatusError{code: resp.StatusCode, url: url},
				Retryable: true,
			}
		default:
			return &common.RetryableError{
				Err:       &httpStatusError{code: resp.StatusCode, url: url},
				Retryable: false,
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		if err := json.Unmarshal(body, v); err != nil {
			return &common.RetryableError{
				Err:       fmt.Errorf("failed to decode response: %w", err),
				Retryable: false,
			}
		}

		slog.Debug("Fetched remote document",
			"url", url,
			"request_id", requestID,
			"bytes", len(body),
			"elapsed", time.Since(start))
		return nil
	}

	if err := common.WithRetry(ctx, operation, c.cfg.Retry); err != nil {
		var retryable *common.RetryableError
		if errors.As(err, &retryable) && !retryable.Retryable {
			// Terminal non-retryable failure (404, 4xx, bad payload).
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	return nil
}
