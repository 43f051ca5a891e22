package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// HTTPClient wraps http.Client with a request rate limit and retries on
// transient failures. Market data APIs throttle aggressively, so every
// provider shares this wrapper.
type HTTPClient struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
}

// HTTPClientOptions holds options for creating a new HTTPClient.
type HTTPClientOptions struct {
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetryTime   time.Duration
}

// NewHTTPClient creates a new rate-limited HTTP client.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}

	return &HTTPClient{
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		maxElapsed: opts.MaxRetryTime,
	}
}

// Do performs the request after waiting for the rate limiter, retrying
// network errors, 429s, and 5xx responses with exponential backoff. Other
// non-2xx statuses fail immediately.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.client.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		resp.Body.Close()
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}
