package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured limit
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// GetBytes performs a GET request and returns the raw response body
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// HTTPClientConfig holds the limits applied to every request
type HTTPClientConfig struct {
	// Timeout bounds a single round trip
	Timeout time.Duration
	// MaxBodySize bounds the number of bytes read from a response (0 = unlimited)
	MaxBodySize int64
	// MaxElapsedTime bounds the total time spent retrying a request
	MaxElapsedTime time.Duration
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(config HTTPClientConfig) HTTPClient {
	if config.MaxElapsedTime == 0 {
		config.MaxElapsedTime = 30 * time.Second
	}
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// doRequestWithRetry executes an HTTP request with exponential backoff retry.
// Rate limiting (429) and server errors (5xx) are retried; any other non-OK status is permanent.
func (c *RealHTTPClient) doRequestWithRetry(ctx context.Context, req *http.Request) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			logger.Debug("retryable status, retrying with backoff",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode))
			return fmt.Errorf("retryable status code %d", resp.StatusCode)
		}

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status code %d", resp.StatusCode))
		}

		respBody, err = c.readBody(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = c.config.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return respBody, nil
}

// readBody reads at most MaxBodySize bytes, failing when the body is larger
func (c *RealHTTPClient) readBody(body io.Reader) ([]byte, error) {
	if c.config.MaxBodySize <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(body, c.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > c.config.MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// GetBytes performs a GET request and returns the raw response body
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequestWithRetry(ctx, req)
}
