package uri

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

var ErrNoGateway = errors.New("no gateway configured")

// FetchFirst GETs every candidate URL in parallel and returns the body of the first one
// that succeeds. The remaining requests are cancelled once a winner is found.
func FetchFirst(ctx context.Context, httpClient adapter.HTTPClient, urls []string) ([]byte, string, error) {
	if len(urls) == 0 {
		return nil, "", ErrNoGateway
	}

	if len(urls) == 1 {
		body, err := httpClient.GetBytes(ctx, urls[0])
		if err != nil {
			return nil, "", err
		}
		return body, urls[0], nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		url  string
		body []byte
		err  error
	}

	resultCh := make(chan result, len(urls))
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			body, err := httpClient.GetBytes(ctx, url)
			resultCh <- result{url: url, body: body, err: err}
		}(u)
	}

	// Wait for all goroutines in a separate goroutine
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Return the first successful result
	var errs []error
	for res := range resultCh {
		if res.err == nil {
			logger.DebugCtx(ctx, "Fetched from gateway", zap.String("url", res.url))
			return res.body, res.url, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", res.url, res.err))
	}

	return nil, "", fmt.Errorf("all gateways failed: %w", errors.Join(errs...))
}
