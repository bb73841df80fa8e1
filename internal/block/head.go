package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

// Head is the cached chain head
type Head struct {
	Number    uint64
	FetchedAt time.Time
}

// HeadProvider provides cached access to the chain head so that range clamping does not
// hit the node on every iteration
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=HeadProvider=MockHeadProvider
type HeadProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// Fetcher is the interface for fetching the latest block from the node
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=Fetcher=MockBlockFetcher
type Fetcher interface {
	// FetchLatestBlock fetches the latest accepted block number
	FetchLatestBlock(ctx context.Context) (uint64, error)
}

// Config holds configuration for the HeadProvider
type Config struct {
	// TTL is how long a fetched head is served without asking the node again
	TTL time.Duration

	// StaleWindow is how long an expired head may still be served when the node is unreachable
	StaleWindow time.Duration
}

type headProvider struct {
	fetcher Fetcher
	config  Config
	clock   adapter.Clock

	group singleflight.Group
	mu    sync.RWMutex
	head  *Head
}

// NewHeadProvider creates a new HeadProvider with caching
func NewHeadProvider(fetcher Fetcher, config Config, clock adapter.Clock) HeadProvider {
	return &headProvider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
	}
}

// GetLatestBlock returns the latest block number, using cache if valid.
// Concurrent callers that miss the cache share a single node request.
func (p *headProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()
	if cached != nil && now.Sub(cached.FetchedAt) < p.config.TTL {
		return cached.Number, nil
	}

	v, err, _ := p.group.Do("head", func() (interface{}, error) {
		return p.fetcher.FetchLatestBlock(ctx)
	})
	if err != nil {
		if cached != nil && now.Sub(cached.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Serving stale chain head",
				zap.Uint64("block_number", cached.Number),
				zap.Duration("age", now.Sub(cached.FetchedAt)),
				zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	number := v.(uint64)

	p.mu.Lock()
	// never move the head backwards on a lagging node replica
	if p.head == nil || number >= p.head.Number {
		p.head = &Head{Number: number, FetchedAt: now}
	} else {
		number = p.head.Number
		p.head.FetchedAt = now
	}
	p.mu.Unlock()

	logger.DebugCtx(ctx, "Fetched chain head", zap.Uint64("block_number", number))
	return number, nil
}
