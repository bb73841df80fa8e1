package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

const defaultMaxQueueTime = 30 * time.Second

// Config holds the limits of one outbound provider. A non-positive RequestsPerSecond disables
// limiting.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	// MaxQueueTime bounds how long a request waits for a token
	MaxQueueTime time.Duration
}

func (c Config) enabled() bool {
	return c.RequestsPerSecond > 0
}

// limiter wraps a token bucket shared by every request sent to one provider
type limiter struct {
	name    string
	config  Config
	limiter *rate.Limiter
}

func newLimiter(name string, cfg Config) *limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxQueueTime <= 0 {
		cfg.MaxQueueTime = defaultMaxQueueTime
	}

	logger.Info("Rate limiter initialized",
		zap.String("provider", name),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst))

	return &limiter{
		name:    name,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// acquire blocks until a token is available. A request that cannot get one within the queue
// time fails as a transport error so the caller replays it later.
func (l *limiter) acquire(ctx context.Context) error {
	queueCtx, cancel := context.WithTimeout(ctx, l.config.MaxQueueTime)
	defer cancel()

	if err := l.limiter.Wait(queueCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s rate limit: %v", domain.ErrTransport, l.name, err)
	}
	return nil
}

// rpcDialer limits every client it dials
type rpcDialer struct {
	dialer adapter.RPCDialer
	name   string
	config Config
}

// NewRPCDialer wraps dialer so that the JSON-RPC calls of the dialed clients are rate limited
func NewRPCDialer(dialer adapter.RPCDialer, name string, cfg Config) adapter.RPCDialer {
	if !cfg.enabled() {
		return dialer
	}
	return &rpcDialer{dialer: dialer, name: name, config: cfg}
}

func (d *rpcDialer) Dial(ctx context.Context, rawurl string) (adapter.RPCClient, error) {
	client, err := d.dialer.Dial(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewRPCClient(client, d.name, d.config), nil
}

type rpcClient struct {
	client  adapter.RPCClient
	limiter *limiter
}

// NewRPCClient wraps client with a token bucket
func NewRPCClient(client adapter.RPCClient, name string, cfg Config) adapter.RPCClient {
	if !cfg.enabled() {
		return client
	}
	return &rpcClient{client: client, limiter: newLimiter(name, cfg)}
}

func (c *rpcClient) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.limiter.acquire(ctx); err != nil {
		return err
	}
	return c.client.CallContext(ctx, result, method, args...)
}

func (c *rpcClient) Close() {
	c.client.Close()
}

type httpClient struct {
	client  adapter.HTTPClient
	limiter *limiter
}

// NewHTTPClient wraps client with a token bucket
func NewHTTPClient(client adapter.HTTPClient, name string, cfg Config) adapter.HTTPClient {
	if !cfg.enabled() {
		return client
	}
	return &httpClient{client: client, limiter: newLimiter(name, cfg)}
}

func (c *httpClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.acquire(ctx); err != nil {
		return nil, err
	}
	return c.client.GetBytes(ctx, url)
}
