package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/block"
	"github.com/feral-file/ff-starknet-indexer/internal/checkpoint"
	"github.com/feral-file/ff-starknet-indexer/internal/classifier"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/handler"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/messaging"
	"github.com/feral-file/ff-starknet-indexer/internal/metrics"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

const (
	DEFAULT_WORKER_POOL_SIZE  = 8
	DEFAULT_WORKER_QUEUE_SIZE = 1024
	DEFAULT_RANGE_SIZE        = 100
	DEFAULT_POLL_INTERVAL     = 10 * time.Second
)

// Config holds the configuration of the indexing loop
type Config struct {
	// RangeSize is the number of blocks fetched after the start block of each range
	RangeSize uint64
	// PollInterval is the wait after reaching the chain head or after a failed range
	PollInterval time.Duration

	WorkerPoolSize  int
	WorkerQueueSize int

	// RetryInitialInterval and RetryMaxElapsedTime bound the replay of an event failing
	// with a retryable error
	RetryInitialInterval time.Duration
	RetryMaxElapsedTime  time.Duration
}

// RangeResult summarises one processed block range
type RangeResult struct {
	FromBlock uint64
	ToBlock   uint64
	// Processed is false when the start block is beyond the chain head
	Processed bool
	// CaughtUp is true when the range ended at the chain head
	CaughtUp bool

	Events  int
	Applied int
	Skipped int
}

// Indexer replays transfer events into the document store
type Indexer interface {
	// Run indexes from the checkpoint until ctx is cancelled
	Run(ctx context.Context) error

	// ProcessRange fetches and applies the events of [from, from+size] clamped to the chain
	// head, then advances the checkpoint. The checkpoint is left untouched on error.
	ProcessRange(ctx context.Context, from uint64, size uint64) (*RangeResult, error)

	// Close stops the worker pool
	Close()
}

type indexer struct {
	config     Config
	store      store.Store
	tracker    checkpoint.Tracker
	fetcher    starknet.EventFetcher
	head       block.HeadProvider
	classifier classifier.Classifier
	dispatcher handler.Dispatcher
	publisher  messaging.Publisher
	clock      adapter.Clock
	pool       pond.Pool
}

// NewIndexer creates a new indexer
func NewIndexer(
	config Config,
	st store.Store,
	tracker checkpoint.Tracker,
	fetcher starknet.EventFetcher,
	head block.HeadProvider,
	classifier classifier.Classifier,
	dispatcher handler.Dispatcher,
	publisher messaging.Publisher,
	clock adapter.Clock,
) Indexer {
	if config.RangeSize == 0 {
		config.RangeSize = DEFAULT_RANGE_SIZE
	}
	if config.PollInterval == 0 {
		config.PollInterval = DEFAULT_POLL_INTERVAL
	}
	if config.WorkerPoolSize == 0 {
		config.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if config.WorkerQueueSize == 0 {
		config.WorkerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}

	return &indexer{
		config:     config,
		store:      st,
		tracker:    tracker,
		fetcher:    fetcher,
		head:       head,
		classifier: classifier,
		dispatcher: dispatcher,
		publisher:  publisher,
		clock:      clock,
		pool: pond.NewPool(
			config.WorkerPoolSize,
			pond.WithQueueSize(config.WorkerQueueSize),
		),
	}
}

func (i *indexer) Run(ctx context.Context) error {
	from, err := i.tracker.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	logger.InfoCtx(ctx, "Starting indexer",
		zap.Uint64("from_block", from),
		zap.Uint64("range_size", i.config.RangeSize),
		zap.Int("workers", i.config.WorkerPoolSize))

	for {
		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Indexer stopping", zap.Uint64("next_block", from))
			return nil
		}

		result, err := i.ProcessRange(ctx, from, i.config.RangeSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.ErrorCtx(ctx, fmt.Errorf("range from block %d failed: %w", from, err),
				zap.Uint64("from_block", from))
			i.wait(ctx)
			continue
		}

		if result.Processed {
			from = result.ToBlock + 1
		}
		if result.CaughtUp {
			i.wait(ctx)
		}
	}
}

// wait sleeps for the poll interval or until ctx is cancelled
func (i *indexer) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-i.clock.After(i.config.PollInterval):
	}
}

func (i *indexer) ProcessRange(ctx context.Context, from uint64, size uint64) (*RangeResult, error) {
	start := i.clock.Now()

	head, err := i.head.GetLatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain head: %w", err)
	}
	metrics.ChainHead.Set(float64(head))

	result := &RangeResult{FromBlock: from}
	if from > head {
		result.CaughtUp = true
		return result, nil
	}

	to := min(from+size, head)
	result.ToBlock = to
	result.CaughtUp = to == head

	events, err := i.fetcher.FetchTransfers(ctx, from, to)
	if err != nil {
		return nil, err
	}
	result.Events = len(events)
	metrics.EventsFetched.Add(float64(len(events)))

	applied, skipped, err := i.applyEvents(ctx, events)
	if err != nil {
		return nil, err
	}
	result.Applied = applied
	result.Skipped = skipped

	if err := i.tracker.Advance(ctx, to); err != nil {
		return nil, err
	}
	result.Processed = true
	metrics.LastSync.Set(float64(to))

	// keys of blocks before the checkpoint can no longer be fetched again
	if pruned, err := i.store.PruneProcessedEvents(ctx, to); err != nil {
		logger.WarnCtx(ctx, "Failed to prune processed events", zap.Error(err))
	} else if pruned > 0 {
		logger.DebugCtx(ctx, "Pruned processed events", zap.Int64("count", pruned))
	}

	elapsed := i.clock.Since(start)
	metrics.RangeDuration.Observe(elapsed.Seconds())
	logger.InfoCtx(ctx, "Processed block range",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to),
		zap.Uint64("head", head),
		zap.Int("events", result.Events),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// applyEvents processes the events of a range. Events are sharded by contract: each shard
// keeps the chain order, shards run concurrently on the worker pool.
func (i *indexer) applyEvents(ctx context.Context, events []domain.RawEvent) (int, int, error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	shards := shardByContract(events)

	rangeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]shardResult, len(shards))
	group := i.pool.NewGroup()
	for n, shard := range shards {
		group.SubmitErr(func() error {
			res, err := i.applyShard(rangeCtx, shard)
			results[n] = res
			if err != nil {
				// the range will be replayed, the other shards can stop early
				cancel()
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return 0, 0, err
	}

	applied, skipped := 0, 0
	for _, res := range results {
		applied += res.applied
		skipped += res.skipped
	}
	return applied, skipped, nil
}

type shardResult struct {
	applied int
	skipped int
}

func (i *indexer) applyShard(ctx context.Context, events []domain.RawEvent) (shardResult, error) {
	var res shardResult
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		applied, err := i.applyEvent(ctx, event)
		if err != nil {
			if domain.IsDataIntegrityError(err) {
				res.skipped++
				continue
			}
			return res, err
		}
		if applied {
			res.applied++
		}
	}
	return res, nil
}

// applyEvent classifies and dispatches one event, replaying it from scratch while it fails
// with a retryable error. Data integrity errors are logged and returned for the caller to skip.
func (i *indexer) applyEvent(ctx context.Context, event domain.RawEvent) (bool, error) {
	var (
		transfer *domain.Transfer
		applied  bool
	)
	operation := func() error {
		var err error
		transfer, err = i.classifier.Classify(ctx, event)
		if err != nil {
			return permanentUnlessRetryable(err)
		}
		if transfer == nil {
			return nil
		}

		applied, err = i.dispatcher.Dispatch(ctx, transfer)
		return permanentUnlessRetryable(err)
	}

	attempts := 0
	notify := func(err error, next time.Duration) {
		attempts++
		metrics.EventRetries.Inc()
		logger.WarnCtx(ctx, "Event failed, retrying",
			zap.String("event_key", event.Key()),
			zap.String("contract", event.FromAddress),
			zap.Uint64("block", event.BlockNumber),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(i.newBackOff(), ctx), notify)
	standard := "unknown"
	if transfer != nil {
		standard = string(transfer.Standard)
	}

	switch {
	case err == nil && transfer == nil:
		metrics.EventsProcessed.WithLabelValues(standard, metrics.OutcomeIgnored).Inc()
		return false, nil
	case err == nil && !applied:
		metrics.EventsProcessed.WithLabelValues(standard, metrics.OutcomeDuplicate).Inc()
		return false, nil
	case err == nil:
		metrics.EventsProcessed.WithLabelValues(standard, metrics.OutcomeApplied).Inc()
		i.publish(ctx, transfer)
		return true, nil
	case domain.IsDataIntegrityError(err):
		metrics.EventsProcessed.WithLabelValues(standard, metrics.OutcomeSkipped).Inc()
		logger.WarnCtx(ctx, "Skipping event",
			zap.String("event_key", event.Key()),
			zap.String("contract", domain.NormalizeAddress(event.FromAddress)),
			zap.String("token_id", tokenIDs(transfer)),
			zap.Uint64("block", event.BlockNumber),
			zap.String("tx_hash", event.TransactionHash),
			zap.Error(err))
		return false, err
	default:
		metrics.EventsProcessed.WithLabelValues(standard, metrics.OutcomeFailed).Inc()
		return false, fmt.Errorf("event %s at block %d: %w", event.Key(), event.BlockNumber, err)
	}
}

func (i *indexer) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if i.config.RetryInitialInterval > 0 {
		b.InitialInterval = i.config.RetryInitialInterval
	}
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = i.config.RetryMaxElapsedTime
	return b
}

// publish notifies downstream consumers; failures never affect the committed event
func (i *indexer) publish(ctx context.Context, transfer *domain.Transfer) {
	for _, change := range transfer.StateChanges() {
		if err := i.publisher.PublishStateChange(ctx, change); err != nil {
			metrics.PublishFailures.Inc()
			logger.WarnCtx(ctx, "Failed to publish state change",
				zap.String("event_key", change.EventKey),
				zap.String("token_id", change.TokenID),
				zap.Error(err))
		}
	}
}

func permanentUnlessRetryable(err error) error {
	if err == nil || domain.IsRetryable(err) {
		return err
	}
	return backoff.Permanent(err)
}

// shardByContract groups events by emitting contract, keeping the relative order within each
// group and the order of first appearance across groups
func shardByContract(events []domain.RawEvent) [][]domain.RawEvent {
	index := make(map[string]int)
	var shards [][]domain.RawEvent
	for _, e := range events {
		contract := domain.NormalizeAddress(e.FromAddress)
		n, ok := index[contract]
		if !ok {
			n = len(shards)
			index[contract] = n
			shards = append(shards, nil)
		}
		shards[n] = append(shards[n], e)
	}
	return shards
}

func tokenIDs(transfer *domain.Transfer) string {
	if transfer == nil || len(transfer.TokenIDs) == 0 {
		return ""
	}
	if len(transfer.TokenIDs) == 1 {
		return transfer.TokenIDs[0].Dec()
	}
	return fmt.Sprintf("%s (+%d)", transfer.TokenIDs[0].Dec(), len(transfer.TokenIDs)-1)
}

func (i *indexer) Close() {
	if i.pool == nil {
		return
	}
	logger.Info("Shutting down indexer worker pool",
		zap.Uint64("submitted", i.pool.SubmittedTasks()),
		zap.Uint64("failed", i.pool.FailedTasks()))
	i.pool.StopAndWait()
}
