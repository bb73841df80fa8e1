package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

// Tracker records the last block whose events have all been committed
//
//go:generate mockgen -source=tracker.go -destination=../mocks/checkpoint_tracker.go -package=mocks -mock_names=Tracker=MockCheckpointTracker
type Tracker interface {
	// LastSync returns the block indexing resumes from. The block itself is fetched again.
	LastSync(ctx context.Context) (uint64, error)

	// Advance records block as fully processed. Moving backwards is ignored.
	Advance(ctx context.Context, block uint64) error
}

type tracker struct {
	store        store.Store
	defaultBlock uint64

	mu     sync.Mutex
	loaded bool
	last   uint64
}

// NewTracker creates a tracker starting at defaultBlock when no checkpoint is recorded
func NewTracker(st store.Store, defaultBlock uint64) Tracker {
	return &tracker{
		store:        st,
		defaultBlock: defaultBlock,
	}
}

func (t *tracker) LastSync(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return 0, err
	}
	return t.last, nil
}

func (t *tracker) Advance(ctx context.Context, block uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return err
	}
	if block <= t.last {
		logger.DebugCtx(ctx, "Checkpoint not advanced",
			zap.Uint64("current", t.last),
			zap.Uint64("block", block))
		return nil
	}

	if err := t.store.SetLastSync(ctx, block); err != nil {
		return fmt.Errorf("failed to record checkpoint: %w", err)
	}
	t.last = block

	logger.InfoCtx(ctx, "Checkpoint advanced", zap.Uint64("last_sync", block))
	return nil
}

// load reads the checkpoint once; the tracker is the only writer afterwards
func (t *tracker) load(ctx context.Context) error {
	if t.loaded {
		return nil
	}

	block, found, err := t.store.GetLastSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if !found {
		logger.InfoCtx(ctx, "No checkpoint recorded, starting from default",
			zap.Uint64("block", t.defaultBlock))
		block = t.defaultBlock
	}

	t.last = block
	t.loaded = true
	return nil
}
