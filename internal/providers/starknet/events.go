package starknet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

// EventFetcher retrieves the transfer-family events of a block range
//
//go:generate mockgen -source=events.go -destination=../../mocks/event_fetcher.go -package=mocks -mock_names=EventFetcher=MockEventFetcher
type EventFetcher interface {
	// FetchTransfers returns every Transfer, TransferSingle and TransferBatch event emitted in
	// [fromBlock, toBlock], in emission order. A failure on any page aborts the whole range
	// with ErrFetchIncomplete.
	FetchTransfers(ctx context.Context, fromBlock, toBlock uint64) ([]domain.RawEvent, error)
}

type eventFetcher struct {
	client    Client
	chunkSize int
}

func NewEventFetcher(client Client, chunkSize int) EventFetcher {
	if chunkSize <= 0 {
		chunkSize = domain.EVENTS_CHUNK_SIZE
	}
	return &eventFetcher{client: client, chunkSize: chunkSize}
}

func (f *eventFetcher) FetchTransfers(ctx context.Context, fromBlock, toBlock uint64) ([]domain.RawEvent, error) {
	filter := EventFilter{
		FromBlock: AtBlock(fromBlock),
		ToBlock:   AtBlock(toBlock),
		Keys: [][]string{{
			domain.FormatFelt(TransferKey),
			domain.FormatFelt(TransferSingleKey),
			domain.FormatFelt(TransferBatchKey),
		}},
		ChunkSize: f.chunkSize,
	}

	var events []domain.RawEvent
	ordinals := make(map[string]int)
	pages := 0

	// The continuation token is the only termination condition: an empty page with a token
	// still means more results
	for {
		chunk, err := f.client.GetEvents(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%w: blocks %d-%d page %d: %w", domain.ErrFetchIncomplete, fromBlock, toBlock, pages, err)
		}
		pages++

		for _, e := range chunk.Events {
			raw, err := toRawEvent(e)
			if err != nil {
				return nil, fmt.Errorf("%w: blocks %d-%d: %w", domain.ErrFetchIncomplete, fromBlock, toBlock, err)
			}
			raw.Ordinal = ordinals[raw.TransactionHash]
			ordinals[raw.TransactionHash]++
			events = append(events, raw)
		}

		if chunk.ContinuationToken == "" {
			break
		}
		filter.ContinuationToken = chunk.ContinuationToken
	}

	logger.DebugCtx(ctx, "Fetched transfer events",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock),
		zap.Int("pages", pages),
		zap.Int("events", len(events)))

	return events, nil
}

func toRawEvent(e EmittedEvent) (domain.RawEvent, error) {
	keys, err := parseFelts(e.Keys)
	if err != nil {
		return domain.RawEvent{}, fmt.Errorf("event keys in tx %s: %w", e.TransactionHash, err)
	}
	data, err := parseFelts(e.Data)
	if err != nil {
		return domain.RawEvent{}, fmt.Errorf("event data in tx %s: %w", e.TransactionHash, err)
	}

	return domain.RawEvent{
		FromAddress:     domain.NormalizeAddress(e.FromAddress),
		Keys:            keys,
		Data:            data,
		BlockNumber:     e.BlockNumber,
		BlockHash:       e.BlockHash,
		TransactionHash: domain.NormalizeAddress(e.TransactionHash),
	}, nil
}
