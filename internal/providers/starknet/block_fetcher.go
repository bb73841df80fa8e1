package starknet

import (
	"context"

	"github.com/feral-file/ff-starknet-indexer/internal/block"
)

// blockFetcher implements block.Fetcher on top of starknet_blockNumber
type blockFetcher struct {
	client Client
}

func NewBlockFetcher(client Client) block.Fetcher {
	return &blockFetcher{client: client}
}

// FetchLatestBlock fetches the latest accepted block number
func (f *blockFetcher) FetchLatestBlock(ctx context.Context) (uint64, error) {
	return f.client.BlockNumber(ctx)
}
