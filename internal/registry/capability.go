package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
)

// CapabilityCache remembers which contracts emitting Transfer are ERC721.
// Transfer shares its selector with ERC20, so the class ABI is probed once per contract.
//
//go:generate mockgen -source=capability.go -destination=../mocks/capability_cache.go -package=mocks -mock_names=CapabilityCache=MockCapabilityCache
type CapabilityCache interface {
	IsERC721(ctx context.Context, contractAddress string, block uint64) (bool, error)
}

type capabilityCache struct {
	client starknet.Client
	cache  *lru.Cache[string, bool]
}

// NewCapabilityCache creates a cache holding up to size probe results
func NewCapabilityCache(client starknet.Client, size int) (CapabilityCache, error) {
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create capability cache: %w", err)
	}
	return &capabilityCache{client: client, cache: cache}, nil
}

// IsERC721 probes the contract class at block. Failed probes are not cached.
func (c *capabilityCache) IsERC721(ctx context.Context, contractAddress string, block uint64) (bool, error) {
	address := domain.NormalizeAddress(contractAddress)
	if ok, hit := c.cache.Get(address); hit {
		return ok, nil
	}

	ok, err := c.client.IsERC721(ctx, address, block)
	if err != nil {
		return false, err
	}
	c.cache.Add(address, ok)
	return ok, nil
}
