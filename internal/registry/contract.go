package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

// ContractRegistry records the name and symbol of each contract exactly once
//
//go:generate mockgen -source=contract.go -destination=../mocks/contract_registry.go -package=mocks -mock_names=ContractRegistry=MockContractRegistry
type ContractRegistry interface {
	// Exists checks whether the contract metadata has been recorded
	Exists(ctx context.Context, contractAddress string) (bool, error)

	// CreateIfAbsent inserts the contract metadata inside the event transaction.
	// Losing a race against a concurrent writer is not an error.
	CreateIfAbsent(ctx context.Context, tx store.Tx, metadata *domain.ContractMetadata) error
}

type contractRegistry struct {
	store store.Store
	// contracts known to be recorded; entries are never invalidated since metadata is never deleted
	known *lru.Cache[string, struct{}]
}

// NewContractRegistry creates a registry caching up to size known contracts
func NewContractRegistry(st store.Store, size int) (ContractRegistry, error) {
	known, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract cache: %w", err)
	}
	return &contractRegistry{store: st, known: known}, nil
}

func (r *contractRegistry) Exists(ctx context.Context, contractAddress string) (bool, error) {
	address := domain.NormalizeAddress(contractAddress)
	if r.known.Contains(address) {
		return true, nil
	}

	exists, err := r.store.ContractMetadataExists(ctx, address)
	if err != nil {
		return false, fmt.Errorf("failed to check contract metadata: %w", err)
	}
	if exists {
		r.known.Add(address, struct{}{})
	}
	return exists, nil
}

// CreateIfAbsent does not populate the cache: the transaction may still roll back
func (r *contractRegistry) CreateIfAbsent(ctx context.Context, tx store.Tx, metadata *domain.ContractMetadata) error {
	created, err := tx.InsertContractMetadataIfAbsent(ctx, metadata)
	if err != nil {
		return fmt.Errorf("failed to insert contract metadata: %w", err)
	}
	if !created {
		logger.DebugCtx(ctx, "Contract metadata already recorded by a concurrent writer",
			zap.String("contract", metadata.ContractAddress))
	}
	return nil
}
