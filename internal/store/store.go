package store

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// LastSyncKey is the indexer_metadata key holding the sync checkpoint
const LastSyncKey = "last_sync"

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore,Tx=MockTx
type Store interface {
	// WithTransaction runs fn inside one transaction. Every write made through the Tx commits
	// when fn returns nil and is rolled back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// GetLastSync returns the sync checkpoint; found is false when none has been recorded
	GetLastSync(ctx context.Context) (block uint64, found bool, err error)
	// SetLastSync records the sync checkpoint
	SetLastSync(ctx context.Context, block uint64) error

	// ContractMetadataExists checks whether the contract metadata has been recorded
	ContractMetadataExists(ctx context.Context, contractAddress string) (bool, error)
	// GetContractMetadata returns the contract metadata, or nil if absent
	GetContractMetadata(ctx context.Context, contractAddress string) (*domain.ContractMetadata, error)

	// GetERC721 returns the token, or nil if absent
	GetERC721(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error)
	// GetERC1155Balance returns the balance record, or nil if absent
	GetERC1155Balance(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error)
	// ERC1155MetadataExists checks whether the token id metadata has been recorded
	ERC1155MetadataExists(ctx context.Context, contractAddress string, tokenID *uint256.Int) (bool, error)
	// GetERC1155Metadata returns the token id metadata, or nil if absent
	GetERC1155Metadata(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC1155Metadata, error)

	// PruneProcessedEvents deletes the idempotency keys of events emitted before belowBlock
	PruneProcessedEvents(ctx context.Context, belowBlock uint64) (int64, error)

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// Tx is the set of writes available inside one event transaction
type Tx interface {
	// MarkEventProcessed records the idempotency key of an event. It returns false when the
	// key is already recorded, meaning the event has been applied before.
	MarkEventProcessed(ctx context.Context, eventKey string, block uint64) (bool, error)

	// InsertERC721 inserts a new token; an existing record yields domain.ErrTokenAlreadyExists
	InsertERC721(ctx context.Context, token *domain.ERC721Token) error
	// GetERC721ForUpdate reads and locks a token, returning nil if absent
	GetERC721ForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error)
	// UpdateERC721 replaces the mutable fields of an existing token
	UpdateERC721(ctx context.Context, token *domain.ERC721Token) error

	// GetERC1155BalanceForUpdate reads and locks a balance record, returning nil if absent
	GetERC1155BalanceForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error)
	// UpsertERC1155Balance creates or overwrites a balance record
	UpsertERC1155Balance(ctx context.Context, balance *domain.ERC1155Balance) error

	// InsertERC1155MetadataIfAbsent inserts the token id metadata unless a record exists.
	// It returns whether this call created the record.
	InsertERC1155MetadataIfAbsent(ctx context.Context, metadata *domain.ERC1155Metadata) (bool, error)
	// InsertContractMetadataIfAbsent inserts the contract metadata unless a record exists.
	// It returns whether this call created the record; a losing concurrent writer gets false.
	InsertContractMetadataIfAbsent(ctx context.Context, metadata *domain.ContractMetadata) (bool, error)
}
