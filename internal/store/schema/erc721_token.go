package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// ERC721Token represents the erc721_tokens table - current owner, ownership history and
// metadata of a single-owner token
type ERC721Token struct {
	// ContractAddress is the canonical felt hex address of the contract
	ContractAddress string `gorm:"column:contract_address;primaryKey;type:text"`
	// TokenID is the Uint256 token id
	TokenID Uint256 `gorm:"column:token_id;primaryKey"`
	// Owner is the current holder, or the zero address once burned
	Owner string `gorm:"column:owner;type:text;not null;index:idx_erc721_tokens_owner"`
	// PreviousOwners is the append-only ownership history
	PreviousOwners datatypes.JSONSlice[domain.AddressAtBlock] `gorm:"column:previous_owners"`
	// TokenURI is the raw token URI returned by the contract
	TokenURI string `gorm:"column:token_uri;type:text;not null"`
	// Metadata is the resolved off-chain document
	Metadata datatypes.JSONType[domain.TokenMetadata] `gorm:"column:metadata"`
	// LastUpdated is the block of the last applied transfer
	LastUpdated uint64 `gorm:"column:last_updated;not null"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the ERC721Token model
func (ERC721Token) TableName() string {
	return "erc721_tokens"
}
