package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// ERC1155Balance represents the erc1155_balances table - tracks the quantity of a token id held by an owner.
// A zero balance is kept to record that the owner once held the token.
type ERC1155Balance struct {
	// ContractAddress is the canonical felt hex address of the contract
	ContractAddress string `gorm:"column:contract_address;primaryKey;type:text"`
	// TokenID is the Uint256 token id
	TokenID Uint256 `gorm:"column:token_id;primaryKey"`
	// Owner is the holder address
	Owner string `gorm:"column:owner;primaryKey;type:text;index:idx_erc1155_balances_owner"`
	// Balance is the quantity held
	Balance Uint256 `gorm:"column:balance;not null"`
	// LastUpdated is the block of the last applied transfer
	LastUpdated uint64 `gorm:"column:last_updated;not null"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the ERC1155Balance model
func (ERC1155Balance) TableName() string {
	return "erc1155_balances"
}

// ERC1155Metadata represents the erc1155_metadata table - one record per token id regardless of
// how many owners hold it
type ERC1155Metadata struct {
	ContractAddress string                                   `gorm:"column:contract_address;primaryKey;type:text"`
	TokenID         Uint256                                  `gorm:"column:token_id;primaryKey"`
	TokenURI        string                                   `gorm:"column:token_uri;type:text;not null"`
	Metadata        datatypes.JSONType[domain.TokenMetadata] `gorm:"column:metadata"`
	LastUpdated     uint64                                   `gorm:"column:last_updated;not null"`
	CreatedAt       time.Time                                `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the ERC1155Metadata model
func (ERC1155Metadata) TableName() string {
	return "erc1155_metadata"
}
