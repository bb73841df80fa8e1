package schema

import "time"

// ContractMetadata represents the contract_metadata table - name and symbol of a token contract,
// written once on the first mint observed for the contract
type ContractMetadata struct {
	// ContractAddress is the canonical felt hex address of the contract
	ContractAddress string `gorm:"column:contract_address;primaryKey;type:text"`
	// Name is the decoded result of the name() view function
	Name string `gorm:"column:name;type:text;not null"`
	// Symbol is the decoded result of the symbol() view function
	Symbol string `gorm:"column:symbol;type:text;not null"`
	// LastUpdated is the block of the mint that created the record
	LastUpdated uint64 `gorm:"column:last_updated;not null"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the ContractMetadata model
func (ContractMetadata) TableName() string {
	return "contract_metadata"
}
