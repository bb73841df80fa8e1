package schema

import "time"

// ProcessedEvent represents the processed_events table - idempotency keys of events whose
// writes have been committed. Keys older than the sync checkpoint are pruned.
type ProcessedEvent struct {
	// EventKey is "<tx_hash>:<ordinal>"
	EventKey string `gorm:"column:event_key;primaryKey;type:text"`
	// BlockNumber is the block the event was emitted in
	BlockNumber uint64 `gorm:"column:block_number;not null;index:idx_processed_events_block_number"`
	// CreatedAt is the timestamp when the event was committed
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the ProcessedEvent model
func (ProcessedEvent) TableName() string {
	return "processed_events"
}

// Models lists every table of the indexer in migration order
func Models() []interface{} {
	return []interface{}{
		&IndexerMetadata{},
		&ContractMetadata{},
		&ERC721Token{},
		&ERC1155Balance{},
		&ERC1155Metadata{},
		&ProcessedEvent{},
	}
}
