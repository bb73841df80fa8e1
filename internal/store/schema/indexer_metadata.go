package schema

import "time"

// IndexerMetadata stores process-wide key-value state such as the sync checkpoint
type IndexerMetadata struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (IndexerMetadata) TableName() string {
	return "indexer_metadata"
}
