package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/store/schema"
)

const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"

	// NUL in text, invalid byte sequences and the \u0000 escape in jsonb
	pgErrCharacterNotInRepertoire = "22021"
	pgErrUntranslatableCharacter  = "22P05"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new gorm-backed store instance (PostgreSQL in production, SQLite in tests)
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates every table of the indexer
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(schema.Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	// database/sql silently lowers idle connections above the open limit
	maxIdleConns = min(maxIdleConns, maxOpenConns)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// classifyTxError marks serialization failures and deadlocks as transaction conflicts so the
// whole event is replayed, and encoding rejections as unstorable values
func classifyTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected:
			return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
		case pgErrCharacterNotInRepertoire, pgErrUntranslatableCharacter:
			return fmt.Errorf("%w: %w", domain.ErrUnstorableValue, err)
		}
	}
	return err
}

// WithTransaction runs fn inside one database transaction
func (s *pgStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &pgTx{db: tx})
	})
	if err != nil {
		return classifyTxError(err)
	}
	return nil
}

// GetLastSync retrieves the sync checkpoint
func (s *pgStore) GetLastSync(ctx context.Context) (uint64, bool, error) {
	var kv schema.IndexerMetadata
	err := s.db.WithContext(ctx).Where("key = ?", LastSyncKey).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get last sync: %w", err)
	}

	block, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse last sync: %w", err)
	}

	return block, true, nil
}

// SetLastSync stores the sync checkpoint
func (s *pgStore) SetLastSync(ctx context.Context, block uint64) error {
	kv := schema.IndexerMetadata{
		Key:   LastSyncKey,
		Value: strconv.FormatUint(block, 10),
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	return nil
}

// ContractMetadataExists checks whether the contract metadata has been recorded
func (s *pgStore) ContractMetadataExists(ctx context.Context, contractAddress string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.ContractMetadata{}).
		Where("contract_address = ?", contractAddress).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check contract metadata: %w", err)
	}
	return count > 0, nil
}

// GetContractMetadata retrieves the contract metadata
func (s *pgStore) GetContractMetadata(ctx context.Context, contractAddress string) (*domain.ContractMetadata, error) {
	var m schema.ContractMetadata
	err := s.db.WithContext(ctx).Where("contract_address = ?", contractAddress).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contract metadata: %w", err)
	}
	return &domain.ContractMetadata{
		ContractAddress: m.ContractAddress,
		Name:            m.Name,
		Symbol:          m.Symbol,
		LastUpdated:     m.LastUpdated,
	}, nil
}

// GetERC721 retrieves a token by contract and token id
func (s *pgStore) GetERC721(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	return getERC721(s.db.WithContext(ctx), contractAddress, tokenID)
}

// GetERC1155Balance retrieves the balance of one owner
func (s *pgStore) GetERC1155Balance(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	return getERC1155Balance(s.db.WithContext(ctx), contractAddress, tokenID, owner)
}

// ERC1155MetadataExists checks whether the token id metadata has been recorded
func (s *pgStore) ERC1155MetadataExists(ctx context.Context, contractAddress string, tokenID *uint256.Int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.ERC1155Metadata{}).
		Where("contract_address = ? AND token_id = ?", contractAddress, schema.NewUint256(tokenID)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check erc1155 metadata: %w", err)
	}
	return count > 0, nil
}

// GetERC1155Metadata retrieves the token id metadata
func (s *pgStore) GetERC1155Metadata(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC1155Metadata, error) {
	var m schema.ERC1155Metadata
	err := s.db.WithContext(ctx).
		Where("contract_address = ? AND token_id = ?", contractAddress, schema.NewUint256(tokenID)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc1155 metadata: %w", err)
	}
	return &domain.ERC1155Metadata{
		ContractAddress: m.ContractAddress,
		TokenID:         m.TokenID.Int(),
		TokenURI:        m.TokenURI,
		Metadata:        m.Metadata.Data(),
		LastUpdated:     m.LastUpdated,
	}, nil
}

// PruneProcessedEvents deletes idempotency keys below the given block
func (s *pgStore) PruneProcessedEvents(ctx context.Context, belowBlock uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("block_number < ?", belowBlock).
		Delete(&schema.ProcessedEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune processed events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close closes the underlying connection pool
func (s *pgStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// pgTx implements Tx on top of a gorm transaction
type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) MarkEventProcessed(ctx context.Context, eventKey string, block uint64) (bool, error) {
	event := schema.ProcessedEvent{
		EventKey:    eventKey,
		BlockNumber: block,
	}
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_key"}},
			DoNothing: true,
		}).
		Create(&event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (t *pgTx) InsertERC721(ctx context.Context, token *domain.ERC721Token) error {
	model := toERC721Model(token)
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "token_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to insert erc721 token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrTokenAlreadyExists, token.ContractAddress, token.TokenID.Dec())
	}
	return nil
}

func (t *pgTx) GetERC721ForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	return getERC721(t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), contractAddress, tokenID)
}

func (t *pgTx) UpdateERC721(ctx context.Context, token *domain.ERC721Token) error {
	model := toERC721Model(token)
	result := t.db.WithContext(ctx).
		Model(&schema.ERC721Token{}).
		Where("contract_address = ? AND token_id = ?", model.ContractAddress, model.TokenID).
		Updates(map[string]interface{}{
			"owner":           model.Owner,
			"previous_owners": model.PreviousOwners,
			"token_uri":       model.TokenURI,
			"metadata":        model.Metadata,
			"last_updated":    model.LastUpdated,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update erc721 token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrTokenNotFound, token.ContractAddress, token.TokenID.Dec())
	}
	return nil
}

func (t *pgTx) GetERC1155BalanceForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	return getERC1155Balance(t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), contractAddress, tokenID, owner)
}

func (t *pgTx) UpsertERC1155Balance(ctx context.Context, balance *domain.ERC1155Balance) error {
	model := schema.ERC1155Balance{
		ContractAddress: balance.ContractAddress,
		TokenID:         schema.NewUint256(balance.TokenID),
		Owner:           balance.Owner,
		Balance:         schema.NewUint256(balance.Balance),
		LastUpdated:     balance.LastUpdated,
	}
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "token_id"}, {Name: "owner"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "last_updated", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert erc1155 balance: %w", err)
	}
	return nil
}

func (t *pgTx) InsertERC1155MetadataIfAbsent(ctx context.Context, metadata *domain.ERC1155Metadata) (bool, error) {
	model := schema.ERC1155Metadata{
		ContractAddress: metadata.ContractAddress,
		TokenID:         schema.NewUint256(metadata.TokenID),
		TokenURI:        metadata.TokenURI,
		Metadata:        datatypes.NewJSONType(metadata.Metadata),
		LastUpdated:     metadata.LastUpdated,
	}
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "token_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert erc1155 metadata: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (t *pgTx) InsertContractMetadataIfAbsent(ctx context.Context, metadata *domain.ContractMetadata) (bool, error) {
	model := schema.ContractMetadata{
		ContractAddress: metadata.ContractAddress,
		Name:            metadata.Name,
		Symbol:          metadata.Symbol,
		LastUpdated:     metadata.LastUpdated,
	}
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert contract metadata: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func getERC721(db *gorm.DB, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	var m schema.ERC721Token
	err := db.Where("contract_address = ? AND token_id = ?", contractAddress, schema.NewUint256(tokenID)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc721 token: %w", err)
	}

	previousOwners := []domain.AddressAtBlock(m.PreviousOwners)
	if previousOwners == nil {
		previousOwners = []domain.AddressAtBlock{}
	}

	return &domain.ERC721Token{
		ContractAddress: m.ContractAddress,
		TokenID:         m.TokenID.Int(),
		Owner:           m.Owner,
		PreviousOwners:  previousOwners,
		TokenURI:        m.TokenURI,
		Metadata:        m.Metadata.Data(),
		LastUpdated:     m.LastUpdated,
	}, nil
}

func getERC1155Balance(db *gorm.DB, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	var m schema.ERC1155Balance
	err := db.Where("contract_address = ? AND token_id = ? AND owner = ?", contractAddress, schema.NewUint256(tokenID), owner).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc1155 balance: %w", err)
	}
	return &domain.ERC1155Balance{
		ContractAddress: m.ContractAddress,
		TokenID:         m.TokenID.Int(),
		Owner:           m.Owner,
		Balance:         m.Balance.Int(),
		LastUpdated:     m.LastUpdated,
	}, nil
}

func toERC721Model(token *domain.ERC721Token) schema.ERC721Token {
	previousOwners := token.PreviousOwners
	if previousOwners == nil {
		previousOwners = []domain.AddressAtBlock{}
	}
	return schema.ERC721Token{
		ContractAddress: token.ContractAddress,
		TokenID:         schema.NewUint256(token.TokenID),
		Owner:           token.Owner,
		PreviousOwners:  datatypes.NewJSONSlice(previousOwners),
		TokenURI:        token.TokenURI,
		Metadata:        datatypes.NewJSONType(token.Metadata),
		LastUpdated:     token.LastUpdated,
	}
}
