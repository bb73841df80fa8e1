// Package mongo implements store.Store on MongoDB. Multi-document transactions require the
// server to run as a replica set.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

const transientTransactionError = "TransientTransactionError"

type contractDocument struct {
	ID          string `bson:"_id,omitempty"`
	Name        string `bson:"name"`
	Symbol      string `bson:"symbol"`
	LastUpdated uint64 `bson:"last_updated"`
}

type erc721Document struct {
	ID              string                  `bson:"_id,omitempty"`
	ContractAddress string                  `bson:"contract_address"`
	TokenID         string                  `bson:"token_id"`
	Owner           string                  `bson:"owner"`
	PreviousOwners  []domain.AddressAtBlock `bson:"previous_owners"`
	TokenURI        string                  `bson:"token_uri"`
	Metadata        bson.Raw                `bson:"metadata"`
	LastUpdated     uint64                  `bson:"last_updated"`
}

type balanceDocument struct {
	ID              string `bson:"_id,omitempty"`
	ContractAddress string `bson:"contract_address"`
	TokenID         string `bson:"token_id"`
	Owner           string `bson:"owner"`
	Balance         string `bson:"balance"`
	LastUpdated     uint64 `bson:"last_updated"`
}

type erc1155MetadataDocument struct {
	ID              string   `bson:"_id,omitempty"`
	ContractAddress string   `bson:"contract_address"`
	TokenID         string   `bson:"token_id"`
	TokenURI        string   `bson:"token_uri"`
	Metadata        bson.Raw `bson:"metadata"`
	LastUpdated     uint64   `bson:"last_updated"`
}

type processedEventDocument struct {
	ID          string    `bson:"_id,omitempty"`
	BlockNumber uint64    `bson:"block_number"`
	CreatedAt   time.Time `bson:"created_at"`
}

type mongoStore struct {
	client *mgo.Client
	db     *mgo.Database
}

// Connect opens a client, verifies the connection and ensures the indexes
func Connect(ctx context.Context, uri, database string) (store.Store, error) {
	client, err := mgo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &mongoStore{client: client, db: client.Database(database)}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.InfoCtx(ctx, "Connected to MongoDB", zap.String("database", database))
	return s, nil
}

func (s *mongoStore) createIndexes(ctx context.Context) error {
	indexes := []struct {
		c     string
		model mgo.IndexModel
	}{
		{c: domain.CollectionERC721Tokens, model: mgo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}}}},
		{c: domain.CollectionERC1155Balances, model: mgo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}}}},
		{c: domain.CollectionProcessedEvents, model: mgo.IndexModel{Keys: bson.D{{Key: "block_number", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.c).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.c, err)
		}
	}
	return nil
}

func (s *mongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	// the driver retries fn on transient errors until its own deadline
	_, err = session.WithTransaction(ctx, func(sc mgo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{db: s.db})
	})
	if err != nil {
		var se mgo.ServerError
		if errors.As(err, &se) && se.HasErrorLabel(transientTransactionError) {
			return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
		}
		return err
	}
	return nil
}

func (s *mongoStore) GetLastSync(ctx context.Context) (uint64, bool, error) {
	var doc struct {
		Value uint64 `bson:"value"`
	}
	err := s.db.Collection(domain.CollectionIndexerMetadata).
		FindOne(ctx, bson.M{"_id": store.LastSyncKey}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNoDocuments) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get last sync: %w", err)
	}
	return doc.Value, true, nil
}

func (s *mongoStore) SetLastSync(ctx context.Context, block uint64) error {
	_, err := s.db.Collection(domain.CollectionIndexerMetadata).UpdateOne(ctx,
		bson.M{"_id": store.LastSyncKey},
		bson.M{"$set": bson.M{"value": block, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}
	return nil
}

func (s *mongoStore) ContractMetadataExists(ctx context.Context, contractAddress string) (bool, error) {
	return exists(ctx, s.db.Collection(domain.CollectionContractMetadata), contractAddress)
}

func (s *mongoStore) GetContractMetadata(ctx context.Context, contractAddress string) (*domain.ContractMetadata, error) {
	var doc contractDocument
	err := s.db.Collection(domain.CollectionContractMetadata).FindOne(ctx, bson.M{"_id": contractAddress}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contract metadata: %w", err)
	}
	return &domain.ContractMetadata{
		ContractAddress: doc.ID,
		Name:            doc.Name,
		Symbol:          doc.Symbol,
		LastUpdated:     doc.LastUpdated,
	}, nil
}

func (s *mongoStore) GetERC721(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	return getERC721(ctx, s.db, contractAddress, tokenID)
}

func (s *mongoStore) GetERC1155Balance(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	return getERC1155Balance(ctx, s.db, contractAddress, tokenID, owner)
}

func (s *mongoStore) ERC1155MetadataExists(ctx context.Context, contractAddress string, tokenID *uint256.Int) (bool, error) {
	return exists(ctx, s.db.Collection(domain.CollectionERC1155Metadata), tokenKey(contractAddress, tokenID))
}

func (s *mongoStore) GetERC1155Metadata(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC1155Metadata, error) {
	var doc erc1155MetadataDocument
	err := s.db.Collection(domain.CollectionERC1155Metadata).
		FindOne(ctx, bson.M{"_id": tokenKey(contractAddress, tokenID)}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc1155 metadata: %w", err)
	}

	metadata, err := metadataFromBSON(doc.Metadata)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseUint256(doc.TokenID)
	if err != nil {
		return nil, err
	}
	return &domain.ERC1155Metadata{
		ContractAddress: doc.ContractAddress,
		TokenID:         id,
		TokenURI:        doc.TokenURI,
		Metadata:        metadata,
		LastUpdated:     doc.LastUpdated,
	}, nil
}

func (s *mongoStore) PruneProcessedEvents(ctx context.Context, belowBlock uint64) (int64, error) {
	result, err := s.db.Collection(domain.CollectionProcessedEvents).
		DeleteMany(ctx, bson.M{"block_number": bson.M{"$lt": belowBlock}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune processed events: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoTx implements store.Tx. Every call must receive the session context handed to the
// transaction callback.
type mongoTx struct {
	db *mgo.Database
}

// insertIfAbsent upserts doc with $setOnInsert. A duplicate-key insert would abort the
// whole transaction, an upsert that matches an existing document does not.
// doc must leave _id unset: it is taken from the filter.
func insertIfAbsent(ctx context.Context, c *mgo.Collection, id string, doc interface{}) (bool, error) {
	result, err := c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return result.UpsertedCount > 0, nil
}

func (t *mongoTx) MarkEventProcessed(ctx context.Context, eventKey string, block uint64) (bool, error) {
	created, err := insertIfAbsent(ctx, t.db.Collection(domain.CollectionProcessedEvents), eventKey, processedEventDocument{
		BlockNumber: block,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return created, nil
}

func (t *mongoTx) InsertERC721(ctx context.Context, token *domain.ERC721Token) error {
	doc, err := toERC721Document(token)
	if err != nil {
		return err
	}
	id := doc.ID
	doc.ID = ""
	created, err := insertIfAbsent(ctx, t.db.Collection(domain.CollectionERC721Tokens), id, doc)
	if err != nil {
		return fmt.Errorf("failed to insert erc721 token: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrTokenAlreadyExists, id)
	}
	return nil
}

func (t *mongoTx) GetERC721ForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	// snapshot isolation: a concurrent writer makes the commit fail with a transient error
	return getERC721(ctx, t.db, contractAddress, tokenID)
}

func (t *mongoTx) UpdateERC721(ctx context.Context, token *domain.ERC721Token) error {
	doc, err := toERC721Document(token)
	if err != nil {
		return err
	}
	result, err := t.db.Collection(domain.CollectionERC721Tokens).UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"owner":           doc.Owner,
			"previous_owners": doc.PreviousOwners,
			"token_uri":       doc.TokenURI,
			"metadata":        doc.Metadata,
			"last_updated":    doc.LastUpdated,
		}})
	if err != nil {
		return fmt.Errorf("failed to update erc721 token: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTokenNotFound, doc.ID)
	}
	return nil
}

func (t *mongoTx) GetERC1155BalanceForUpdate(ctx context.Context, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	return getERC1155Balance(ctx, t.db, contractAddress, tokenID, owner)
}

func (t *mongoTx) UpsertERC1155Balance(ctx context.Context, balance *domain.ERC1155Balance) error {
	id := balanceKey(balance.ContractAddress, balance.TokenID, balance.Owner)
	_, err := t.db.Collection(domain.CollectionERC1155Balances).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": balanceDocument{
			ContractAddress: balance.ContractAddress,
			TokenID:         balance.TokenID.Dec(),
			Owner:           balance.Owner,
			Balance:         balance.Balance.Dec(),
			LastUpdated:     balance.LastUpdated,
		}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert erc1155 balance: %w", err)
	}
	return nil
}

func (t *mongoTx) InsertERC1155MetadataIfAbsent(ctx context.Context, metadata *domain.ERC1155Metadata) (bool, error) {
	raw, err := metadataToBSON(metadata.Metadata)
	if err != nil {
		return false, err
	}
	id := tokenKey(metadata.ContractAddress, metadata.TokenID)
	created, err := insertIfAbsent(ctx, t.db.Collection(domain.CollectionERC1155Metadata), id, erc1155MetadataDocument{
		ContractAddress: metadata.ContractAddress,
		TokenID:         metadata.TokenID.Dec(),
		TokenURI:        metadata.TokenURI,
		Metadata:        raw,
		LastUpdated:     metadata.LastUpdated,
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert erc1155 metadata: %w", err)
	}
	return created, nil
}

func (t *mongoTx) InsertContractMetadataIfAbsent(ctx context.Context, metadata *domain.ContractMetadata) (bool, error) {
	created, err := insertIfAbsent(ctx, t.db.Collection(domain.CollectionContractMetadata), metadata.ContractAddress, contractDocument{
		Name:        metadata.Name,
		Symbol:      metadata.Symbol,
		LastUpdated: metadata.LastUpdated,
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert contract metadata: %w", err)
	}
	return created, nil
}

func exists(ctx context.Context, c *mgo.Collection, id string) (bool, error) {
	count, err := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count %s: %w", c.Name(), err)
	}
	return count > 0, nil
}

func getERC721(ctx context.Context, db *mgo.Database, contractAddress string, tokenID *uint256.Int) (*domain.ERC721Token, error) {
	var doc erc721Document
	err := db.Collection(domain.CollectionERC721Tokens).FindOne(ctx, bson.M{"_id": tokenKey(contractAddress, tokenID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc721 token: %w", err)
	}

	metadata, err := metadataFromBSON(doc.Metadata)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseUint256(doc.TokenID)
	if err != nil {
		return nil, err
	}
	previousOwners := doc.PreviousOwners
	if previousOwners == nil {
		previousOwners = []domain.AddressAtBlock{}
	}

	return &domain.ERC721Token{
		ContractAddress: doc.ContractAddress,
		TokenID:         id,
		Owner:           doc.Owner,
		PreviousOwners:  previousOwners,
		TokenURI:        doc.TokenURI,
		Metadata:        metadata,
		LastUpdated:     doc.LastUpdated,
	}, nil
}

func getERC1155Balance(ctx context.Context, db *mgo.Database, contractAddress string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	var doc balanceDocument
	err := db.Collection(domain.CollectionERC1155Balances).
		FindOne(ctx, bson.M{"_id": balanceKey(contractAddress, tokenID, owner)}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mgo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get erc1155 balance: %w", err)
	}

	id, err := domain.ParseUint256(doc.TokenID)
	if err != nil {
		return nil, err
	}
	balance, err := domain.ParseUint256(doc.Balance)
	if err != nil {
		return nil, err
	}
	return &domain.ERC1155Balance{
		ContractAddress: doc.ContractAddress,
		TokenID:         id,
		Owner:           doc.Owner,
		Balance:         balance,
		LastUpdated:     doc.LastUpdated,
	}, nil
}

func toERC721Document(token *domain.ERC721Token) (erc721Document, error) {
	raw, err := metadataToBSON(token.Metadata)
	if err != nil {
		return erc721Document{}, err
	}
	previousOwners := token.PreviousOwners
	if previousOwners == nil {
		previousOwners = []domain.AddressAtBlock{}
	}
	return erc721Document{
		ID:              tokenKey(token.ContractAddress, token.TokenID),
		ContractAddress: token.ContractAddress,
		TokenID:         token.TokenID.Dec(),
		Owner:           token.Owner,
		PreviousOwners:  previousOwners,
		TokenURI:        token.TokenURI,
		Metadata:        raw,
		LastUpdated:     token.LastUpdated,
	}, nil
}

// metadataToBSON stores the metadata document with its JSON field names so that readers of
// the collection see the same shape as the JSON metadata
func metadataToBSON(m domain.TokenMetadata) (bson.Raw, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to convert metadata: %w", domain.ErrUnstorableValue, err)
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert metadata: %w", domain.ErrUnstorableValue, err)
	}
	return raw, nil
}

func metadataFromBSON(raw bson.Raw) (domain.TokenMetadata, error) {
	var m domain.TokenMetadata
	if len(raw) == 0 {
		return m, nil
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return m, fmt.Errorf("failed to convert metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return m, nil
}

func tokenKey(contractAddress string, tokenID *uint256.Int) string {
	return contractAddress + ":" + tokenID.Dec()
}

func balanceKey(contractAddress string, tokenID *uint256.Int, owner string) string {
	return tokenKey(contractAddress, tokenID) + ":" + owner
}
