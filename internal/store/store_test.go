package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

const (
	testContract = "0xc1"
	ownerA       = "0xa"
	ownerB       = "0xb"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func strPtr(s string) *string {
	return &s
}

// buildTestToken creates a freshly minted token owned by ownerA
func buildTestToken(tokenID uint64, block uint64) *domain.ERC721Token {
	return &domain.ERC721Token{
		ContractAddress: testContract,
		TokenID:         uint256.NewInt(tokenID),
		Owner:           ownerA,
		PreviousOwners:  []domain.AddressAtBlock{},
		TokenURI:        "ipfs://QmToken/1.json",
		Metadata: domain.TokenMetadata{
			Name: strPtr("Token"),
			Attributes: []domain.Attribute{
				{TraitType: strPtr("Eyes"), Value: domain.StringValue("Blue")},
				{TraitType: strPtr("Level"), Value: domain.NumberValue("5")},
			},
		},
		LastUpdated: block,
	}
}

// RunStoreTests runs every store test against the store returned by initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	t.Run("LastSync", func(t *testing.T) { testLastSync(t, initDB(t)) })
	t.Run("ProcessedEvents", func(t *testing.T) { testProcessedEvents(t, initDB(t)) })
	t.Run("ERC721Lifecycle", func(t *testing.T) { testERC721Lifecycle(t, initDB(t)) })
	t.Run("ERC721LargeTokenID", func(t *testing.T) { testERC721LargeTokenID(t, initDB(t)) })
	t.Run("ERC1155Balances", func(t *testing.T) { testERC1155Balances(t, initDB(t)) })
	t.Run("ERC1155Metadata", func(t *testing.T) { testERC1155Metadata(t, initDB(t)) })
	t.Run("ContractMetadataFirstWriterWins", func(t *testing.T) { testContractMetadataFirstWriterWins(t, initDB(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, initDB(t)) })
}

func testLastSync(t *testing.T, s Store) {
	ctx := context.Background()

	_, found, err := s.GetLastSync(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetLastSync(ctx, 1630))
	require.NoError(t, s.SetLastSync(ctx, 1731))

	block, found, err := s.GetLastSync(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(1731), block)
}

func testProcessedEvents(t *testing.T, s Store) {
	ctx := context.Background()

	mark := func(key string, block uint64) bool {
		var created bool
		err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			created, err = tx.MarkEventProcessed(ctx, key, block)
			return err
		})
		require.NoError(t, err)
		return created
	}

	assert.True(t, mark("0xaa:0", 100))
	assert.True(t, mark("0xaa:1", 100))
	assert.False(t, mark("0xaa:0", 100))
	assert.True(t, mark("0xbb:0", 150))

	pruned, err := s.PruneProcessedEvents(ctx, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	// pruned keys can be recorded again, kept keys cannot
	assert.True(t, mark("0xaa:0", 100))
	assert.False(t, mark("0xbb:0", 150))
}

func testERC721Lifecycle(t *testing.T, s Store) {
	ctx := context.Background()
	token := buildTestToken(1, 100)

	err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertERC721(ctx, token)
	})
	require.NoError(t, err)

	// a second mint of the same id is rejected
	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertERC721(ctx, buildTestToken(1, 105))
	})
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyExists)

	stored, err := s.GetERC721(ctx, testContract, uint256.NewInt(1))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, ownerA, stored.Owner)
	assert.Empty(t, stored.PreviousOwners)
	assert.NotNil(t, stored.PreviousOwners)
	assert.Equal(t, "ipfs://QmToken/1.json", stored.TokenURI)
	assert.Equal(t, uint64(100), stored.LastUpdated)
	require.NotNil(t, stored.Metadata.Name)
	assert.Equal(t, "Token", *stored.Metadata.Name)
	require.Len(t, stored.Metadata.Attributes, 2)
	assert.Equal(t, domain.NumberValue("5"), stored.Metadata.Attributes[1].Value)

	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.GetERC721ForUpdate(ctx, testContract, uint256.NewInt(1))
		if err != nil {
			return err
		}
		current.PreviousOwners = append(current.PreviousOwners, domain.AddressAtBlock{Address: current.Owner, Block: current.LastUpdated})
		current.Owner = ownerB
		current.LastUpdated = 101
		return tx.UpdateERC721(ctx, current)
	})
	require.NoError(t, err)

	stored, err = s.GetERC721(ctx, testContract, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, ownerB, stored.Owner)
	assert.Equal(t, []domain.AddressAtBlock{{Address: ownerA, Block: 100}}, stored.PreviousOwners)
	assert.Equal(t, uint64(101), stored.LastUpdated)

	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		missing, err := tx.GetERC721ForUpdate(ctx, testContract, uint256.NewInt(2))
		assert.Nil(t, missing)
		return err
	})
	require.NoError(t, err)

	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateERC721(ctx, buildTestToken(2, 101))
	})
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func testERC721LargeTokenID(t *testing.T, s Store) {
	ctx := context.Background()

	// 2^200 + 7 exceeds every native integer column type
	id := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	id.AddUint64(id, 7)

	token := buildTestToken(0, 100)
	token.TokenID = id
	err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertERC721(ctx, token)
	})
	require.NoError(t, err)

	stored, err := s.GetERC721(ctx, testContract, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id.Dec(), stored.TokenID.Dec())

	missing, err := s.GetERC721(ctx, testContract, uint256.NewInt(7))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testERC1155Balances(t *testing.T, s Store) {
	ctx := context.Background()
	id := uint256.NewInt(1)

	err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.GetERC1155BalanceForUpdate(ctx, testContract, id, ownerA)
		if err != nil {
			return err
		}
		assert.Nil(t, existing)
		return tx.UpsertERC1155Balance(ctx, &domain.ERC1155Balance{
			ContractAddress: testContract,
			TokenID:         id,
			Owner:           ownerA,
			Balance:         uint256.NewInt(10),
			LastUpdated:     100,
		})
	})
	require.NoError(t, err)

	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.GetERC1155BalanceForUpdate(ctx, testContract, id, ownerA)
		if err != nil {
			return err
		}
		existing.Balance = new(uint256.Int)
		existing.LastUpdated = 101
		return tx.UpsertERC1155Balance(ctx, existing)
	})
	require.NoError(t, err)

	// a zero balance is kept
	balance, err := s.GetERC1155Balance(ctx, testContract, id, ownerA)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.True(t, balance.Balance.IsZero())
	assert.Equal(t, uint64(101), balance.LastUpdated)

	missing, err := s.GetERC1155Balance(ctx, testContract, id, ownerB)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testERC1155Metadata(t *testing.T, s Store) {
	ctx := context.Background()
	id := uint256.NewInt(3)

	exists, err := s.ERC1155MetadataExists(ctx, testContract, id)
	require.NoError(t, err)
	assert.False(t, exists)

	insert := func(uri string) bool {
		var created bool
		err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			created, err = tx.InsertERC1155MetadataIfAbsent(ctx, &domain.ERC1155Metadata{
				ContractAddress: testContract,
				TokenID:         id,
				TokenURI:        uri,
				LastUpdated:     100,
			})
			return err
		})
		require.NoError(t, err)
		return created
	}

	assert.True(t, insert("https://example.com/first"))
	assert.False(t, insert("https://example.com/second"))

	stored, err := s.GetERC1155Metadata(ctx, testContract, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "https://example.com/first", stored.TokenURI)
	assert.True(t, stored.Metadata.IsEmpty())

	exists, err = s.ERC1155MetadataExists(ctx, testContract, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func testContractMetadataFirstWriterWins(t *testing.T, s Store) {
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	created := make(chan bool, writers)
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
				ok, err := tx.InsertContractMetadataIfAbsent(ctx, &domain.ContractMetadata{
					ContractAddress: testContract,
					Name:            "StarkPunks",
					Symbol:          "SP",
					LastUpdated:     uint64(100 + i),
				})
				created <- ok
				return err
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(created)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	winners := 0
	for ok := range created {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	exists, err := s.ContractMetadataExists(ctx, testContract)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := s.GetContractMetadata(ctx, testContract)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "StarkPunks", stored.Name)
	assert.Equal(t, "SP", stored.Symbol)

	missing, err := s.GetContractMetadata(ctx, "0xdead")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testRollbackOnError(t *testing.T, s Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.MarkEventProcessed(ctx, "0xcc:0", 100); err != nil {
			return err
		}
		if err := tx.InsertERC721(ctx, buildTestToken(9, 100)); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	token, err := s.GetERC721(ctx, testContract, uint256.NewInt(9))
	require.NoError(t, err)
	assert.Nil(t, token)

	// the idempotency key was rolled back with the writes
	err = s.WithTransaction(ctx, func(ctx context.Context, tx Tx) error {
		created, err := tx.MarkEventProcessed(ctx, "0xcc:0", 100)
		assert.True(t, created)
		return err
	})
	require.NoError(t, err)
}
