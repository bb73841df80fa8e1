package handler_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/handler"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/mocks"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

const (
	contract = "0xc1"
	ownerA   = "0xa"
	ownerB   = "0xb"
	tokenURI = "https://unreachable.example.com/1.json"
)

var dbCounter int64

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testHandlerMocks wires the handlers to an in-memory store and mocked chain access
type testHandlerMocks struct {
	ctrl       *gomock.Controller
	store      store.Store
	client     *mocks.MockStarknetClient
	resolver   *mocks.MockMetadataResolver
	dispatcher handler.Dispatcher
}

func setupTestDispatcher(t *testing.T) *testHandlerMocks {
	ctrl := gomock.NewController(t)

	dsn := fmt.Sprintf("file:handlertest%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	require.NoError(t, store.Migrate(context.Background(), db))

	tm := &testHandlerMocks{
		ctrl:     ctrl,
		store:    store.NewPGStore(db),
		client:   mocks.NewMockStarknetClient(ctrl),
		resolver: mocks.NewMockMetadataResolver(ctrl),
	}

	contracts, err := registry.NewContractRegistry(tm.store, 16)
	require.NoError(t, err)

	tm.dispatcher = handler.NewDispatcher(tm.store,
		handler.NewERC721Handler(tm.client, tm.resolver, contracts),
		handler.NewERC1155Handler(tm.store, tm.client, tm.resolver, contracts))
	return tm
}

// expectContract expects the single name/symbol lookup of a new contract
func (tm *testHandlerMocks) expectContract() {
	tm.client.EXPECT().Name(gomock.Any(), contract, gomock.Any()).Return("Starknet Punks", nil)
	tm.client.EXPECT().Symbol(gomock.Any(), contract, gomock.Any()).Return("PUNK", nil)
}

func erc721(from, to string, tokenID uint64, block uint64, key string) *domain.Transfer {
	return &domain.Transfer{
		Standard:        domain.StandardERC721,
		ContractAddress: contract,
		From:            from,
		To:              to,
		TokenIDs:        []*uint256.Int{uint256.NewInt(tokenID)},
		Amounts:         []*uint256.Int{uint256.NewInt(1)},
		BlockNumber:     block,
		TransactionHash: key,
		EventKey:        key + ":0",
	}
}

func erc1155(from, to string, ids, amounts []uint64, block uint64, key string) *domain.Transfer {
	t := &domain.Transfer{
		Standard:        domain.StandardERC1155,
		ContractAddress: contract,
		Operator:        from,
		From:            from,
		To:              to,
		BlockNumber:     block,
		TransactionHash: key,
		EventKey:        key + ":0",
	}
	for i := range ids {
		t.TokenIDs = append(t.TokenIDs, uint256.NewInt(ids[i]))
		t.Amounts = append(t.Amounts, uint256.NewInt(amounts[i]))
	}
	return t
}

func (tm *testHandlerMocks) dispatch(t *testing.T, transfer *domain.Transfer) bool {
	applied, err := tm.dispatcher.Dispatch(context.Background(), transfer)
	require.NoError(t, err)
	return applied
}

func (tm *testHandlerMocks) token(t *testing.T, tokenID uint64) *domain.ERC721Token {
	token, err := tm.store.GetERC721(context.Background(), contract, uint256.NewInt(tokenID))
	require.NoError(t, err)
	require.NotNil(t, token)
	return token
}

func (tm *testHandlerMocks) balance(t *testing.T, tokenID uint64, owner string) uint64 {
	b, err := tm.store.GetERC1155Balance(context.Background(), contract, uint256.NewInt(tokenID), owner)
	require.NoError(t, err)
	require.NotNil(t, b, "balance of %s for token %d", owner, tokenID)
	return b.Balance.Uint64()
}

// =============================================================================
// ERC721
// =============================================================================

func TestERC721_MintTransferBurn(t *testing.T) {
	tm := setupTestDispatcher(t)
	// view calls are pinned to the block of the mint
	tm.client.EXPECT().Name(gomock.Any(), contract, uint64(100)).Return("Starknet Punks", nil)
	tm.client.EXPECT().Symbol(gomock.Any(), contract, uint64(100)).Return("PUNK", nil)
	tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, uint256.NewInt(1), uint64(100)).Return(tokenURI, nil)
	tm.resolver.EXPECT().Resolve(gomock.Any(), tokenURI).Return(domain.TokenMetadata{})

	assert.True(t, tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1")))
	token := tm.token(t, 1)
	assert.Equal(t, ownerA, token.Owner)
	assert.Empty(t, token.PreviousOwners)
	assert.Equal(t, tokenURI, token.TokenURI)
	assert.True(t, token.Metadata.IsEmpty())
	assert.Equal(t, uint64(100), token.LastUpdated)

	md, err := tm.store.GetContractMetadata(context.Background(), contract)
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "Starknet Punks", md.Name)
	assert.Equal(t, "PUNK", md.Symbol)
	assert.Equal(t, uint64(100), md.LastUpdated)

	assert.True(t, tm.dispatch(t, erc721(ownerA, ownerB, 1, 101, "0x2")))
	token = tm.token(t, 1)
	assert.Equal(t, ownerB, token.Owner)
	assert.Equal(t, []domain.AddressAtBlock{{Address: ownerA, Block: 100}}, token.PreviousOwners)
	assert.Equal(t, uint64(101), token.LastUpdated)

	assert.True(t, tm.dispatch(t, erc721(ownerB, domain.ZERO_ADDRESS, 1, 102, "0x3")))
	token = tm.token(t, 1)
	assert.Equal(t, domain.ZERO_ADDRESS, token.Owner)
	assert.Equal(t, []domain.AddressAtBlock{{Address: ownerA, Block: 100}, {Address: ownerB, Block: 101}}, token.PreviousOwners)
	assert.Equal(t, uint64(102), token.LastUpdated)
	assert.Equal(t, tokenURI, token.TokenURI)
}

func TestERC721_ReplayedEventIsSkipped(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil).Times(2)

	mint := erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1")
	transfer := erc721(ownerA, ownerB, 1, 101, "0x2")

	assert.True(t, tm.dispatch(t, mint))
	assert.True(t, tm.dispatch(t, transfer))

	// the range is fetched again after a crash before the checkpoint advanced
	assert.False(t, tm.dispatch(t, mint))
	assert.False(t, tm.dispatch(t, transfer))

	token := tm.token(t, 1)
	assert.Equal(t, ownerB, token.Owner)
	assert.Len(t, token.PreviousOwners, 1)
}

func TestERC721_ReMintAfterBurn(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	gomock.InOrder(
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("ipfs://old", nil),
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("ipfs://new", nil),
	)
	name := "Reborn"
	tm.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://old").Return(domain.TokenMetadata{})
	tm.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://new").Return(domain.TokenMetadata{Name: &name})

	tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
	tm.dispatch(t, erc721(ownerA, domain.ZERO_ADDRESS, 1, 101, "0x2"))
	assert.True(t, tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerB, 1, 105, "0x3")))

	token := tm.token(t, 1)
	assert.Equal(t, ownerB, token.Owner)
	assert.Equal(t, []domain.AddressAtBlock{
		{Address: ownerA, Block: 100},
		{Address: domain.ZERO_ADDRESS, Block: 101},
	}, token.PreviousOwners)
	assert.Equal(t, "ipfs://new", token.TokenURI)
	require.NotNil(t, token.Metadata.Name)
	assert.Equal(t, "Reborn", *token.Metadata.Name)
	assert.Equal(t, uint64(105), token.LastUpdated)
}

func TestERC721_DataIntegrityErrors(t *testing.T) {
	t.Run("transfer before mint", func(t *testing.T) {
		tm := setupTestDispatcher(t)

		transfer := erc721(ownerA, ownerB, 1, 101, "0x2")
		_, err := tm.dispatcher.Dispatch(context.Background(), transfer)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.False(t, domain.IsRetryable(err))

		// the key was rolled back with the failed writes
		_, err = tm.dispatcher.Dispatch(context.Background(), transfer)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("mint of a live token", func(t *testing.T) {
		tm := setupTestDispatcher(t)
		tm.expectContract()
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil).Times(2)

		tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
		_, err := tm.dispatcher.Dispatch(context.Background(), erc721(domain.ZERO_ADDRESS, ownerB, 1, 101, "0x2"))
		assert.ErrorIs(t, err, domain.ErrTokenAlreadyExists)

		assert.Equal(t, ownerA, tm.token(t, 1).Owner)
	})
}

func TestERC721_TokenURIFallbacks(t *testing.T) {
	t.Run("reverted view call mints with empty uri", func(t *testing.T) {
		tm := setupTestDispatcher(t)
		tm.client.EXPECT().Name(gomock.Any(), contract, gomock.Any()).Return("", fmt.Errorf("%w: entry point not found", domain.ErrContractCall))
		tm.client.EXPECT().Symbol(gomock.Any(), contract, gomock.Any()).Return("PUNK", nil)
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("%w: entry point not found", domain.ErrContractCall))

		assert.True(t, tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1")))
		token := tm.token(t, 1)
		assert.Equal(t, "", token.TokenURI)
		assert.True(t, token.Metadata.IsEmpty())

		md, err := tm.store.GetContractMetadata(context.Background(), contract)
		require.NoError(t, err)
		require.NotNil(t, md)
		assert.Equal(t, "", md.Name)
		assert.Equal(t, "PUNK", md.Symbol)
	})

	t.Run("transport failure is retryable and writes nothing", func(t *testing.T) {
		tm := setupTestDispatcher(t)
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("%w: i/o timeout", domain.ErrTransport))

		_, err := tm.dispatcher.Dispatch(context.Background(), erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
		require.Error(t, err)
		assert.True(t, domain.IsRetryable(err))

		token, err := tm.store.GetERC721(context.Background(), contract, uint256.NewInt(1))
		require.NoError(t, err)
		assert.Nil(t, token)
	})
}

func TestERC721_ContractMetadataOncePerContract(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil).Times(3)

	for i := range uint64(3) {
		assert.True(t, tm.dispatch(t, erc721(domain.ZERO_ADDRESS, ownerA, i+1, 100+i, fmt.Sprintf("0x%d", i+1))))
	}
}

func TestERC721_ConcurrentMintsOfNewContract(t *testing.T) {
	tm := setupTestDispatcher(t)
	// every racing mint may look the contract up before the first commit
	tm.client.EXPECT().Name(gomock.Any(), contract, gomock.Any()).Return("Starknet Punks", nil).MinTimes(1).MaxTimes(4)
	tm.client.EXPECT().Symbol(gomock.Any(), contract, gomock.Any()).Return("PUNK", nil).MinTimes(1).MaxTimes(4)
	tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil).Times(4)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := range uint64(4) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tm.dispatcher.Dispatch(context.Background(),
				erc721(domain.ZERO_ADDRESS, ownerA, i+1, 100, fmt.Sprintf("0x%d", i+1)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	exists, err := tm.store.ContractMetadataExists(context.Background(), contract)
	require.NoError(t, err)
	assert.True(t, exists)
}

// =============================================================================
// ERC1155
// =============================================================================

func TestERC1155_BatchTransfer(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	tm.client.EXPECT().ERC1155URI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil).Times(2)

	// pre-state 0xA: {1:10, 2:3}
	assert.True(t, tm.dispatch(t, erc1155(domain.ZERO_ADDRESS, ownerA, []uint64{1, 2}, []uint64{10, 3}, 100, "0x1")))
	assert.Equal(t, uint64(10), tm.balance(t, 1, ownerA))
	assert.Equal(t, uint64(3), tm.balance(t, 2, ownerA))

	assert.True(t, tm.dispatch(t, erc1155(ownerA, ownerB, []uint64{1, 2}, []uint64{5, 3}, 101, "0x2")))
	assert.Equal(t, uint64(5), tm.balance(t, 1, ownerA))
	assert.Equal(t, uint64(0), tm.balance(t, 2, ownerA))
	assert.Equal(t, uint64(5), tm.balance(t, 1, ownerB))
	assert.Equal(t, uint64(3), tm.balance(t, 2, ownerB))
}

func TestERC1155_UnderflowIsClamped(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	tm.client.EXPECT().ERC1155URI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil)

	// history starts mid-stream: 0xA never received token 1
	assert.True(t, tm.dispatch(t, erc1155(ownerA, ownerB, []uint64{1}, []uint64{4}, 101, "0x2")))
	assert.Equal(t, uint64(0), tm.balance(t, 1, ownerA))
	assert.Equal(t, uint64(4), tm.balance(t, 1, ownerB))
}

func TestERC1155_BurnKeepsZeroBalance(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()
	tm.client.EXPECT().ERC1155URI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return("", nil)

	tm.dispatch(t, erc1155(domain.ZERO_ADDRESS, ownerA, []uint64{7}, []uint64{2}, 100, "0x1"))
	tm.dispatch(t, erc1155(ownerA, domain.ZERO_ADDRESS, []uint64{7}, []uint64{2}, 101, "0x2"))

	assert.Equal(t, uint64(0), tm.balance(t, 7, ownerA))
	b, err := tm.store.GetERC1155Balance(context.Background(), contract, uint256.NewInt(7), domain.ZERO_ADDRESS)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestERC1155_MetadataOnFirstSighting(t *testing.T) {
	tm := setupTestDispatcher(t)
	tm.expectContract()

	expanded := "https://example.com/meta/000000000000000000000000000000000000000000000000000000000000004d.json"
	name := "Sword"
	tm.client.EXPECT().ERC1155URI(gomock.Any(), contract, uint256.NewInt(0x4d), uint64(100)).
		Return("https://example.com/meta/{id}.json", nil).Times(1)
	tm.resolver.EXPECT().Resolve(gomock.Any(), expanded).Return(domain.TokenMetadata{Name: &name}).Times(1)

	tm.dispatch(t, erc1155(domain.ZERO_ADDRESS, ownerA, []uint64{0x4d}, []uint64{3}, 100, "0x1"))
	tm.dispatch(t, erc1155(domain.ZERO_ADDRESS, ownerB, []uint64{0x4d}, []uint64{1}, 102, "0x2"))
	tm.dispatch(t, erc1155(ownerA, ownerB, []uint64{0x4d, 0x4d}, []uint64{1, 1}, 103, "0x3"))

	md, err := tm.store.GetERC1155Metadata(context.Background(), contract, uint256.NewInt(0x4d))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, expanded, md.TokenURI)
	require.NotNil(t, md.Metadata.Name)
	assert.Equal(t, "Sword", *md.Metadata.Name)
	assert.Equal(t, uint64(100), md.LastUpdated)

	assert.Equal(t, uint64(1), tm.balance(t, 0x4d, ownerA))
	assert.Equal(t, uint64(3), tm.balance(t, 0x4d, ownerB))
}

func TestERC1155_MalformedPairs(t *testing.T) {
	tm := setupTestDispatcher(t)

	transfer := erc1155(ownerA, ownerB, []uint64{1, 2}, []uint64{5, 3}, 101, "0x2")
	transfer.Amounts = transfer.Amounts[:1]

	_, err := tm.dispatcher.Dispatch(context.Background(), transfer)
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestDispatch_UnknownStandard(t *testing.T) {
	tm := setupTestDispatcher(t)

	applied, err := tm.dispatcher.Dispatch(context.Background(), &domain.Transfer{Standard: "erc20"})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestERC721_ContractLookupErrorLeavesNoState(t *testing.T) {
	tm := setupTestDispatcher(t)

	lookupErr := fmt.Errorf("%w: connection reset", domain.ErrTransport)
	contracts := mocks.NewMockContractRegistry(tm.ctrl)
	contracts.EXPECT().Exists(gomock.Any(), contract).Return(false, lookupErr)

	dispatcher := handler.NewDispatcher(tm.store,
		handler.NewERC721Handler(tm.client, tm.resolver, contracts),
		handler.NewERC1155Handler(tm.store, tm.client, tm.resolver, contracts))

	tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, uint256.NewInt(1), gomock.Any()).Return(tokenURI, nil)
	tm.resolver.EXPECT().Resolve(gomock.Any(), tokenURI).Return(domain.TokenMetadata{})

	applied, err := dispatcher.Dispatch(context.Background(), erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.False(t, applied)

	token, err := tm.store.GetERC721(context.Background(), contract, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Nil(t, token)
}

// rejectingStore refuses token metadata inside its transactions, the way Postgres refuses a
// \u0000 escape in jsonb
type rejectingStore struct {
	store.Store
	// rejectAll also refuses tokens without metadata
	rejectAll bool
}

func (s *rejectingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, &rejectingTx{Tx: tx, rejectAll: s.rejectAll})
	})
}

type rejectingTx struct {
	store.Tx
	rejectAll bool
}

func (tx *rejectingTx) InsertERC721(ctx context.Context, token *domain.ERC721Token) error {
	if tx.rejectAll || !token.Metadata.IsEmpty() {
		return fmt.Errorf("%w: unsupported Unicode escape sequence", domain.ErrUnstorableValue)
	}
	return tx.Tx.InsertERC721(ctx, token)
}

func TestERC721_UnstorableMetadata(t *testing.T) {
	setup := func(t *testing.T, rejectAll bool) (*testHandlerMocks, handler.Dispatcher) {
		tm := setupTestDispatcher(t)
		contracts, err := registry.NewContractRegistry(tm.store, 16)
		require.NoError(t, err)

		st := &rejectingStore{Store: tm.store, rejectAll: rejectAll}
		dispatcher := handler.NewDispatcher(st,
			handler.NewERC721Handler(tm.client, tm.resolver, contracts),
			handler.NewERC1155Handler(st, tm.client, tm.resolver, contracts))

		name := "Punk"
		tm.expectContract()
		tm.client.EXPECT().ERC721TokenURI(gomock.Any(), contract, uint256.NewInt(1), uint64(100)).Return(tokenURI, nil)
		tm.resolver.EXPECT().Resolve(gomock.Any(), tokenURI).Return(domain.TokenMetadata{Name: &name})
		return tm, dispatcher
	}

	t.Run("applied with default metadata", func(t *testing.T) {
		tm, dispatcher := setup(t, false)

		applied, err := dispatcher.Dispatch(context.Background(), erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
		require.NoError(t, err)
		assert.True(t, applied)

		token := tm.token(t, 1)
		assert.Equal(t, ownerA, token.Owner)
		assert.Equal(t, tokenURI, token.TokenURI)
		assert.True(t, token.Metadata.IsEmpty())

		md, err := tm.store.GetContractMetadata(context.Background(), contract)
		require.NoError(t, err)
		require.NotNil(t, md)
		assert.Equal(t, "Starknet Punks", md.Name)
	})

	t.Run("still refused is a data integrity error", func(t *testing.T) {
		tm, dispatcher := setup(t, true)

		applied, err := dispatcher.Dispatch(context.Background(), erc721(domain.ZERO_ADDRESS, ownerA, 1, 100, "0x1"))
		require.Error(t, err)
		assert.False(t, applied)
		assert.True(t, domain.IsDataIntegrityError(err))
		assert.False(t, domain.IsRetryable(err))

		token, err := tm.store.GetERC721(context.Background(), contract, uint256.NewInt(1))
		require.NoError(t, err)
		assert.Nil(t, token)
	})
}

func TestERC1155_FailedBatchIsRolledBack(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	tm.expectContract()
	tm.client.EXPECT().ERC1155URI(gomock.Any(), contract, gomock.Any(), gomock.Any()).Return(tokenURI, nil).Times(3)
	tm.resolver.EXPECT().Resolve(gomock.Any(), tokenURI).Return(domain.TokenMetadata{}).Times(3)

	tm.dispatch(t, erc1155(domain.ZERO_ADDRESS, ownerA, []uint64{1}, []uint64{10}, 100, "0x1"))
	full := erc1155(domain.ZERO_ADDRESS, ownerB, []uint64{2}, []uint64{0}, 100, "0x2")
	full.Amounts[0] = uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	tm.dispatch(t, full)

	// token 1 and the new token 3 apply cleanly, crediting token 2 overflows
	batch := erc1155(ownerA, ownerB, []uint64{1, 3, 2}, []uint64{5, 1, 1}, 101, "0x3")
	applied, err := tm.dispatcher.Dispatch(ctx, batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	assert.False(t, applied)

	assert.Equal(t, uint64(10), tm.balance(t, 1, ownerA))
	for _, want := range []struct {
		tokenID uint64
		owner   string
	}{{1, ownerB}, {3, ownerA}, {3, ownerB}} {
		b, err := tm.store.GetERC1155Balance(ctx, contract, uint256.NewInt(want.tokenID), want.owner)
		require.NoError(t, err)
		assert.Nil(t, b, "balance of %s for token %d", want.owner, want.tokenID)
	}

	md, err := tm.store.GetERC1155Metadata(ctx, contract, uint256.NewInt(3))
	require.NoError(t, err)
	assert.Nil(t, md)

	// the idempotency key was rolled back with the writes
	errRollback := errors.New("rollback")
	err = tm.store.WithTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		first, err := tx.MarkEventProcessed(ctx, batch.EventKey, batch.BlockNumber)
		require.NoError(t, err)
		assert.True(t, first)
		return errRollback
	})
	assert.ErrorIs(t, err, errRollback)
}
