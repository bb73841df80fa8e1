package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/mocks"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
)

func TestContractRegistry_Exists(t *testing.T) {
	ctx := context.Background()

	t.Run("positive result is cached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().ContractMetadataExists(gomock.Any(), "0xc1").Return(true, nil).Times(1)

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)

		for range 3 {
			exists, err := reg.Exists(ctx, "0x00C1")
			require.NoError(t, err)
			assert.True(t, exists)
		}
	})

	t.Run("negative result is not cached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		gomock.InOrder(
			st.EXPECT().ContractMetadataExists(gomock.Any(), "0xc1").Return(false, nil),
			st.EXPECT().ContractMetadataExists(gomock.Any(), "0xc1").Return(true, nil),
		)

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)

		exists, err := reg.Exists(ctx, "0xc1")
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = reg.Exists(ctx, "0xc1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("store error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().ContractMetadataExists(gomock.Any(), "0xc1").Return(false, errors.New("connection reset"))

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)

		_, err = reg.Exists(ctx, "0xc1")
		assert.Error(t, err)
	})
}

func TestContractRegistry_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	md := &domain.ContractMetadata{ContractAddress: "0xc1", Name: "Punks", Symbol: "PNK", LastUpdated: 100}

	t.Run("losing writer is not an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		tx := mocks.NewMockTx(ctrl)
		tx.EXPECT().InsertContractMetadataIfAbsent(gomock.Any(), md).Return(false, nil)

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)
		assert.NoError(t, reg.CreateIfAbsent(ctx, tx, md))
	})

	t.Run("created record is looked up again until committed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		tx := mocks.NewMockTx(ctrl)
		tx.EXPECT().InsertContractMetadataIfAbsent(gomock.Any(), md).Return(true, nil)
		st.EXPECT().ContractMetadataExists(gomock.Any(), "0xc1").Return(false, nil)

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)
		require.NoError(t, reg.CreateIfAbsent(ctx, tx, md))

		exists, err := reg.Exists(ctx, "0xc1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("insert error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		tx := mocks.NewMockTx(ctrl)
		tx.EXPECT().InsertContractMetadataIfAbsent(gomock.Any(), md).Return(false, domain.ErrTransactionConflict)

		reg, err := registry.NewContractRegistry(st, 16)
		require.NoError(t, err)
		err = reg.CreateIfAbsent(ctx, tx, md)
		assert.ErrorIs(t, err, domain.ErrTransactionConflict)
	})
}

func TestNewContractRegistry_InvalidSize(t *testing.T) {
	_, err := registry.NewContractRegistry(nil, 0)
	assert.Error(t, err)
}
