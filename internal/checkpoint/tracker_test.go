package checkpoint_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-starknet-indexer/internal/checkpoint"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/mocks"
)

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

func TestTracker_LastSync(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing is recorded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(0), false, nil).Times(1)

		tr := checkpoint.NewTracker(st, 1630)
		for range 2 {
			block, err := tr.LastSync(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(1630), block)
		}
	})

	t.Run("recorded checkpoint wins over default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(90000), true, nil)

		tr := checkpoint.NewTracker(st, 1630)
		block, err := tr.LastSync(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(90000), block)
	})

	t.Run("store error is retried on next call", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		gomock.InOrder(
			st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(0), false, errors.New("connection refused")),
			st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(42), true, nil),
		)

		tr := checkpoint.NewTracker(st, 1630)
		_, err := tr.LastSync(ctx)
		assert.Error(t, err)

		block, err := tr.LastSync(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), block)
	})
}

func TestTracker_Advance(t *testing.T) {
	ctx := context.Background()

	t.Run("moves forward only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(100), true, nil)
		st.EXPECT().SetLastSync(gomock.Any(), uint64(201)).Return(nil)

		tr := checkpoint.NewTracker(st, 1630)
		require.NoError(t, tr.Advance(ctx, 201))
		require.NoError(t, tr.Advance(ctx, 150))
		require.NoError(t, tr.Advance(ctx, 201))

		block, err := tr.LastSync(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(201), block)
	})

	t.Run("failed write keeps the previous checkpoint", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().GetLastSync(gomock.Any()).Return(uint64(100), true, nil)
		st.EXPECT().SetLastSync(gomock.Any(), uint64(201)).Return(errors.New("connection reset"))

		tr := checkpoint.NewTracker(st, 1630)
		assert.Error(t, tr.Advance(ctx, 201))

		block, err := tr.LastSync(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), block)
	})
}
