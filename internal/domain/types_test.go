package domain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferEventType(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected EventType
	}{
		{name: "mint from zero address", from: "0x0", to: "0xa", expected: EventTypeMint},
		{name: "mint from padded zero address", from: "0x0000", to: "0xa", expected: EventTypeMint},
		{name: "burn to zero address", from: "0xa", to: "0x0", expected: EventTypeBurn},
		{name: "transfer between owners", from: "0xa", to: "0xb", expected: EventTypeTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TransferEventType(tt.from, tt.to))
		})
	}
}

func TestRawEvent_Payload(t *testing.T) {
	selector := uint256.NewInt(99)

	t.Run("cairo 0 layout keeps data only", func(t *testing.T) {
		event := RawEvent{
			Keys: []*uint256.Int{selector},
			Data: []*uint256.Int{uint256.NewInt(0), uint256.NewInt(10), uint256.NewInt(1), uint256.NewInt(0)},
		}
		payload := event.Payload()
		require.Len(t, payload, 4)
		assert.Equal(t, uint64(10), payload[1].Uint64())
	})

	t.Run("cairo 1 layout moves indexed keys first", func(t *testing.T) {
		event := RawEvent{
			Keys: []*uint256.Int{selector, uint256.NewInt(0), uint256.NewInt(10), uint256.NewInt(1), uint256.NewInt(0)},
		}
		payload := event.Payload()
		require.Len(t, payload, 4)
		assert.Equal(t, uint64(10), payload[1].Uint64())
		assert.Equal(t, uint64(1), payload[2].Uint64())
	})

	t.Run("event without keys", func(t *testing.T) {
		event := RawEvent{}
		assert.Nil(t, event.TopicKey())
		assert.Empty(t, event.Payload())
	})
}

func TestRawEvent_Key(t *testing.T) {
	event := RawEvent{TransactionHash: "0xabc", Ordinal: 2}
	assert.Equal(t, "0xabc:2", event.Key())
}

func TestTransfer_StateChanges(t *testing.T) {
	transfer := &Transfer{
		Standard:        StandardERC1155,
		ContractAddress: "0xc1",
		From:            "0xa",
		To:              "0xb",
		TokenIDs:        []*uint256.Int{uint256.NewInt(1), uint256.NewInt(2)},
		Amounts:         []*uint256.Int{uint256.NewInt(5), uint256.NewInt(3)},
		BlockNumber:     7,
		EventKey:        "0x1:0",
	}

	changes := transfer.StateChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, "1", changes[0].TokenID)
	assert.Equal(t, "5", changes[0].Amount)
	assert.Equal(t, "2", changes[1].TokenID)
	assert.Equal(t, "3", changes[1].Amount)
	assert.Equal(t, EventTypeTransfer, changes[1].EventType)
}
