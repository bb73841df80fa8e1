package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Standard represents the token standard an event belongs to
type Standard string

const (
	StandardERC721  Standard = "erc721"
	StandardERC1155 Standard = "erc1155"
)

// EventType represents the state transition a transfer applies
type EventType string

const (
	EventTypeTransfer EventType = "transfer"
	EventTypeMint     EventType = "mint"
	EventTypeBurn     EventType = "burn"
)

// TransferEventType determines the event type from the transfer endpoints
func TransferEventType(from, to string) EventType {
	switch {
	case IsZeroAddress(from):
		return EventTypeMint
	case IsZeroAddress(to):
		return EventTypeBurn
	default:
		return EventTypeTransfer
	}
}

// RawEvent is an emitted event as returned by starknet_getEvents
type RawEvent struct {
	FromAddress     string
	Keys            []*uint256.Int
	Data            []*uint256.Int
	BlockNumber     uint64
	BlockHash       string
	TransactionHash string
	// Ordinal is the position of the event among the fetched transfer-family events of
	// the same transaction. Together with the transaction hash it identifies the event.
	Ordinal int
}

// TopicKey returns the event selector, or nil for an event without keys
func (e RawEvent) TopicKey() *uint256.Int {
	if len(e.Keys) == 0 {
		return nil
	}
	return e.Keys[0]
}

// Payload returns the event parameters in declaration order. Cairo 1 contracts emit
// indexed parameters as keys, Cairo 0 contracts emit everything as data; concatenating
// keys[1:] and data yields the same layout for both.
func (e RawEvent) Payload() []*uint256.Int {
	words := make([]*uint256.Int, 0, len(e.Keys)+len(e.Data))
	if len(e.Keys) > 1 {
		words = append(words, e.Keys[1:]...)
	}
	return append(words, e.Data...)
}

// Key returns the idempotency key of the event
func (e RawEvent) Key() string {
	return fmt.Sprintf("%s:%d", e.TransactionHash, e.Ordinal)
}

// Transfer is a classified transfer-family event.
// ERC721 transfers carry one token id and an amount of one.
type Transfer struct {
	Standard        Standard
	ContractAddress string
	Operator        string
	From            string
	To              string
	TokenIDs        []*uint256.Int
	Amounts         []*uint256.Int
	BlockNumber     uint64
	TransactionHash string
	EventKey        string
}

// EventType returns the state transition of the transfer
func (t *Transfer) EventType() EventType {
	return TransferEventType(t.From, t.To)
}

// AddressAtBlock is one entry of an ERC721 ownership history
type AddressAtBlock struct {
	Address string `json:"address"`
	Block   uint64 `json:"block"`
}

// ContractMetadata holds the descriptive data of a token contract
type ContractMetadata struct {
	ContractAddress string
	Name            string
	Symbol          string
	LastUpdated     uint64
}

// ERC721Token is the state of a single-owner token
type ERC721Token struct {
	ContractAddress string
	TokenID         *uint256.Int
	Owner           string
	PreviousOwners  []AddressAtBlock
	TokenURI        string
	Metadata        TokenMetadata
	LastUpdated     uint64
}

// ERC1155Balance is the balance of one owner for one token id
type ERC1155Balance struct {
	ContractAddress string
	TokenID         *uint256.Int
	Owner           string
	Balance         *uint256.Int
	LastUpdated     uint64
}

// ERC1155Metadata is the per-token-id descriptive data of a multi-token contract
type ERC1155Metadata struct {
	ContractAddress string
	TokenID         *uint256.Int
	TokenURI        string
	Metadata        TokenMetadata
	LastUpdated     uint64
}

// StateChange describes a committed state transition. It is published to downstream
// consumers after the event transaction commits.
type StateChange struct {
	Standard        Standard  `json:"standard"`
	EventType       EventType `json:"event_type"`
	ContractAddress string    `json:"contract_address"`
	TokenID         string    `json:"token_id"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Amount          string    `json:"amount"`
	BlockNumber     uint64    `json:"block_number"`
	TransactionHash string    `json:"transaction_hash"`
	EventKey        string    `json:"event_key"`
}

// StateChanges expands a transfer into one change per token id
func (t *Transfer) StateChanges() []StateChange {
	changes := make([]StateChange, 0, len(t.TokenIDs))
	for i, id := range t.TokenIDs {
		amount := "1"
		if i < len(t.Amounts) && t.Amounts[i] != nil {
			amount = t.Amounts[i].Dec()
		}
		changes = append(changes, StateChange{
			Standard:        t.Standard,
			EventType:       t.EventType(),
			ContractAddress: t.ContractAddress,
			TokenID:         id.Dec(),
			From:            t.From,
			To:              t.To,
			Amount:          amount,
			BlockNumber:     t.BlockNumber,
			TransactionHash: t.TransactionHash,
			EventKey:        t.EventKey,
		})
	}
	return changes
}
