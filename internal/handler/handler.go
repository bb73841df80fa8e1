package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

// Handler applies the transfers of one token standard.
// Chain and metadata lookups happen in Prepare, before the event transaction is opened, so
// that a transaction never waits on the network.
type Handler interface {
	// Prepare resolves everything the writes of the transfer may need
	Prepare(ctx context.Context, transfer *domain.Transfer) (*Prepared, error)

	// Handle stages the writes of the transfer inside the event transaction
	Handle(ctx context.Context, tx store.Tx, transfer *domain.Transfer, prepared *Prepared) error
}

// TokenInfo is the resolved token uri and metadata of one token id
type TokenInfo struct {
	TokenURI string
	Metadata domain.TokenMetadata
}

// Prepared holds the lookups made ahead of a transfer's transaction
type Prepared struct {
	// Contract is set when the contract metadata has not been recorded yet
	Contract *domain.ContractMetadata
	// Tokens is keyed by the decimal token id
	Tokens map[string]TokenInfo
}

// Token returns the resolved data of a token id
func (p *Prepared) Token(tokenID *uint256.Int) (TokenInfo, bool) {
	if p == nil || p.Tokens == nil {
		return TokenInfo{}, false
	}
	info, ok := p.Tokens[tokenID.Dec()]
	return info, ok
}

func (p *Prepared) hasMetadata() bool {
	if p == nil {
		return false
	}
	for _, info := range p.Tokens {
		if !info.Metadata.IsEmpty() {
			return true
		}
	}
	return false
}

// withDefaultMetadata returns a copy whose tokens keep their uri but carry no metadata
func (p *Prepared) withDefaultMetadata() *Prepared {
	out := &Prepared{Contract: p.Contract, Tokens: make(map[string]TokenInfo, len(p.Tokens))}
	for key, info := range p.Tokens {
		out.Tokens[key] = TokenInfo{TokenURI: info.TokenURI}
	}
	return out
}

// Dispatcher routes a classified transfer to the handler of its standard and applies it
// atomically together with its idempotency key
//
//go:generate mockgen -source=handler.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Dispatch applies the transfer in its own transaction. It returns false when the event
	// had already been applied.
	Dispatch(ctx context.Context, transfer *domain.Transfer) (bool, error)
}

type dispatcher struct {
	store    store.Store
	handlers map[domain.Standard]Handler
}

func NewDispatcher(st store.Store, erc721 Handler, erc1155 Handler) Dispatcher {
	return &dispatcher{
		store: st,
		handlers: map[domain.Standard]Handler{
			domain.StandardERC721:  erc721,
			domain.StandardERC1155: erc1155,
		},
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, transfer *domain.Transfer) (bool, error) {
	h, ok := d.handlers[transfer.Standard]
	if !ok || h == nil {
		logger.WarnCtx(ctx, "No handler for token standard",
			zap.String("standard", string(transfer.Standard)),
			zap.String("contract", transfer.ContractAddress))
		return false, nil
	}

	prepared, err := h.Prepare(ctx, transfer)
	if err != nil {
		return false, fmt.Errorf("failed to prepare %s %s: %w", transfer.Standard, transfer.EventType(), err)
	}

	applied, err := d.apply(ctx, h, transfer, prepared)
	if errors.Is(err, domain.ErrUnstorableValue) && prepared.hasMetadata() {
		// the token data is applied with the default metadata rather than not at all
		logger.WarnCtx(ctx, "Store refused token metadata, applying with default metadata",
			transferFields(transfer, zap.Error(err))...)
		applied, err = d.apply(ctx, h, transfer, prepared.withDefaultMetadata())
	}
	if err != nil {
		return false, fmt.Errorf("failed to apply %s %s: %w", transfer.Standard, transfer.EventType(), err)
	}

	if !applied {
		logger.DebugCtx(ctx, "Event already applied", transferFields(transfer)...)
	}
	return applied, nil
}

// apply records the idempotency key and stages the handler writes in one transaction
func (d *dispatcher) apply(ctx context.Context, h Handler, transfer *domain.Transfer, prepared *Prepared) (bool, error) {
	applied := false
	err := d.store.WithTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		first, err := tx.MarkEventProcessed(ctx, transfer.EventKey, transfer.BlockNumber)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}

		if err := h.Handle(ctx, tx, transfer, prepared); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// transferFields are the log fields identifying a transfer
func transferFields(transfer *domain.Transfer, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.String("contract", transfer.ContractAddress),
		zap.Uint64("block", transfer.BlockNumber),
		zap.String("tx_hash", transfer.TransactionHash),
		zap.String("event_key", transfer.EventKey),
	}
	return append(fields, extra...)
}
