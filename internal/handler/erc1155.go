package handler

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/metadata"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

type erc1155Handler struct {
	lookup
	store store.Store
}

// NewERC1155Handler creates the handler of multi-token balances
func NewERC1155Handler(st store.Store, client starknet.Client, resolver metadata.Resolver, contracts registry.ContractRegistry) Handler {
	return &erc1155Handler{
		lookup: lookup{
			client:    client,
			resolver:  resolver,
			contracts: contracts,
		},
		store: st,
	}
}

// Prepare resolves the uri and metadata of the token ids seen for the first time, and the
// contract metadata of a contract seen for the first time
func (h *erc1155Handler) Prepare(ctx context.Context, transfer *domain.Transfer) (*Prepared, error) {
	if err := checkPairs(transfer); err != nil {
		return nil, err
	}

	prepared := &Prepared{Tokens: make(map[string]TokenInfo)}
	for _, tokenID := range transfer.TokenIDs {
		key := tokenID.Dec()
		if _, done := prepared.Tokens[key]; done {
			continue
		}

		exists, err := h.store.ERC1155MetadataExists(ctx, transfer.ContractAddress, tokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token metadata: %w", err)
		}
		if exists {
			continue
		}

		info, err := h.tokenInfo(ctx, domain.StandardERC1155, transfer.ContractAddress, tokenID, transfer.BlockNumber)
		if err != nil {
			return nil, err
		}
		prepared.Tokens[key] = info
	}

	contract, err := h.contractMetadata(ctx, transfer.ContractAddress, transfer.BlockNumber)
	if err != nil {
		return nil, err
	}
	prepared.Contract = contract

	return prepared, nil
}

// Handle applies every (token id, amount) pair of the event. The pairs share the event
// transaction, so a batch is applied completely or not at all.
func (h *erc1155Handler) Handle(ctx context.Context, tx store.Tx, transfer *domain.Transfer, prepared *Prepared) error {
	if err := checkPairs(transfer); err != nil {
		return err
	}

	for i, tokenID := range transfer.TokenIDs {
		amount := transfer.Amounts[i]

		if !domain.IsZeroAddress(transfer.From) {
			if err := h.debit(ctx, tx, transfer, tokenID, amount); err != nil {
				return err
			}
		}
		if !domain.IsZeroAddress(transfer.To) {
			if err := h.credit(ctx, tx, transfer, tokenID, amount); err != nil {
				return err
			}
		}

		if info, ok := prepared.Token(tokenID); ok {
			_, err := tx.InsertERC1155MetadataIfAbsent(ctx, &domain.ERC1155Metadata{
				ContractAddress: transfer.ContractAddress,
				TokenID:         tokenID,
				TokenURI:        info.TokenURI,
				Metadata:        info.Metadata,
				LastUpdated:     transfer.BlockNumber,
			})
			if err != nil {
				return err
			}
		}
	}

	if prepared != nil && prepared.Contract != nil {
		if err := h.contracts.CreateIfAbsent(ctx, tx, prepared.Contract); err != nil {
			return err
		}
	}
	return nil
}

// debit decreases the sender balance. A balance that would go negative is clamped to zero.
func (h *erc1155Handler) debit(ctx context.Context, tx store.Tx, transfer *domain.Transfer, tokenID, amount *uint256.Int) error {
	balance, err := h.balanceForUpdate(ctx, tx, transfer.ContractAddress, tokenID, transfer.From)
	if err != nil {
		return err
	}

	if balance.Balance.Lt(amount) {
		logger.WarnCtx(ctx, "ERC1155 balance underflow, clamping to zero",
			transferFields(transfer,
				zap.String("token_id", tokenID.Dec()),
				zap.String("owner", transfer.From),
				zap.String("balance", balance.Balance.Dec()),
				zap.String("amount", amount.Dec()))...)
		balance.Balance = new(uint256.Int)
	} else {
		balance.Balance = new(uint256.Int).Sub(balance.Balance, amount)
	}
	balance.LastUpdated = transfer.BlockNumber

	return tx.UpsertERC1155Balance(ctx, balance)
}

func (h *erc1155Handler) credit(ctx context.Context, tx store.Tx, transfer *domain.Transfer, tokenID, amount *uint256.Int) error {
	balance, err := h.balanceForUpdate(ctx, tx, transfer.ContractAddress, tokenID, transfer.To)
	if err != nil {
		return err
	}

	sum, overflow := new(uint256.Int).AddOverflow(balance.Balance, amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s for %s/%s overflows", domain.ErrMalformedEvent,
			transfer.To, transfer.ContractAddress, tokenID.Dec())
	}
	balance.Balance = sum
	balance.LastUpdated = transfer.BlockNumber

	return tx.UpsertERC1155Balance(ctx, balance)
}

// balanceForUpdate returns the locked balance record, or a zero balance when absent
func (h *erc1155Handler) balanceForUpdate(ctx context.Context, tx store.Tx, contract string, tokenID *uint256.Int, owner string) (*domain.ERC1155Balance, error) {
	balance, err := tx.GetERC1155BalanceForUpdate(ctx, contract, tokenID, owner)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &domain.ERC1155Balance{
			ContractAddress: contract,
			TokenID:         tokenID,
			Owner:           owner,
		}
	}
	if balance.Balance == nil {
		balance.Balance = new(uint256.Int)
	}
	return balance, nil
}

func checkPairs(transfer *domain.Transfer) error {
	if len(transfer.TokenIDs) == 0 || len(transfer.TokenIDs) != len(transfer.Amounts) {
		return fmt.Errorf("%w: %d token ids and %d amounts", domain.ErrMalformedEvent,
			len(transfer.TokenIDs), len(transfer.Amounts))
	}
	for i := range transfer.TokenIDs {
		if transfer.TokenIDs[i] == nil || transfer.Amounts[i] == nil {
			return fmt.Errorf("%w: missing token id or amount", domain.ErrMalformedEvent)
		}
	}
	return nil
}
