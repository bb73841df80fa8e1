package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/metadata"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
)

type erc721Handler struct {
	lookup
}

// NewERC721Handler creates the handler of single-owner tokens
func NewERC721Handler(client starknet.Client, resolver metadata.Resolver, contracts registry.ContractRegistry) Handler {
	return &erc721Handler{
		lookup: lookup{
			client:    client,
			resolver:  resolver,
			contracts: contracts,
		},
	}
}

// Prepare only has work to do for mints: the token uri, its metadata and, for a new
// contract, its name and symbol
func (h *erc721Handler) Prepare(ctx context.Context, transfer *domain.Transfer) (*Prepared, error) {
	if err := checkSingleToken(transfer); err != nil {
		return nil, err
	}
	if transfer.EventType() != domain.EventTypeMint {
		return &Prepared{}, nil
	}

	tokenID := transfer.TokenIDs[0]
	info, err := h.tokenInfo(ctx, domain.StandardERC721, transfer.ContractAddress, tokenID, transfer.BlockNumber)
	if err != nil {
		return nil, err
	}
	contract, err := h.contractMetadata(ctx, transfer.ContractAddress, transfer.BlockNumber)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Contract: contract,
		Tokens:   map[string]TokenInfo{tokenID.Dec(): info},
	}, nil
}

func (h *erc721Handler) Handle(ctx context.Context, tx store.Tx, transfer *domain.Transfer, prepared *Prepared) error {
	if err := checkSingleToken(transfer); err != nil {
		return err
	}

	switch transfer.EventType() {
	case domain.EventTypeMint:
		return h.mint(ctx, tx, transfer, prepared)
	default:
		return h.move(ctx, tx, transfer)
	}
}

func (h *erc721Handler) mint(ctx context.Context, tx store.Tx, transfer *domain.Transfer, prepared *Prepared) error {
	tokenID := transfer.TokenIDs[0]
	info, _ := prepared.Token(tokenID)

	existing, err := tx.GetERC721ForUpdate(ctx, transfer.ContractAddress, tokenID)
	if err != nil {
		return err
	}

	switch {
	case existing == nil:
		token := &domain.ERC721Token{
			ContractAddress: transfer.ContractAddress,
			TokenID:         tokenID,
			Owner:           transfer.To,
			PreviousOwners:  []domain.AddressAtBlock{},
			TokenURI:        info.TokenURI,
			Metadata:        info.Metadata,
			LastUpdated:     transfer.BlockNumber,
		}
		if err := tx.InsertERC721(ctx, token); err != nil {
			return err
		}
	case domain.IsZeroAddress(existing.Owner):
		// Re-mint of a burned token: the burn stays in the history
		existing.PreviousOwners = append(existing.PreviousOwners, domain.AddressAtBlock{
			Address: domain.ZERO_ADDRESS,
			Block:   existing.LastUpdated,
		})
		existing.Owner = transfer.To
		existing.TokenURI = info.TokenURI
		existing.Metadata = info.Metadata
		existing.LastUpdated = transfer.BlockNumber
		if err := tx.UpdateERC721(ctx, existing); err != nil {
			return err
		}
		logger.InfoCtx(ctx, "Burned token minted again",
			transferFields(transfer, zap.String("token_id", tokenID.Dec()))...)
	default:
		return fmt.Errorf("%w: %s/%s is owned by %s", domain.ErrTokenAlreadyExists,
			transfer.ContractAddress, tokenID.Dec(), existing.Owner)
	}

	if prepared != nil && prepared.Contract != nil {
		if err := h.contracts.CreateIfAbsent(ctx, tx, prepared.Contract); err != nil {
			return err
		}
	}
	return nil
}

// move applies a transfer or a burn. The leaving owner is appended to the history with the
// block at which it acquired the token.
func (h *erc721Handler) move(ctx context.Context, tx store.Tx, transfer *domain.Transfer) error {
	tokenID := transfer.TokenIDs[0]

	token, err := tx.GetERC721ForUpdate(ctx, transfer.ContractAddress, tokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: %s %s/%s before mint", domain.ErrTokenNotFound,
			transfer.EventType(), transfer.ContractAddress, tokenID.Dec())
	}

	if domain.NormalizeAddress(token.Owner) != domain.NormalizeAddress(transfer.From) {
		logger.WarnCtx(ctx, "Transfer sender is not the recorded owner",
			transferFields(transfer,
				zap.String("token_id", tokenID.Dec()),
				zap.String("owner", token.Owner),
				zap.String("from", transfer.From))...)
	}
	if transfer.BlockNumber < token.LastUpdated {
		logger.WarnCtx(ctx, "Transfer is older than the recorded state",
			transferFields(transfer,
				zap.String("token_id", tokenID.Dec()),
				zap.Uint64("last_updated", token.LastUpdated))...)
	}

	token.PreviousOwners = append(token.PreviousOwners, domain.AddressAtBlock{
		Address: token.Owner,
		Block:   token.LastUpdated,
	})
	token.Owner = transfer.To
	token.LastUpdated = transfer.BlockNumber

	return tx.UpdateERC721(ctx, token)
}

func checkSingleToken(transfer *domain.Transfer) error {
	if len(transfer.TokenIDs) != 1 || transfer.TokenIDs[0] == nil {
		return fmt.Errorf("%w: ERC721 transfer with %d token ids", domain.ErrMalformedEvent, len(transfer.TokenIDs))
	}
	return nil
}
