package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/metadata"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
	"github.com/feral-file/ff-starknet-indexer/internal/uri"
)

// lookup resolves on-chain and off-chain descriptive data shared by both handlers
type lookup struct {
	client    starknet.Client
	resolver  metadata.Resolver
	contracts registry.ContractRegistry
}

// tokenInfo resolves the token uri through the view call of the standard against the state
// at block, then its metadata. A reverted view call yields an empty uri; transport failures
// are returned.
func (l *lookup) tokenInfo(ctx context.Context, standard domain.Standard, contract string, tokenID *uint256.Int, block uint64) (TokenInfo, error) {
	var (
		tokenURI string
		err      error
	)
	switch standard {
	case domain.StandardERC1155:
		tokenURI, err = l.client.ERC1155URI(ctx, contract, tokenID, block)
		if err == nil {
			tokenURI = uri.ExpandTokenID(tokenURI, domain.FormatFelt(tokenID))
		}
	default:
		tokenURI, err = l.client.ERC721TokenURI(ctx, contract, tokenID, block)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrContractCall) {
			return TokenInfo{}, fmt.Errorf("failed to get token uri: %w", err)
		}
		logger.WarnCtx(ctx, "Token uri not available, using empty uri",
			zap.String("contract", contract),
			zap.String("token_id", tokenID.Dec()),
			zap.Error(err))
		tokenURI = ""
	}

	info := TokenInfo{TokenURI: tokenURI}
	if tokenURI != "" {
		info.Metadata = l.resolver.Resolve(ctx, tokenURI)
	}
	return info, nil
}

// contractMetadata returns the name and symbol of a contract that has no metadata recorded
// yet, or nil when it is already known
func (l *lookup) contractMetadata(ctx context.Context, contract string, block uint64) (*domain.ContractMetadata, error) {
	exists, err := l.contracts.Exists(ctx, contract)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	name, err := l.viewString(ctx, "name", contract, block, l.client.Name)
	if err != nil {
		return nil, err
	}
	symbol, err := l.viewString(ctx, "symbol", contract, block, l.client.Symbol)
	if err != nil {
		return nil, err
	}

	return &domain.ContractMetadata{
		ContractAddress: contract,
		Name:            name,
		Symbol:          symbol,
		LastUpdated:     block,
	}, nil
}

func (l *lookup) viewString(ctx context.Context, what string, contract string, block uint64, call func(context.Context, string, uint64) (string, error)) (string, error) {
	s, err := call(ctx, contract, block)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrContractCall) {
		return "", fmt.Errorf("failed to get contract %s: %w", what, err)
	}

	logger.WarnCtx(ctx, "Contract view not available, using empty value",
		zap.String("contract", contract),
		zap.String("view", what),
		zap.Error(err))
	return "", nil
}
