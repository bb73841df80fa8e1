package classifier

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
)

// Classifier maps a raw event to a typed transfer
//
//go:generate mockgen -source=classifier.go -destination=../mocks/classifier.go -package=mocks -mock_names=Classifier=MockClassifier
type Classifier interface {
	// Classify decodes the event payload according to its topic key.
	// It returns nil without error for events the indexer ignores: unknown keys, blacklisted
	// contracts and Transfer events of contracts that are not ERC721.
	// A payload that does not match its layout yields domain.ErrMalformedEvent.
	Classify(ctx context.Context, event domain.RawEvent) (*domain.Transfer, error)
}

type classifier struct {
	blacklist    registry.BlacklistRegistry
	capabilities registry.CapabilityCache
}

func NewClassifier(blacklist registry.BlacklistRegistry, capabilities registry.CapabilityCache) Classifier {
	if blacklist == nil {
		blacklist = registry.EmptyBlacklist()
	}
	return &classifier{
		blacklist:    blacklist,
		capabilities: capabilities,
	}
}

func (c *classifier) Classify(ctx context.Context, event domain.RawEvent) (*domain.Transfer, error) {
	key := event.TopicKey()
	if key == nil {
		return nil, nil
	}

	contract := domain.NormalizeAddress(event.FromAddress)
	if c.blacklist.IsBlacklisted(contract) {
		logger.DebugCtx(ctx, "Ignoring event of blacklisted contract",
			zap.String("contract", contract),
			zap.String("tx_hash", event.TransactionHash))
		return nil, nil
	}

	var (
		transfer *domain.Transfer
		err      error
	)
	switch {
	case key.Eq(starknet.TransferKey):
		// ERC20 emits the same key, only ERC721 classes are indexed
		isERC721, perr := c.capabilities.IsERC721(ctx, contract, event.BlockNumber)
		if perr != nil {
			return nil, fmt.Errorf("failed to probe contract %s: %w", contract, perr)
		}
		if !isERC721 {
			return nil, nil
		}
		transfer, err = decodeTransfer(event.Payload())
	case key.Eq(starknet.TransferSingleKey):
		transfer, err = decodeTransferSingle(event.Payload())
	case key.Eq(starknet.TransferBatchKey):
		transfer, err = decodeTransferBatch(event.Payload())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("event %s of contract %s at block %d: %w",
			event.Key(), contract, event.BlockNumber, err)
	}

	transfer.ContractAddress = contract
	transfer.BlockNumber = event.BlockNumber
	transfer.TransactionHash = event.TransactionHash
	transfer.EventKey = event.Key()
	return transfer, nil
}

// decodeTransfer decodes [from, to, id.low, id.high]. Some Cairo 0 contracts emit the
// token id as a single felt, which leaves the high limb out.
func decodeTransfer(words []*uint256.Int) (*domain.Transfer, error) {
	if len(words) != 3 && len(words) != 4 {
		return nil, fmt.Errorf("%w: Transfer expects 4 words, got %d", domain.ErrMalformedEvent, len(words))
	}

	high := new(uint256.Int)
	if len(words) == 4 {
		high = words[3]
	}
	tokenID, err := domain.Uint256FromLimbs(words[2], high)
	if err != nil {
		return nil, err
	}

	return &domain.Transfer{
		Standard: domain.StandardERC721,
		From:     domain.FormatFelt(words[0]),
		To:       domain.FormatFelt(words[1]),
		TokenIDs: []*uint256.Int{tokenID},
		Amounts:  []*uint256.Int{uint256.NewInt(1)},
	}, nil
}

// decodeTransferSingle decodes [operator, from, to, id.low, id.high, value.low, value.high]
func decodeTransferSingle(words []*uint256.Int) (*domain.Transfer, error) {
	if len(words) != 7 {
		return nil, fmt.Errorf("%w: TransferSingle expects 7 words, got %d", domain.ErrMalformedEvent, len(words))
	}

	tokenID, err := domain.Uint256FromLimbs(words[3], words[4])
	if err != nil {
		return nil, err
	}
	amount, err := domain.Uint256FromLimbs(words[5], words[6])
	if err != nil {
		return nil, err
	}

	return &domain.Transfer{
		Standard: domain.StandardERC1155,
		Operator: domain.FormatFelt(words[0]),
		From:     domain.FormatFelt(words[1]),
		To:       domain.FormatFelt(words[2]),
		TokenIDs: []*uint256.Int{tokenID},
		Amounts:  []*uint256.Int{amount},
	}, nil
}

// decodeTransferBatch decodes [operator, from, to, n, ids..., m, values...] where every id
// and value spans two words and n must equal m
func decodeTransferBatch(words []*uint256.Int) (*domain.Transfer, error) {
	if len(words) < 5 {
		return nil, fmt.Errorf("%w: TransferBatch too short (%d words)", domain.ErrMalformedEvent, len(words))
	}

	rest := words[3:]
	ids, rest, err := decodeUint256Array(rest)
	if err != nil {
		return nil, fmt.Errorf("token ids: %w", err)
	}
	amounts, rest, err := decodeUint256Array(rest)
	if err != nil {
		return nil, fmt.Errorf("amounts: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: TransferBatch has %d trailing words", domain.ErrMalformedEvent, len(rest))
	}
	if len(ids) != len(amounts) {
		return nil, fmt.Errorf("%w: TransferBatch has %d ids and %d amounts", domain.ErrMalformedEvent, len(ids), len(amounts))
	}

	return &domain.Transfer{
		Standard: domain.StandardERC1155,
		Operator: domain.FormatFelt(words[0]),
		From:     domain.FormatFelt(words[1]),
		To:       domain.FormatFelt(words[2]),
		TokenIDs: ids,
		Amounts:  amounts,
	}, nil
}

// decodeUint256Array reads a length-prefixed array of Uint256 and returns the remaining words
func decodeUint256Array(words []*uint256.Int) ([]*uint256.Int, []*uint256.Int, error) {
	if len(words) == 0 {
		return nil, nil, fmt.Errorf("%w: missing array length", domain.ErrMalformedEvent)
	}
	if !words[0].IsUint64() || words[0].Uint64() > uint64(len(words)-1)/2 {
		return nil, nil, fmt.Errorf("%w: array length %s exceeds payload", domain.ErrMalformedEvent, words[0].Dec())
	}

	n := int(words[0].Uint64())
	values := make([]*uint256.Int, 0, n)
	for i := range n {
		v, err := domain.Uint256FromLimbs(words[1+2*i], words[2+2*i])
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	return values, words[1+2*n:], nil
}
