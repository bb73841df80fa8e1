package starknet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

// BlockID selects the state a call is executed against
type BlockID struct {
	Tag    string
	Number uint64
}

// LatestBlock is the most recent accepted block
var LatestBlock = BlockID{Tag: "latest"}

// AtBlock pins a call to a block number
func AtBlock(number uint64) BlockID {
	return BlockID{Number: number}
}

func (b BlockID) MarshalJSON() ([]byte, error) {
	if b.Tag != "" {
		return json.Marshal(b.Tag)
	}
	return json.Marshal(struct {
		BlockNumber uint64 `json:"block_number"`
	}{b.Number})
}

// EventFilter is the parameter of starknet_getEvents
type EventFilter struct {
	FromBlock         BlockID    `json:"from_block"`
	ToBlock           BlockID    `json:"to_block"`
	Address           string     `json:"address,omitempty"`
	Keys              [][]string `json:"keys,omitempty"`
	ChunkSize         int        `json:"chunk_size"`
	ContinuationToken string     `json:"continuation_token,omitempty"`
}

// EmittedEvent is one event as returned by starknet_getEvents
type EmittedEvent struct {
	FromAddress     string   `json:"from_address"`
	Keys            []string `json:"keys"`
	Data            []string `json:"data"`
	BlockHash       string   `json:"block_hash"`
	BlockNumber     uint64   `json:"block_number"`
	TransactionHash string   `json:"transaction_hash"`
}

// EventsChunk is one page of starknet_getEvents
type EventsChunk struct {
	Events            []EmittedEvent `json:"events"`
	ContinuationToken string         `json:"continuation_token,omitempty"`
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

type contractClass struct {
	ABI json.RawMessage `json:"abi"`
}

type abiEntry struct {
	Type  string     `json:"type"`
	Name  string     `json:"name"`
	Items []abiEntry `json:"items"`
}

// Client is a thin adapter over the Starknet JSON-RPC API
//
//go:generate mockgen -source=client.go -destination=../../mocks/starknet_client.go -package=mocks -mock_names=Client=MockStarknetClient
type Client interface {
	// BlockNumber returns the latest accepted block number
	BlockNumber(ctx context.Context) (uint64, error)

	// GetEvents returns one page of events matching the filter
	GetEvents(ctx context.Context, filter EventFilter) (*EventsChunk, error)

	// Call executes a view function and returns the raw result words
	Call(ctx context.Context, contractAddress string, selector *uint256.Int, calldata []*uint256.Int, block BlockID) ([]*uint256.Int, error)

	// Name returns the contract name as of block
	Name(ctx context.Context, contractAddress string, block uint64) (string, error)

	// Symbol returns the contract symbol as of block
	Symbol(ctx context.Context, contractAddress string, block uint64) (string, error)

	// ERC721TokenURI returns the token URI of an ERC721 token as of block
	ERC721TokenURI(ctx context.Context, contractAddress string, tokenID *uint256.Int, block uint64) (string, error)

	// ERC1155URI returns the URI of an ERC1155 token id as of block, with the {id}
	// placeholder left as is
	ERC1155URI(ctx context.Context, contractAddress string, tokenID *uint256.Int, block uint64) (string, error)

	// IsERC721 reports whether the contract class declares an ownerOf/owner_of function
	IsERC721(ctx context.Context, contractAddress string, block uint64) (bool, error)

	// Close closes the connection
	Close()
}

type starknetClient struct {
	client adapter.RPCClient
}

func NewClient(client adapter.RPCClient) Client {
	return &starknetClient{client: client}
}

// Dial connects to the node at rpcURL
func Dial(ctx context.Context, dialer adapter.RPCDialer, rpcURL string) (Client, error) {
	client, err := dialer.Dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial starknet node: %w", err)
	}
	return NewClient(client), nil
}

func (c *starknetClient) Close() {
	c.client.Close()
}

// classifyError maps a JSON-RPC error returned by the node to ErrContractCall and every
// other failure (connection, timeout, HTTP status) to ErrTransport
func classifyError(method string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %s: %s (code %d)", domain.ErrContractCall, method, rpcErr.Error(), rpcErr.ErrorCode())
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransport, method, err)
}

func (c *starknetClient) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	if err := c.client.CallContext(ctx, &number, "starknet_blockNumber"); err != nil {
		return 0, classifyError("starknet_blockNumber", err)
	}
	return number, nil
}

func (c *starknetClient) GetEvents(ctx context.Context, filter EventFilter) (*EventsChunk, error) {
	var chunk EventsChunk
	if err := c.client.CallContext(ctx, &chunk, "starknet_getEvents", filter); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			// the node rejected the request itself (page size, token); retrying the range
			// is the only way forward
			return nil, fmt.Errorf("%w: starknet_getEvents: %s (code %d)", domain.ErrTransport, rpcErr.Error(), rpcErr.ErrorCode())
		}
		return nil, classifyError("starknet_getEvents", err)
	}
	return &chunk, nil
}

func (c *starknetClient) Call(ctx context.Context, contractAddress string, selector *uint256.Int, calldata []*uint256.Int, block BlockID) ([]*uint256.Int, error) {
	request := functionCall{
		ContractAddress:    contractAddress,
		EntryPointSelector: domain.FormatFelt(selector),
		Calldata:           make([]string, 0, len(calldata)),
	}
	for _, w := range calldata {
		request.Calldata = append(request.Calldata, domain.FormatFelt(w))
	}

	var result []string
	if err := c.client.CallContext(ctx, &result, "starknet_call", request, block); err != nil {
		return nil, classifyError("starknet_call", err)
	}

	return parseFelts(result)
}

func (c *starknetClient) Name(ctx context.Context, contractAddress string, block uint64) (string, error) {
	return c.callString(ctx, contractAddress, []*uint256.Int{nameSelector}, nil, block)
}

func (c *starknetClient) Symbol(ctx context.Context, contractAddress string, block uint64) (string, error) {
	return c.callString(ctx, contractAddress, []*uint256.Int{symbolSelector}, nil, block)
}

func (c *starknetClient) ERC721TokenURI(ctx context.Context, contractAddress string, tokenID *uint256.Int, block uint64) (string, error) {
	return c.callString(ctx, contractAddress, erc721URISelectors, tokenIDCalldata(tokenID), block)
}

func (c *starknetClient) ERC1155URI(ctx context.Context, contractAddress string, tokenID *uint256.Int, block uint64) (string, error) {
	return c.callString(ctx, contractAddress, erc1155URISelectors, tokenIDCalldata(tokenID), block)
}

// callString tries each selector in turn against the state at block; a contract error moves
// on to the next one and a transport error is returned immediately
func (c *starknetClient) callString(ctx context.Context, contractAddress string, selectors []*uint256.Int, calldata []*uint256.Int, block uint64) (string, error) {
	var lastErr error
	for _, selector := range selectors {
		words, err := c.Call(ctx, contractAddress, selector, calldata, AtBlock(block))
		if err == nil {
			return DecodeString(words), nil
		}
		if !errors.Is(err, domain.ErrContractCall) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *starknetClient) IsERC721(ctx context.Context, contractAddress string, block uint64) (bool, error) {
	var class contractClass
	if err := c.client.CallContext(ctx, &class, "starknet_getClassAt", AtBlock(block), contractAddress); err != nil {
		return false, classifyError("starknet_getClassAt", err)
	}

	entries, err := parseABI(class.ABI)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to parse contract ABI", zap.String("contract", contractAddress), zap.Error(err))
		return false, nil
	}

	return hasFunction(entries, ownerOfNames...), nil
}

// parseABI accepts the Cairo 0 form (JSON array) and the Sierra form (JSON-encoded string)
func parseABI(raw json.RawMessage) ([]abiEntry, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, err
		}
		raw = json.RawMessage(encoded)
	}

	var entries []abiEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// hasFunction searches top-level functions and the functions of Cairo 1 interfaces
func hasFunction(entries []abiEntry, names ...string) bool {
	for _, e := range entries {
		switch e.Type {
		case "function":
			for _, n := range names {
				if e.Name == n {
					return true
				}
			}
		case "interface":
			if hasFunction(e.Items, names...) {
				return true
			}
		}
	}
	return false
}

func tokenIDCalldata(tokenID *uint256.Int) []*uint256.Int {
	low, high := domain.Uint256Limbs(tokenID)
	return []*uint256.Int{low, high}
}

func parseFelts(values []string) ([]*uint256.Int, error) {
	words := make([]*uint256.Int, 0, len(values))
	for _, v := range values {
		w, err := domain.ParseFelt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		words = append(words, w)
	}
	return words, nil
}
