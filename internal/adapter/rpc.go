package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// RPCClient defines an interface for JSON-RPC operations to enable mocking
//
//go:generate mockgen -source=rpc.go -destination=../mocks/rpc.go -package=mocks -mock_names=RPCClient=MockRPCClient
type RPCClient interface {
	// CallContext performs a JSON-RPC call with positional arguments and decodes the result
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error

	// Close closes the connection
	Close()
}

// RPCDialer defines an interface for dialing JSON-RPC endpoints
//
//go:generate mockgen -source=rpc.go -destination=../mocks/rpc.go -package=mocks -mock_names=RPCDialer=MockRPCDialer
type RPCDialer interface {
	Dial(ctx context.Context, rawurl string) (RPCClient, error)
}

// RealRPCDialer implements RPCDialer using the go-ethereum rpc package, which speaks plain
// JSON-RPC 2.0 and works against any Starknet node
type RealRPCDialer struct {
	timeout time.Duration
}

// NewRPCDialer creates a new real JSON-RPC dialer. Every HTTP round trip is bounded by
// timeout.
func NewRPCDialer(timeout time.Duration) RPCDialer {
	return &RealRPCDialer{timeout: timeout}
}

func (d *RealRPCDialer) Dial(ctx context.Context, rawurl string) (RPCClient, error) {
	client, err := rpc.DialOptions(ctx, rawurl, rpc.WithHTTPClient(&http.Client{Timeout: d.timeout}))
	if err != nil {
		return nil, err
	}
	return client, nil
}
