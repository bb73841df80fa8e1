package messaging

import (
	"context"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// Publisher defines the interface for notifying downstream consumers of committed state changes
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishStateChange publishes one committed state change to the message broker
	PublishStateChange(ctx context.Context, change domain.StateChange) error
	// Close closes the connection
	Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every message, used when no broker is configured
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishStateChange(context.Context, domain.StateChange) error {
	return nil
}

func (noopPublisher) Close() {}
