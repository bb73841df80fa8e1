package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/messaging"
)

const (
	// SubjectPrefix is the root of every state change subject
	SubjectPrefix = "nft"

	defaultDuplicateWindow = 2 * time.Minute
	provisionTimeout       = 10 * time.Second
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string

	// DuplicateWindow is how long JetStream remembers message ids
	DuplicateWindow time.Duration
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()), zap.String("stream", cfg.StreamName))

	if err := provisionStream(js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	return &publisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		json:       jsonAdapter,
	}, nil
}

// PublishStateChange publishes a committed state change to NATS JetStream
func (p *publisher) PublishStateChange(ctx context.Context, change domain.StateChange) error {
	data, err := p.json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal state change: %w", err)
	}

	subject := buildSubject(change)
	_, err = p.js.Publish(ctx, subject, data,
		jetstream.WithMsgID(messageID(change)),
		jetstream.WithExpectStream(p.streamName))
	if err != nil {
		return fmt.Errorf("failed to publish state change: %w", err)
	}

	logger.DebugCtx(ctx, "Published state change",
		zap.String("subject", subject),
		zap.String("event_key", change.EventKey))
	return nil
}

// provisionStream creates the stream capturing every state change subject, or updates it
// to the current settings
func provisionStream(js adapter.JetStream, cfg Config) error {
	window := cfg.DuplicateWindow
	if window <= 0 {
		window = defaultDuplicateWindow
	}

	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{SubjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: window,
	})
	if err != nil {
		return fmt.Errorf("failed to provision stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// buildSubject constructs the NATS subject of a state change.
// Format: nft.{standard}.{event_type}, e.g. nft.erc721.mint
func buildSubject(change domain.StateChange) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, change.Standard, change.EventType)
}

// messageID derives a stable id from the event and token id so that JetStream drops a
// message republished within its duplicate window
func messageID(change domain.StateChange) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(change.EventKey+"/"+change.TokenID)).String()
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
