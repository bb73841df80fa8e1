package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/block"
	"github.com/feral-file/ff-starknet-indexer/internal/checkpoint"
	"github.com/feral-file/ff-starknet-indexer/internal/classifier"
	"github.com/feral-file/ff-starknet-indexer/internal/config"
	"github.com/feral-file/ff-starknet-indexer/internal/handler"
	"github.com/feral-file/ff-starknet-indexer/internal/indexer"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/messaging"
	"github.com/feral-file/ff-starknet-indexer/internal/metadata"
	"github.com/feral-file/ff-starknet-indexer/internal/metrics"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/jetstream"
	"github.com/feral-file/ff-starknet-indexer/internal/providers/starknet"
	"github.com/feral-file/ff-starknet-indexer/internal/ratelimit"
	"github.com/feral-file/ff-starknet-indexer/internal/registry"
	"github.com/feral-file/ff-starknet-indexer/internal/store"
	mongostore "github.com/feral-file/ff-starknet-indexer/internal/store/mongo"
	"github.com/feral-file/ff-starknet-indexer/internal/uri"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Directory holding the .env files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadIndexerConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service":      "starknet-indexer",
			"store_driver": cfg.Store.Driver,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Starknet Indexer")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the document store
	dataStore := openStore(ctx, cfg)
	defer func() {
		if err := dataStore.Close(context.Background()); err != nil {
			logger.Error(err, zap.String("component", "store"))
		}
	}()

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	base64Adapter := adapter.NewBase64()
	clockAdapter := adapter.NewClock()
	fsAdapter := adapter.NewFileSystem()
	httpClient := ratelimit.NewHTTPClient(
		adapter.NewHTTPClient(adapter.HTTPClientConfig{
			Timeout:     cfg.Metadata.HTTPTimeout,
			MaxBodySize: cfg.Metadata.MaxBodySize,
		}),
		"metadata_http",
		ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.MetadataRequestsPerSecond,
			Burst:             cfg.RateLimit.MetadataBurst,
			MaxQueueTime:      cfg.RateLimit.MaxQueueTime,
		},
	)

	// Connect to the Starknet node
	rpcDialer := ratelimit.NewRPCDialer(
		adapter.NewRPCDialer(cfg.Starknet.RequestTimeout),
		"starknet_rpc",
		ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RPCRequestsPerSecond,
			Burst:             cfg.RateLimit.RPCBurst,
			MaxQueueTime:      cfg.RateLimit.MaxQueueTime,
		},
	)
	starknetClient, err := starknet.Dial(ctx, rpcDialer, cfg.Starknet.RPCURL)
	if err != nil {
		logger.Fatal("Failed to dial Starknet RPC", zap.Error(err), zap.String("rpc_url", cfg.Starknet.RPCURL))
	}
	defer starknetClient.Close()
	logger.Info("Connected to Starknet RPC")

	headProvider := block.NewHeadProvider(
		starknet.NewBlockFetcher(starknetClient),
		block.Config{
			TTL:         cfg.Starknet.BlockHeadTTL,
			StaleWindow: cfg.Starknet.BlockHeadStaleWindow,
		},
		clockAdapter,
	)
	eventFetcher := starknet.NewEventFetcher(starknetClient, cfg.Starknet.ChunkSize)

	// Initialize registries
	blacklist := registry.EmptyBlacklist()
	if cfg.BlacklistPath != "" {
		blacklist, err = registry.NewBlacklistRegistryLoader(fsAdapter, jsonAdapter).Load(cfg.BlacklistPath)
		if err != nil {
			logger.Fatal("Failed to load blacklist", zap.Error(err), zap.String("path", cfg.BlacklistPath))
		}
		logger.Info("Loaded blacklist", zap.String("path", cfg.BlacklistPath))
	}
	contracts, err := registry.NewContractRegistry(dataStore, cfg.Cache.ContractSize)
	if err != nil {
		logger.Fatal("Failed to create contract registry", zap.Error(err))
	}
	capabilities, err := registry.NewCapabilityCache(starknetClient, cfg.Cache.ContractSize)
	if err != nil {
		logger.Fatal("Failed to create capability cache", zap.Error(err))
	}

	// Initialize the pipeline
	resolver := metadata.NewResolver(httpClient, base64Adapter, jsonAdapter, &uri.Config{
		IPFSGateways:    cfg.URI.IPFSGateways,
		ArweaveGateways: cfg.URI.ArweaveGateways,
	})
	dispatcher := handler.NewDispatcher(
		dataStore,
		handler.NewERC721Handler(starknetClient, resolver, contracts),
		handler.NewERC1155Handler(dataStore, starknetClient, resolver, contracts),
	)
	eventClassifier := classifier.NewClassifier(blacklist, capabilities)
	tracker := checkpoint.NewTracker(dataStore, cfg.Starknet.StartBlock)

	publisher := openPublisher(cfg, jsonAdapter)
	defer publisher.Close()

	idx := indexer.NewIndexer(
		indexer.Config{
			RangeSize:           cfg.Starknet.RangeSize,
			PollInterval:        cfg.Starknet.PollInterval,
			WorkerPoolSize:      cfg.Worker.WorkerPoolSize,
			WorkerQueueSize:     cfg.Worker.WorkerQueueSize,
			RetryMaxElapsedTime: cfg.Retry.MaxElapsedTime,
		},
		dataStore,
		tracker,
		eventFetcher,
		headProvider,
		eventClassifier,
		dispatcher,
		publisher,
		clockAdapter,
	)
	defer idx.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for component errors
	errCh := make(chan error, 2)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(metrics.Config{
			Debug: cfg.Debug,
			Addr:  cfg.Metrics.MetricsAddr(),
		}, tracker)
		go func() {
			if err := server.Run(ctx); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		logger.Info("Metrics server started", zap.String("addr", cfg.Metrics.MetricsAddr()))
	}

	// Start the indexer
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := idx.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "indexer"))
		cancel()
	}

	// The in-flight range is abandoned, the checkpoint still points at the last committed one
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("Indexer did not stop in time")
	}

	logger.Info("Starknet Indexer stopped")
}

// openStore connects to the configured backend and prepares its schema
func openStore(ctx context.Context, cfg *config.IndexerConfig) store.Store {
	switch cfg.Store.Driver {
	case config.StoreDriverMongoDB:
		dataStore, err := mongostore.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err), zap.String("database", cfg.MongoDB.Database))
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB.Database))
		return dataStore
	default:
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
		}
		if err := store.ConfigureConnectionPool(db,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
			cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
		if err := store.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Connected to database")
		return store.NewPGStore(db)
	}
}

// openPublisher connects to NATS when configured; notifications are optional
func openPublisher(cfg *config.IndexerConfig, jsonAdapter adapter.JSON) messaging.Publisher {
	if cfg.NATS.URL == "" {
		logger.Info("NATS URL not configured, state change notifications disabled")
		return messaging.NewNoopPublisher()
	}

	publisher, err := jetstream.NewPublisher(
		jetstream.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
		},
		adapter.NewNatsJetStream(),
		jsonAdapter,
	)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	logger.Info("Connected to NATS", zap.String("stream", cfg.NATS.StreamName))
	return publisher
}
