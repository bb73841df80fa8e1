package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

const serviceName = "indexer"

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongoDB  = "mongodb"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// StarknetConfig holds the chain node configuration
type StarknetConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	StartBlock           uint64        `mapstructure:"start_block"`
	RangeSize            uint64        `mapstructure:"range_size"`
	ChunkSize            int           `mapstructure:"chunk_size"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// MongoDBConfig holds MongoDB configuration
type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// URIConfig holds content-addressed gateway configuration
type URIConfig struct {
	IPFSGateways    []string `mapstructure:"ipfs_gateways"`
	ArweaveGateways []string `mapstructure:"arweave_gateways"`
}

// MetadataConfig holds off-chain metadata fetch limits
type MetadataConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// RetryConfig bounds the replay of a failing event
type RetryConfig struct {
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time"`
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables notifications.
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	StreamName      string        `mapstructure:"stream_name"`
	MaxReconnects   int           `mapstructure:"max_reconnects"`
	ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName  string        `mapstructure:"connection_name"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// MetricsConfig holds the metrics/health HTTP server configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// RateLimitConfig bounds the request rate sent to external providers. A non-positive rate
// disables limiting for that provider.
type RateLimitConfig struct {
	RPCRequestsPerSecond      float64       `mapstructure:"rpc_requests_per_second"`
	RPCBurst                  int           `mapstructure:"rpc_burst"`
	MetadataRequestsPerSecond float64       `mapstructure:"metadata_requests_per_second"`
	MetadataBurst             int           `mapstructure:"metadata_burst"`
	MaxQueueTime              time.Duration `mapstructure:"max_queue_time"`
}

// CacheConfig holds in-process cache sizes
type CacheConfig struct {
	ContractSize int `mapstructure:"contract_size"`
}

// IndexerConfig holds configuration for the indexer
type IndexerConfig struct {
	BaseConfig    `mapstructure:",squash"`
	Starknet      StarknetConfig  `mapstructure:"starknet"`
	Store         StoreConfig     `mapstructure:"store"`
	Database      DatabaseConfig  `mapstructure:"database"`
	MongoDB       MongoDBConfig   `mapstructure:"mongodb"`
	URI           URIConfig       `mapstructure:"uri"`
	Metadata      MetadataConfig  `mapstructure:"metadata"`
	Worker        WorkerConfig    `mapstructure:"worker"`
	Retry         RetryConfig     `mapstructure:"retry"`
	NATS          NATSConfig      `mapstructure:"nats"`
	Metrics       MetricsConfig   `mapstructure:"metrics"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
	Cache         CacheConfig     `mapstructure:"cache"`
	BlacklistPath string          `mapstructure:"blacklist_path"`
}


// LoadIndexerConfig loads configuration for the indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper(serviceName, configFile, envPath)

	// Set defaults
	v.SetDefault("starknet.start_block", domain.DEFAULT_LAST_SYNC)
	v.SetDefault("starknet.range_size", 100)
	v.SetDefault("starknet.chunk_size", domain.EVENTS_CHUNK_SIZE)
	v.SetDefault("starknet.request_timeout", "30s")
	v.SetDefault("starknet.poll_interval", "10s")
	v.SetDefault("starknet.block_head_ttl", "10s")
	v.SetDefault("starknet.block_head_stale_window", "60s")
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("mongodb.database", "starknet_indexer")
	v.SetDefault("uri.ipfs_gateways", []string{"https://ipfs.io", "https://cloudflare-ipfs.com", "https://dweb.link"})
	v.SetDefault("uri.arweave_gateways", []string{"https://arweave.net"})
	v.SetDefault("metadata.http_timeout", "15s")
	v.SetDefault("metadata.max_body_size", 5*1024*1024) // 5MB
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.queue_size", 1024)
	v.SetDefault("retry.max_elapsed_time", "2m")
	v.SetDefault("nats.stream_name", "NFT_STATE")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "starknet-indexer")
	v.SetDefault("nats.duplicate_window", "2m")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("rate_limit.rpc_requests_per_second", 0)
	v.SetDefault("rate_limit.rpc_burst", 10)
	v.SetDefault("rate_limit.metadata_requests_per_second", 0)
	v.SetDefault("rate_limit.metadata_burst", 5)
	v.SetDefault("rate_limit.max_queue_time", "30s")
	v.SetDefault("cache.contract_size", 10000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config IndexerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the indexer cannot start without
func (c *IndexerConfig) Validate() error {
	if strings.TrimSpace(c.Starknet.RPCURL) == "" {
		return fmt.Errorf("%w: starknet.rpc_url", domain.ErrMissingConfig)
	}
	if c.Starknet.RangeSize == 0 {
		return fmt.Errorf("%w: starknet.range_size must be positive", domain.ErrMissingConfig)
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname", domain.ErrMissingConfig)
		}
	case StoreDriverMongoDB:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("%w: mongodb.uri", domain.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}

	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Starknet
		"starknet.rpc_url",
		"starknet.start_block",
		"starknet.range_size",
		"starknet.chunk_size",
		"starknet.request_timeout",
		"starknet.poll_interval",
		"starknet.block_head_ttl",
		"starknet.block_head_stale_window",
		// Store
		"store.driver",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// MongoDB
		"mongodb.uri",
		"mongodb.database",
		// URI
		"uri.ipfs_gateways",
		"uri.arweave_gateways",
		// Metadata
		"metadata.http_timeout",
		"metadata.max_body_size",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
		"retry.max_elapsed_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.duplicate_window",
		// Metrics
		"metrics.enabled",
		"metrics.host",
		"metrics.port",
		// Rate limits
		"rate_limit.rpc_requests_per_second",
		"rate_limit.rpc_burst",
		"rate_limit.metadata_requests_per_second",
		"rate_limit.metadata_burst",
		"rate_limit.max_queue_time",
		"cache.contract_size",
		"blacklist_path",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MetricsAddr returns the listen address of the metrics server
func (c *MetricsConfig) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
