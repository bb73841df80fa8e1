package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/ff-starknet-indexer/internal/domain"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
	"github.com/feral-file/ff-starknet-indexer/internal/store/schema"
)

var (
	testDB        *gorm.DB
	pgContainer   *postgres.PostgresContainer
	sqliteCounter int64
)

// TestMain sets up PostgreSQL when requested. Without TEST_DB_HOST or
// FF_INDEXER_TEST_CONTAINERS=true the suite runs against in-memory SQLite.
func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	ctx := context.Background()

	dsn, err := postgresDSN(ctx)
	if err != nil {
		fmt.Printf("Failed to prepare PostgreSQL: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	if dsn != "" {
		testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			err = Migrate(ctx, testDB)
		}
		if err != nil {
			fmt.Printf("Failed to initialize database: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	terminateContainer(ctx)
	os.Exit(code)
}

// postgresDSN returns the DSN of an external database or of a freshly started container,
// or "" when the SQLite backend should be used
func postgresDSN(ctx context.Context) (string, error) {
	if dbHost := os.Getenv("TEST_DB_HOST"); dbHost != "" {
		dbPort := envOr("TEST_DB_PORT", "5432")
		dbUser := envOr("TEST_DB_USER", "postgres")
		dbPassword := envOr("TEST_DB_PASSWORD", "postgres")
		dbName := envOr("TEST_DB_NAME", "test_db")

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName), nil
	}

	if os.Getenv("FF_INDEXER_TEST_CONTAINERS") != "true" {
		return "", nil
	}

	var err error
	pgContainer, err = postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	fmt.Printf("Started PostgreSQL container\n")
	return pgContainer.ConnectionString(ctx, "sslmode=disable")
}

func terminateContainer(ctx context.Context) {
	if pgContainer == nil {
		return
	}
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// initPGTestDB empties every table of the shared PostgreSQL database
func initPGTestDB(t *testing.T) Store {
	for _, model := range schema.Models() {
		err := testDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
		require.NoError(t, err)
	}
	return NewPGStore(testDB)
}

// initSQLiteTestDB creates a unique in-memory database per test.
// A single connection serialises transactions the way row locks do on PostgreSQL.
func initSQLiteTestDB(t *testing.T) Store {
	counter := atomic.AddInt64(&sqliteCounter, 1)
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", counter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(context.Background(), db))
	return NewPGStore(db)
}

// TestPGStore runs all store tests against PostgreSQL when configured, SQLite otherwise
func TestPGStore(t *testing.T) {
	if testDB != nil {
		RunStoreTests(t, initPGTestDB)
		return
	}
	RunStoreTests(t, initSQLiteTestDB)
}

func TestConfigureConnectionPool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:pooltest?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, ConfigureConnectionPool(db, 4, 10, 0, 0))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestClassifyTxError(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected error
	}{
		{name: "serialization failure", code: "40001", expected: domain.ErrTransactionConflict},
		{name: "deadlock", code: "40P01", expected: domain.ErrTransactionConflict},
		{name: "nul escape in jsonb", code: "22P05", expected: domain.ErrUnstorableValue},
		{name: "invalid byte sequence", code: "22021", expected: domain.ErrUnstorableValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyTxError(fmt.Errorf("failed to insert erc721 token: %w", &pgconn.PgError{Code: tt.code}))
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("other errors are kept", func(t *testing.T) {
		err := classifyTxError(&pgconn.PgError{Code: "23505"})
		assert.False(t, errors.Is(err, domain.ErrTransactionConflict))
		assert.False(t, errors.Is(err, domain.ErrUnstorableValue))
	})
}
