package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
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
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Initialize the database schema
	if err := initializeTestDatabase(testDB); err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	terminateContainer(ctx)
	os.Exit(code)
}

func terminateContainer(ctx context.Context) {
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}
}

// initializeTestDatabase runs the schema initialization SQL
func initializeTestDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	schemaPath := filepath.Join("..", "..", "db", "init_pg_db.sql")
	schemaSQL, err := os.ReadFile(schemaPath) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	_, err = sqlDB.Exec(string(schemaSQL))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// initPGTestDB wraps each test in a transaction rolled back on cleanup
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

// createTestUser inserts a user through the store's transaction
func createTestUser(t *testing.T, st Store, walletAddress string) *schema.User {
	user := &schema.User{
		WalletAddress: domain.NormalizeAddress(walletAddress),
		DisplayName:   "test user",
	}
	require.NoError(t, st.(*pgStore).db.Create(user).Error)
	return user
}

func TestFindUserByAddress(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	st := initPGTestDB(t)
	ctx := context.Background()

	created := createTestUser(t, st, "0xAbCd000000000000000000000000000000000001")

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		user, err := st.FindUserByAddress(ctx, "0xABCD000000000000000000000000000000000001")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("unknown address returns nil without error", func(t *testing.T) {
		user, err := st.FindUserByAddress(ctx, "0xdead000000000000000000000000000000000000")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestRecordAchievement(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	st := initPGTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, st, "0xabcd000000000000000000000000000000000002")
	firstIssue := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	secondIssue := firstIssue.Add(48 * time.Hour)

	t.Run("duplicate mint updates the existing row", func(t *testing.T) {
		err := st.RecordAchievement(ctx, RecordAchievementParams{
			UserID:      user.ID,
			Kind:        domain.AchievementKindCertificate,
			Level:       "B1",
			TokenNumber: "7",
			MetadataURL: "/certificates/b1/7",
			IssueDate:   firstIssue,
		})
		require.NoError(t, err)

		// Redelivery of the same conceptual award with a fresh token
		err = st.RecordAchievement(ctx, RecordAchievementParams{
			UserID:      user.ID,
			Kind:        domain.AchievementKindCertificate,
			Level:       "B1",
			TokenNumber: "9",
			MetadataURL: "/certificates/b1/9",
			IssueDate:   secondIssue,
		})
		require.NoError(t, err)

		var rows []schema.Achievement
		require.NoError(t, st.(*pgStore).db.
			Where("user_id = ? AND kind = ? AND level = ?", user.ID, domain.AchievementKindCertificate, "B1").
			Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "9", rows[0].TokenNumber)
		assert.Equal(t, "/certificates/b1/9", rows[0].MetadataURL)
		assert.WithinDuration(t, secondIssue, rows[0].IssueDate, time.Second)
	})

	t.Run("different levels create separate rows", func(t *testing.T) {
		err := st.RecordAchievement(ctx, RecordAchievementParams{
			UserID:      user.ID,
			Kind:        domain.AchievementKindCertificate,
			Level:       "B2",
			TokenNumber: "11",
			MetadataURL: "/certificates/b2/11",
			IssueDate:   firstIssue,
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, st.(*pgStore).db.Model(&schema.Achievement{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("same level different kind creates a separate row", func(t *testing.T) {
		err := st.RecordAchievement(ctx, RecordAchievementParams{
			UserID:      user.ID,
			Kind:        domain.AchievementKindBadge,
			Level:       "B1",
			TokenNumber: "3",
			MetadataURL: "/badges/b1/3",
			IssueDate:   firstIssue,
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, st.(*pgStore).db.Model(&schema.Achievement{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(3), count)
	})
}

func TestRecordOwnership(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	st := initPGTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, st, "0xabcd000000000000000000000000000000000003")
	firstPurchase := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	t.Run("duplicate purchase is a no-op", func(t *testing.T) {
		err := st.RecordOwnership(ctx, RecordOwnershipParams{
			UserID:       user.ID,
			ItemIndex:    42,
			Price:        "2500000000000000000",
			PurchaseDate: firstPurchase,
		})
		require.NoError(t, err)

		// Redelivered event with a later timestamp must not refresh the row
		err = st.RecordOwnership(ctx, RecordOwnershipParams{
			UserID:       user.ID,
			ItemIndex:    42,
			Price:        "9999999999999999999",
			PurchaseDate: firstPurchase.Add(time.Hour),
		})
		require.NoError(t, err)

		var rows []schema.OwnedItem
		require.NoError(t, st.(*pgStore).db.
			Where("user_id = ? AND item_index = ?", user.ID, 42).
			Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "2500000000000000000", rows[0].Price)
		assert.WithinDuration(t, firstPurchase, rows[0].PurchaseDate, time.Second)
	})

	t.Run("different items create separate rows", func(t *testing.T) {
		err := st.RecordOwnership(ctx, RecordOwnershipParams{
			UserID:       user.ID,
			ItemIndex:    43,
			Price:        "1",
			PurchaseDate: firstPurchase,
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, st.(*pgStore).db.Model(&schema.OwnedItem{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestBlockCursor(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	st := initPGTestDB(t)
	ctx := context.Background()

	contractAddress := "0x1111111111111111111111111111111111111111"

	t.Run("missing cursor reads as zero", func(t *testing.T) {
		cursor, err := st.GetBlockCursor(ctx, contractAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("set and get roundtrip", func(t *testing.T) {
		require.NoError(t, st.SetBlockCursor(ctx, contractAddress, 18000123))

		cursor, err := st.GetBlockCursor(ctx, contractAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(18000123), cursor)
	})

	t.Run("set overwrites the previous cursor", func(t *testing.T) {
		require.NoError(t, st.SetBlockCursor(ctx, contractAddress, 18000456))

		cursor, err := st.GetBlockCursor(ctx, contractAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(18000456), cursor)
	})

	t.Run("cursor lookup normalizes the address", func(t *testing.T) {
		cursor, err := st.GetBlockCursor(ctx, "0x1111111111111111111111111111111111111111")
		require.NoError(t, err)
		assert.Equal(t, uint64(18000456), cursor)

		cursor, err = st.GetBlockCursor(ctx, "0X1111111111111111111111111111111111111111")
		require.NoError(t, err)
		assert.Equal(t, uint64(18000456), cursor)
	})
}

// createConcurrencyTestUser inserts a user outside the per-test transaction
// so concurrent connections can all see it. Deleting the user cascades to
// achievements and owned items.
func createConcurrencyTestUser(t *testing.T, walletAddress string) *schema.User {
	user := &schema.User{
		WalletAddress: domain.NormalizeAddress(walletAddress),
		DisplayName:   "test user",
	}
	require.NoError(t, testDB.Create(user).Error)
	t.Cleanup(func() {
		testDB.Where("id = ?", user.ID).Delete(&schema.User{})
	})
	return user
}

func TestRecordAchievement_ConcurrentDuplicates(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	// Runs against testDB directly: the per-test rollback transaction would
	// serialize the writers
	st := NewPGStore(testDB)
	ctx := context.Background()

	user := createConcurrencyTestUser(t, "0xabcd000000000000000000000000000000000010")

	const writers = 8
	errs := make(chan error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokenNumber := strconv.Itoa(100 + i)
			errs <- st.RecordAchievement(ctx, RecordAchievementParams{
				UserID:      user.ID,
				Kind:        domain.AchievementKindBadge,
				Level:       "A1",
				TokenNumber: tokenNumber,
				MetadataURL: "/badges/a1/" + tokenNumber,
				IssueDate:   time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	// No writer sees a uniqueness error: the losers of the race update
	for err := range errs {
		require.NoError(t, err)
	}

	var rows []schema.Achievement
	require.NoError(t, testDB.
		Where("user_id = ? AND kind = ? AND level = ?", user.ID, domain.AchievementKindBadge, "A1").
		Find(&rows).Error)
	require.Len(t, rows, 1)

	// The surviving row belongs to one of the writers
	token, err := strconv.Atoi(rows[0].TokenNumber)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, token, 100)
	assert.Less(t, token, 100+writers)
}

func TestRecordOwnership_ConcurrentDuplicates(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}
	st := NewPGStore(testDB)
	ctx := context.Background()

	user := createConcurrencyTestUser(t, "0xabcd000000000000000000000000000000000011")

	const writers = 8
	errs := make(chan error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.RecordOwnership(ctx, RecordOwnershipParams{
				UserID:       user.ID,
				ItemIndex:    42,
				Price:        strconv.Itoa(1000 + i),
				PurchaseDate: time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, testDB.Model(&schema.OwnedItem{}).
		Where("user_id = ? AND item_index = ?", user.ID, 42).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
