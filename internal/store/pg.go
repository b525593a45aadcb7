package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults: 20 open, 5 idle,
// 5m max lifetime, 10m max idle time.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	// database/sql treats MaxIdleConns above MaxOpenConns as wasted
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// FindUserByAddress retrieves a user by wallet address (case-insensitive)
func (s *pgStore) FindUserByAddress(ctx context.Context, address string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", domain.NormalizeAddress(address)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by address: %w", err)
	}

	return &user, nil
}

// RecordAchievement upserts an achievement keyed by (user, kind, level).
// ON CONFLICT DO UPDATE makes the concurrent-duplicate case a plain update:
// the losing writer of a race never sees a uniqueness error, it refreshes
// the existing row instead (last mint wins).
func (s *pgStore) RecordAchievement(ctx context.Context, params RecordAchievementParams) error {
	achievement := schema.Achievement{
		UserID:      params.UserID,
		Kind:        params.Kind,
		Level:       params.Level,
		TokenNumber: params.TokenNumber,
		MetadataURL: params.MetadataURL,
		IssueDate:   params.IssueDate,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_number", "metadata_url", "issue_date"}),
	}).Create(&achievement).Error
	if err != nil {
		return fmt.Errorf("failed to upsert achievement: %w", err)
	}

	return nil
}

// RecordOwnership inserts an owned item keyed by (user, item index).
// ON CONFLICT DO NOTHING: ownership is not refreshed on redelivery, the
// original purchase date stands.
func (s *pgStore) RecordOwnership(ctx context.Context, params RecordOwnershipParams) error {
	item := schema.OwnedItem{
		UserID:       params.UserID,
		ItemIndex:    params.ItemIndex,
		Price:        params.Price,
		PurchaseDate: params.PurchaseDate,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_index"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to record ownership: %w", err)
	}

	return nil
}

// GetBlockCursor retrieves the last processed block number for a contract
func (s *pgStore) GetBlockCursor(ctx context.Context, contractAddress string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", domain.NormalizeAddress(contractAddress))

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a contract
func (s *pgStore) SetBlockCursor(ctx context.Context, contractAddress string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", domain.NormalizeAddress(contractAddress)),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
