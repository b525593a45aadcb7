package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/store/schema"
)

// RecordAchievementParams describes one achievement upsert
type RecordAchievementParams struct {
	UserID      uuid.UUID
	Kind        domain.AchievementKind
	Level       string
	TokenNumber string
	MetadataURL string
	IssueDate   time.Time
}

// RecordOwnershipParams describes one avatar ownership insert
type RecordOwnershipParams struct {
	UserID       uuid.UUID
	ItemIndex    uint64
	Price        string
	PurchaseDate time.Time
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// FindUserByAddress retrieves a user by wallet address (case-insensitive).
	// Returns (nil, nil) when no user matches.
	FindUserByAddress(ctx context.Context, address string) (*schema.User, error)
	// RecordAchievement upserts an achievement keyed by (user, kind, level).
	// A second mint for the same key refreshes token number, metadata URL
	// and issue date rather than creating a duplicate row.
	RecordAchievement(ctx context.Context, params RecordAchievementParams) error
	// RecordOwnership inserts an owned item keyed by (user, item index).
	// If the pair already exists the call is a no-op.
	RecordOwnership(ctx context.Context, params RecordOwnershipParams) error
	// GetBlockCursor retrieves the last processed block number for a contract
	GetBlockCursor(ctx context.Context, contractAddress string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a contract
	SetBlockCursor(ctx context.Context, contractAddress string, blockNumber uint64) error
}
