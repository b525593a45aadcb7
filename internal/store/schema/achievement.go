package schema

import (
	"time"

	"github.com/google/uuid"

	"github.com/polyglot-labs/award-watcher/internal/domain"
)

// Achievement represents the achievements table - badges and certificates
// awarded by on-chain mints. A user holds at most one achievement of each
// kind per level; re-mints update the existing row (last mint wins).
type Achievement struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the awarded user
	UserID uuid.UUID `gorm:"column:user_id;not null;type:uuid;uniqueIndex:idx_achievements_user_kind_level,priority:1"`
	// Kind is the achievement kind (badge, certificate)
	Kind domain.AchievementKind `gorm:"column:kind;not null;type:text;uniqueIndex:idx_achievements_user_kind_level,priority:2"`
	// Level is the achievement level (e.g. "A1", "B2")
	Level string `gorm:"column:level;not null;type:text;uniqueIndex:idx_achievements_user_kind_level,priority:3"`
	// TokenNumber is the on-chain token ID (string to support very large numbers)
	TokenNumber string `gorm:"column:token_number;not null;type:text"`
	// MetadataURL is the derived metadata path /{kind}s/{level}/{tokenNumber}
	MetadataURL string `gorm:"column:metadata_url;not null;type:text"`
	// IssueDate is when the achievement was (last) minted
	IssueDate time.Time `gorm:"column:issue_date;not null;type:timestamptz"`
	// CreatedAt is the timestamp when this record was first reconciled
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Achievement model
func (Achievement) TableName() string {
	return "achievements"
}
