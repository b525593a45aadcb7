package schema

import (
	"time"

	"github.com/google/uuid"
)

// User represents the users table. User records are owned by the sign-up
// flow; the reconciliation engine only reads them to attribute on-chain
// events by wallet address.
type User struct {
	// ID is the platform user identifier
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	// WalletAddress is the user's blockchain address, stored lower-cased for case-insensitive lookup
	WalletAddress string `gorm:"column:wallet_address;not null;uniqueIndex;type:text"`
	// DisplayName is the user-facing name shown on leaderboards
	DisplayName string `gorm:"column:display_name;type:text"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Achievements []Achievement `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OwnedItems   []OwnedItem   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
