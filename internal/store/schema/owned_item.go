package schema

import (
	"time"

	"github.com/google/uuid"
)

// OwnedItem represents the owned_items table - avatar items bought on the
// marketplace. The (user_id, item_index) pair is unique; redelivered
// purchase events are no-ops and never refresh purchase_date.
type OwnedItem struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID uuid.UUID `gorm:"column:user_id;not null;type:uuid;uniqueIndex:idx_owned_items_user_item,priority:1"`
	// ItemIndex is the marketplace item identifier
	ItemIndex uint64 `gorm:"column:item_index;not null;uniqueIndex:idx_owned_items_user_item,priority:2"`
	// Price is the purchase price in wei (string to support up to 78 digits)
	Price string `gorm:"column:price;not null;type:numeric(78,0)"`
	// PurchaseDate is when the item was first purchased
	PurchaseDate time.Time `gorm:"column:purchase_date;not null;type:timestamptz"`
	// CreatedAt is the timestamp when this record was reconciled
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the OwnedItem model
func (OwnedItem) TableName() string {
	return "owned_items"
}
