package models

import (
	"time"

	"gorm.io/datatypes"
)

// Table order status values.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusServed    = "served"
	OrderStatusCancelled = "cancelled"
)

// TableOrder represents a seating order paid from a mess card.
type TableOrder struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64 `gorm:"not null;index"`        // Ordering user.
	User    *User  `gorm:"foreignKey:UserID"`     // Ordering user record.
	TableNo int    `gorm:"not null"`              // Seating table number.

	Items        datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Ordered items as [{menu_item_id, quantity}].
	TotalCredits int64          `gorm:"not null"`                         // Credits debited for the order.

	Status string `gorm:"type:text;not null;default:placed"` // placed, served or cancelled.

	LedgerEntryID *uint64      `gorm:"index"`                    // Debit ledger entry, once paid.
	LedgerEntry   *LedgerEntry `gorm:"foreignKey:LedgerEntryID"` // Debit ledger entry record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
