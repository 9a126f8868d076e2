package models

import "time"

// Mess card status values.
const (
	// CardStatusActive marks a card that can be recharged and spent.
	CardStatusActive = "active"
	// CardStatusInactive marks a card that is blocked for all operations.
	CardStatusInactive = "inactive"
)

// MessCard represents a stored-value card owned by a mess member.
//
// BalanceCredits and TotalCredits are integral credits so balance arithmetic is
// exact. BalanceCredits never exceeds TotalCredits; the ledger package enforces
// that before every write.
type MessCard struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OwnerUserID uint64 `gorm:"not null;index"`            // Owning user.
	OwnerUser   *User  `gorm:"foreignKey:OwnerUserID"`    // Owning user record.
	Status      string `gorm:"type:text;not null;default:active"` // active or inactive.

	BalanceCredits int64 `gorm:"not null;default:0"` // Currently usable credits.
	TotalCredits   int64 `gorm:"not null;default:0"` // Cumulative credits ever loaded.

	ExpiresAt *time.Time // Expiry date, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
