package models

import "time"

// Recharge records one completed top-up of a mess card.
//
// Each recharge references the ledger entry that represents it, and that entry
// references the recharge back. Both links are written inside the same
// transaction, so a persisted recharge never exists without its entry.
type Recharge struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OwnerUserID uint64    `gorm:"not null;index"`    // Owning user.
	CardID      uint64    `gorm:"not null;index"`    // Card that was topped up.
	Card        *MessCard `gorm:"foreignKey:CardID"` // Card record.

	Kind          string `gorm:"type:text;not null"` // Payment kind tag.
	AmountCredits int64  `gorm:"not null"`           // Credits added.

	LedgerEntryID uint64       `gorm:"not null;index"`           // Ledger entry for this recharge.
	LedgerEntry   *LedgerEntry `gorm:"foreignKey:LedgerEntryID"` // Ledger entry record.

	OccurredAt time.Time `gorm:"not null;index"` // When the recharge happened.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
