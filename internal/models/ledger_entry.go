package models

import "time"

// Ledger entry directions.
const (
	// LedgerDirectionCredit marks an entry that added credits to a card.
	LedgerDirectionCredit = "credit"
	// LedgerDirectionDebit marks an entry that spent credits from a card.
	LedgerDirectionDebit = "debit"
)

// Payment kinds accepted for recharges. Debit entries carry KindOrder.
const (
	KindCash  = "cash"
	KindCard  = "card"
	KindUPI   = "upi"
	KindOrder = "order"
)

// LedgerEntry is an append-only record of one balance-affecting event.
//
// Entries are never updated after creation except to attach RechargeID once the
// recharge row that caused them exists.
type LedgerEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OwnerUserID uint64    `gorm:"not null;index"`         // Owning user.
	CardID      uint64    `gorm:"not null;index"`         // Card the entry applies to.
	Card        *MessCard `gorm:"foreignKey:CardID"`      // Card record.

	Kind          string    `gorm:"type:text;not null"` // Payment kind tag.
	Direction     string    `gorm:"type:text;not null"` // credit or debit.
	AmountCredits int64     `gorm:"not null"`           // Credits moved by this entry.
	OccurredAt    time.Time `gorm:"not null;index"`     // When the event happened.

	RechargeID *uint64 `gorm:"index"` // Back-reference to the causing recharge, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
