package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// TransactionLog appends and reads ledger entries.
//
// Entries are append-only: once created, only the recharge back-reference may
// be set, and exactly once, by the processor that created the entry.
type TransactionLog struct {
	db *gorm.DB
}

// NewTransactionLog wires a transaction log with its database dependency.
func NewTransactionLog(db *gorm.DB) *TransactionLog {
	return &TransactionLog{db: db}
}

// WithTx returns a transaction log bound to the given transaction handle.
func (l *TransactionLog) WithTx(tx *gorm.DB) *TransactionLog {
	return &TransactionLog{db: tx}
}

// Append creates a new ledger entry with no recharge reference and returns it.
func (l *TransactionLog) Append(ctx context.Context, ownerUserID, cardID uint64, kind, direction string, amount int64, occurredAt time.Time) (*models.LedgerEntry, error) {
	entry := models.LedgerEntry{
		OwnerUserID:   ownerUserID,
		CardID:        cardID,
		Kind:          kind,
		Direction:     direction,
		AmountCredits: amount,
		OccurredAt:    occurredAt,
	}
	if errCreate := l.db.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		return nil, &StorageError{Op: "append ledger entry", Err: errCreate}
	}
	return &entry, nil
}

// AttachRecharge sets the recharge back-reference on an existing entry.
func (l *TransactionLog) AttachRecharge(ctx context.Context, entryID, rechargeID uint64) error {
	result := l.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Update("recharge_id", rechargeID)
	if result.Error != nil {
		return &StorageError{Op: "attach recharge reference", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &StorageError{Op: "attach recharge reference", Err: gorm.ErrRecordNotFound}
	}
	return nil
}

// Find loads a ledger entry by ID.
func (l *TransactionLog) Find(ctx context.Context, entryID uint64) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if errFind := l.db.WithContext(ctx).First(&entry, entryID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, errFind
		}
		return nil, &StorageError{Op: "load ledger entry", Err: errFind}
	}
	return &entry, nil
}

// ListForCard returns the most recent entries for a card, newest first.
func (l *TransactionLog) ListForCard(ctx context.Context, cardID uint64, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.LedgerEntry
	if errFind := l.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; errFind != nil {
		return nil, &StorageError{Op: "list ledger entries", Err: errFind}
	}
	return entries, nil
}
