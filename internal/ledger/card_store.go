package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbutil "github.com/messdesk/messdesk/internal/db"
	"github.com/messdesk/messdesk/internal/models"
)

// CardStore owns reads and state transitions of mess card rows.
//
// The store never opens its own transaction; balance-affecting callers run it
// against a transaction handle via WithTx so the processor alone decides
// commit versus rollback.
type CardStore struct {
	db *gorm.DB
}

// NewCardStore wires a card store with its database dependency.
func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

// WithTx returns a card store bound to the given transaction handle.
func (s *CardStore) WithTx(tx *gorm.DB) *CardStore {
	return &CardStore{db: tx}
}

// Get loads a card by ID.
func (s *CardStore) Get(ctx context.Context, cardID uint64) (*models.MessCard, error) {
	var card models.MessCard
	if errFind := s.db.WithContext(ctx).First(&card, cardID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, &StorageError{Op: "load card", Err: errFind}
	}
	return &card, nil
}

// GetForUpdate loads a card by ID under a row lock. Two concurrent
// read-modify-write sequences against the same card serialize here, so
// neither can overwrite the other's balance update. SQLite has no FOR UPDATE
// and serializes writers on its own, so the clause is skipped there.
func (s *CardStore) GetForUpdate(ctx context.Context, cardID uint64) (*models.MessCard, error) {
	conn := s.db.WithContext(ctx)
	if !dbutil.IsSQLite(s.db) {
		conn = conn.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var card models.MessCard
	if errFind := conn.First(&card, cardID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, &StorageError{Op: "load card", Err: errFind}
	}
	return &card, nil
}

// Create persists a new card after validating the initial balances.
func (s *CardStore) Create(ctx context.Context, ownerUserID uint64, initialBalance, initialTotal int64, status string, expiresAt *time.Time) (uint64, error) {
	if initialBalance < 0 {
		return 0, &ValidationError{Field: "balance", Reason: "must not be negative"}
	}
	if initialBalance > initialTotal {
		return 0, &ValidationError{Field: "balance", Reason: "must not exceed total"}
	}
	if status != models.CardStatusActive && status != models.CardStatusInactive {
		return 0, &ValidationError{Field: "status", Reason: "must be active or inactive"}
	}

	card := models.MessCard{
		OwnerUserID:    ownerUserID,
		Status:         status,
		BalanceCredits: initialBalance,
		TotalCredits:   initialTotal,
		ExpiresAt:      expiresAt,
	}
	if errCreate := s.db.WithContext(ctx).Create(&card).Error; errCreate != nil {
		return 0, &StorageError{Op: "create card", Err: errCreate}
	}
	return card.ID, nil
}

// UpdateBalances writes new balance and total values for a card. It is a pure
// state transition: the caller must already have enforced balance <= total.
func (s *CardStore) UpdateBalances(ctx context.Context, cardID uint64, newBalance, newTotal int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.MessCard{}).
		Where("id = ?", cardID).
		Updates(map[string]any{
			"balance_credits": newBalance,
			"total_credits":   newTotal,
		})
	if result.Error != nil {
		return &StorageError{Op: "update card balances", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateStatus switches a card between active and inactive.
func (s *CardStore) UpdateStatus(ctx context.Context, cardID uint64, status string) error {
	if status != models.CardStatusActive && status != models.CardStatusInactive {
		return &ValidationError{Field: "status", Reason: "must be active or inactive"}
	}
	result := s.db.WithContext(ctx).
		Model(&models.MessCard{}).
		Where("id = ?", cardID).
		Update("status", status)
	if result.Error != nil {
		return &StorageError{Op: "update card status", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateExpiry sets or clears the card expiry date.
func (s *CardStore) UpdateExpiry(ctx context.Context, cardID uint64, expiresAt *time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.MessCard{}).
		Where("id = ?", cardID).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		return &StorageError{Op: "update card expiry", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}
