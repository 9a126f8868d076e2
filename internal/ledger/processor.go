package ledger

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// Processor performs balance-affecting operations as atomic units.
//
// It is the only component that decides commit versus rollback: the card
// store and transaction log run against the processor's transaction handle
// and never commit independently. Any failure mid-operation rolls back every
// step, so no partial card mutation and no orphan ledger or recharge row is
// ever visible.
type Processor struct {
	db    *gorm.DB
	cards *CardStore
	txlog *TransactionLog
}

// NewProcessor wires a processor with its database dependency.
func NewProcessor(db *gorm.DB) *Processor {
	return &Processor{
		db:    db,
		cards: NewCardStore(db),
		txlog: NewTransactionLog(db),
	}
}

// Cards exposes the card store for read paths and plain field mutations.
func (p *Processor) Cards() *CardStore {
	return p.cards
}

// TransactionLog exposes the transaction log for read paths.
func (p *Processor) TransactionLog() *TransactionLog {
	return p.txlog
}

// RechargeInput carries the parameters of one recharge operation.
type RechargeInput struct {
	OwnerUserID uint64    // Owner of the card being recharged.
	CardID      uint64    // Card to recharge.
	Kind        string    // Payment kind tag; validated at the boundary.
	Amount      int64     // Credits to add; must be positive.
	OccurredAt  time.Time // Event time; zero value means now.
}

// RechargeResult reports the records created by a successful recharge.
type RechargeResult struct {
	RechargeID    uint64
	LedgerEntryID uint64
	NewBalance    int64
	NewTotal      int64
}

// Recharge adds credits to a card as one atomic unit: the balance update, the
// ledger entry, the recharge record and the mutual link between entry and
// recharge all commit together or not at all.
//
// A recharge raises balance and total by the same amount, so the gap between
// them never changes. The card row is loaded under a row lock; concurrent
// recharges against the same card serialize instead of losing updates.
func (p *Processor) Recharge(ctx context.Context, caller Identity, in RechargeInput) (*RechargeResult, error) {
	if !caller.Admin {
		return nil, ErrPermissionDenied
	}
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var result RechargeResult
	errTx := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cards := p.cards.WithTx(tx)
		txlog := p.txlog.WithTx(tx)

		card, errLoad := cards.GetForUpdate(ctx, in.CardID)
		if errLoad != nil {
			return errLoad
		}

		newBalance := card.BalanceCredits + in.Amount
		newTotal := card.TotalCredits + in.Amount

		if errUpdate := cards.UpdateBalances(ctx, card.ID, newBalance, newTotal); errUpdate != nil {
			return errUpdate
		}

		entry, errAppend := txlog.Append(ctx, in.OwnerUserID, card.ID, in.Kind, models.LedgerDirectionCredit, in.Amount, occurredAt)
		if errAppend != nil {
			return errAppend
		}

		recharge := models.Recharge{
			OwnerUserID:   in.OwnerUserID,
			CardID:        card.ID,
			Kind:          in.Kind,
			AmountCredits: in.Amount,
			LedgerEntryID: entry.ID,
			OccurredAt:    occurredAt,
		}
		if errCreate := tx.WithContext(ctx).Create(&recharge).Error; errCreate != nil {
			return &StorageError{Op: "create recharge", Err: errCreate}
		}

		if errAttach := txlog.AttachRecharge(ctx, entry.ID, recharge.ID); errAttach != nil {
			return errAttach
		}

		result = RechargeResult{
			RechargeID:    recharge.ID,
			LedgerEntryID: entry.ID,
			NewBalance:    newBalance,
			NewTotal:      newTotal,
		}
		return nil
	})
	if errTx != nil {
		return nil, p.reportFailure(caller, "recharge", in.CardID, errTx)
	}

	log.WithFields(log.Fields{
		"card_id":     in.CardID,
		"recharge_id": result.RechargeID,
		"entry_id":    result.LedgerEntryID,
		"amount":      in.Amount,
		"admin_id":    caller.UserID,
	}).Info("card recharged")
	return &result, nil
}

// DebitInput carries the parameters of one debit operation.
type DebitInput struct {
	CardID     uint64    // Card to debit.
	Amount     int64     // Credits to spend; must be positive.
	OccurredAt time.Time // Event time; zero value means now.
	OrderID    *uint64   // Table order paid by this debit, if any.
}

// DebitResult reports the outcome of a successful debit.
type DebitResult struct {
	LedgerEntryID uint64
	NewBalance    int64
}

// Debit spends credits from a card under the same atomic discipline as
// Recharge. The total is untouched; only the balance decreases, and never
// below zero. The caller must own the card or be an admin, and the card must
// be active.
func (p *Processor) Debit(ctx context.Context, caller Identity, in DebitInput) (*DebitResult, error) {
	if !caller.Authenticated {
		return nil, ErrPermissionDenied
	}
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var result DebitResult
	errTx := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cards := p.cards.WithTx(tx)
		txlog := p.txlog.WithTx(tx)

		card, errLoad := cards.GetForUpdate(ctx, in.CardID)
		if errLoad != nil {
			return errLoad
		}
		if !caller.CanOperateCard(card.OwnerUserID) {
			return ErrPermissionDenied
		}
		if card.Status != models.CardStatusActive {
			return ErrCardInactive
		}
		if card.BalanceCredits < in.Amount {
			return ErrInsufficientBalance
		}

		newBalance := card.BalanceCredits - in.Amount
		if errUpdate := cards.UpdateBalances(ctx, card.ID, newBalance, card.TotalCredits); errUpdate != nil {
			return errUpdate
		}

		entry, errAppend := txlog.Append(ctx, card.OwnerUserID, card.ID, models.KindOrder, models.LedgerDirectionDebit, in.Amount, occurredAt)
		if errAppend != nil {
			return errAppend
		}

		if in.OrderID != nil {
			linkResult := tx.WithContext(ctx).
				Model(&models.TableOrder{}).
				Where("id = ?", *in.OrderID).
				Update("ledger_entry_id", entry.ID)
			if linkResult.Error != nil {
				return &StorageError{Op: "link order to ledger entry", Err: linkResult.Error}
			}
			if linkResult.RowsAffected == 0 {
				return &StorageError{Op: "link order to ledger entry", Err: gorm.ErrRecordNotFound}
			}
		}

		result = DebitResult{LedgerEntryID: entry.ID, NewBalance: newBalance}
		return nil
	})
	if errTx != nil {
		return nil, p.reportFailure(caller, "debit", in.CardID, errTx)
	}

	log.WithFields(log.Fields{
		"card_id":  in.CardID,
		"entry_id": result.LedgerEntryID,
		"amount":   in.Amount,
		"user_id":  caller.UserID,
	}).Info("card debited")
	return &result, nil
}

// reportFailure logs storage causes with full detail and passes domain errors
// through untouched. Raw storage diagnostics never reach the caller.
func (p *Processor) reportFailure(caller Identity, op string, cardID uint64, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		log.WithFields(log.Fields{
			"op":      op,
			"card_id": cardID,
			"user_id": caller.UserID,
		}).WithError(se.Err).Error("ledger operation rolled back")
		return se
	}
	return err
}
