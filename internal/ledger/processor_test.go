package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbutil "github.com/messdesk/messdesk/internal/db"
	"github.com/messdesk/messdesk/internal/models"
)

func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func createTestCard(t *testing.T, conn *gorm.DB, owner uint64, balance, total int64, status string) uint64 {
	t.Helper()
	card := models.MessCard{
		OwnerUserID:    owner,
		Status:         status,
		BalanceCredits: balance,
		TotalCredits:   total,
	}
	if errCreate := conn.Create(&card).Error; errCreate != nil {
		t.Fatalf("create card: %v", errCreate)
	}
	return card.ID
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if errCount := conn.Model(model).Count(&count).Error; errCount != nil {
		t.Fatalf("count rows: %v", errCount)
	}
	return count
}

func loadCard(t *testing.T, conn *gorm.DB, cardID uint64) models.MessCard {
	t.Helper()
	var card models.MessCard
	if errFind := conn.First(&card, cardID).Error; errFind != nil {
		t.Fatalf("load card: %v", errFind)
	}
	return card
}

var adminCaller = Identity{UserID: 1, Authenticated: true, Admin: true}

func TestRechargeAddsToBalanceAndTotal(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	result, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
		OwnerUserID: 7,
		CardID:      cardID,
		Kind:        models.KindCash,
		Amount:      250,
	})
	if errRecharge != nil {
		t.Fatalf("recharge: %v", errRecharge)
	}
	if result.NewBalance != 750 || result.NewTotal != 1250 {
		t.Fatalf("expected 750/1250, got %d/%d", result.NewBalance, result.NewTotal)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 750 || card.TotalCredits != 1250 {
		t.Fatalf("persisted card has %d/%d, want 750/1250", card.BalanceCredits, card.TotalCredits)
	}
	if card.BalanceCredits > card.TotalCredits {
		t.Fatalf("balance %d exceeds total %d", card.BalanceCredits, card.TotalCredits)
	}
}

func TestRechargeLinksEntryAndRecharge(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 0, 0, models.CardStatusActive)
	processor := NewProcessor(conn)
	occurredAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	result, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
		OwnerUserID: 7,
		CardID:      cardID,
		Kind:        models.KindUPI,
		Amount:      300,
		OccurredAt:  occurredAt,
	})
	if errRecharge != nil {
		t.Fatalf("recharge: %v", errRecharge)
	}

	var recharge models.Recharge
	if errFind := conn.First(&recharge, result.RechargeID).Error; errFind != nil {
		t.Fatalf("load recharge: %v", errFind)
	}
	if recharge.LedgerEntryID != result.LedgerEntryID {
		t.Fatalf("recharge points at entry %d, want %d", recharge.LedgerEntryID, result.LedgerEntryID)
	}
	if recharge.Kind != models.KindUPI || recharge.AmountCredits != 300 {
		t.Fatalf("unexpected recharge row: %+v", recharge)
	}

	var entry models.LedgerEntry
	if errFind := conn.First(&entry, result.LedgerEntryID).Error; errFind != nil {
		t.Fatalf("load entry: %v", errFind)
	}
	if entry.RechargeID == nil || *entry.RechargeID != recharge.ID {
		t.Fatalf("entry does not point back at recharge %d: %+v", recharge.ID, entry.RechargeID)
	}
	if entry.Direction != models.LedgerDirectionCredit || entry.AmountCredits != 300 {
		t.Fatalf("unexpected entry row: %+v", entry)
	}
	if !entry.OccurredAt.Equal(occurredAt) {
		t.Fatalf("entry occurred_at %v, want %v", entry.OccurredAt, occurredAt)
	}

	if n := countRows(t, conn, &models.LedgerEntry{}); n != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", n)
	}
	if n := countRows(t, conn, &models.Recharge{}); n != 1 {
		t.Fatalf("expected 1 recharge, got %d", n)
	}
}

func TestRechargeRejectsNonPositiveAmount(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	for _, amount := range []int64{0, -5} {
		_, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
			OwnerUserID: 7,
			CardID:      cardID,
			Kind:        models.KindCash,
			Amount:      amount,
		})
		if !IsValidation(errRecharge) {
			t.Fatalf("amount %d: expected validation error, got %v", amount, errRecharge)
		}
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 500 || card.TotalCredits != 1000 {
		t.Fatalf("card changed to %d/%d", card.BalanceCredits, card.TotalCredits)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("expected no ledger entries, got %d", n)
	}
}

func TestRechargeRequiresAdmin(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	user := Identity{UserID: 7, Authenticated: true, Admin: false}
	_, errRecharge := processor.Recharge(context.Background(), user, RechargeInput{
		OwnerUserID: 7,
		CardID:      cardID,
		Kind:        models.KindCash,
		Amount:      100,
	})
	if !errors.Is(errRecharge, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", errRecharge)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 500 {
		t.Fatalf("card balance changed to %d", card.BalanceCredits)
	}
	if n := countRows(t, conn, &models.Recharge{}); n != 0 {
		t.Fatalf("expected no recharges, got %d", n)
	}
}

func TestRechargeUnknownCard(t *testing.T) {
	conn := setupLedgerDB(t)
	processor := NewProcessor(conn)

	_, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
		OwnerUserID: 7,
		CardID:      9999,
		Kind:        models.KindCash,
		Amount:      100,
	})
	if !errors.Is(errRecharge, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", errRecharge)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("expected no ledger entries, got %d", n)
	}
}

// failTableCreate registers a create callback that fails for one table,
// simulating a mid-transaction storage fault.
func failTableCreate(t *testing.T, conn *gorm.DB, table string) {
	t.Helper()
	name := "fail_create_" + table
	errRegister := conn.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(errors.New("injected create failure"))
		}
	})
	if errRegister != nil {
		t.Fatalf("register callback: %v", errRegister)
	}
	t.Cleanup(func() {
		if errRemove := conn.Callback().Create().Remove(name); errRemove != nil {
			t.Fatalf("remove callback: %v", errRemove)
		}
	})
}

func TestRechargeRollsBackWhenRechargeCreateFails(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)
	failTableCreate(t, conn, "recharges")

	_, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
		OwnerUserID: 7,
		CardID:      cardID,
		Kind:        models.KindCash,
		Amount:      250,
	})
	if !IsStorage(errRecharge) {
		t.Fatalf("expected storage error, got %v", errRecharge)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 500 || card.TotalCredits != 1000 {
		t.Fatalf("card not rolled back: %d/%d", card.BalanceCredits, card.TotalCredits)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("orphan ledger entries after rollback: %d", n)
	}
	if n := countRows(t, conn, &models.Recharge{}); n != 0 {
		t.Fatalf("orphan recharges after rollback: %d", n)
	}
}

func TestRechargeRollsBackWhenEntryAppendFails(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)
	failTableCreate(t, conn, "ledger_entries")

	_, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
		OwnerUserID: 7,
		CardID:      cardID,
		Kind:        models.KindCash,
		Amount:      250,
	})
	if !IsStorage(errRecharge) {
		t.Fatalf("expected storage error, got %v", errRecharge)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 500 || card.TotalCredits != 1000 {
		t.Fatalf("card not rolled back: %d/%d", card.BalanceCredits, card.TotalCredits)
	}
	if n := countRows(t, conn, &models.Recharge{}); n != 0 {
		t.Fatalf("orphan recharges after rollback: %d", n)
	}
}

func TestConcurrentRechargesKeepArithmetic(t *testing.T) {
	conn := setupLedgerDB(t)
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("unwrap db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)

	cardID := createTestCard(t, conn, 7, 100, 100, models.CardStatusActive)
	processor := NewProcessor(conn)

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errRecharge := processor.Recharge(context.Background(), adminCaller, RechargeInput{
				OwnerUserID: 7,
				CardID:      cardID,
				Kind:        models.KindCash,
				Amount:      25,
			})
			if errRecharge != nil {
				errCh <- errRecharge
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for errRecharge := range errCh {
		t.Fatalf("recharge: %v", errRecharge)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 300 || card.TotalCredits != 300 {
		t.Fatalf("expected 300/300 after %d recharges, got %d/%d", workers, card.BalanceCredits, card.TotalCredits)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != workers {
		t.Fatalf("expected %d ledger entries, got %d", workers, n)
	}
}

func TestDebitSpendsBalanceOnly(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 750, 1250, models.CardStatusActive)
	processor := NewProcessor(conn)

	owner := Identity{UserID: 7, Authenticated: true}
	result, errDebit := processor.Debit(context.Background(), owner, DebitInput{CardID: cardID, Amount: 100})
	if errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}
	if result.NewBalance != 650 {
		t.Fatalf("expected balance 650, got %d", result.NewBalance)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 650 || card.TotalCredits != 1250 {
		t.Fatalf("persisted card has %d/%d, want 650/1250", card.BalanceCredits, card.TotalCredits)
	}

	var entry models.LedgerEntry
	if errFind := conn.First(&entry, result.LedgerEntryID).Error; errFind != nil {
		t.Fatalf("load entry: %v", errFind)
	}
	if entry.Direction != models.LedgerDirectionDebit || entry.Kind != models.KindOrder {
		t.Fatalf("unexpected entry row: %+v", entry)
	}
	if entry.RechargeID != nil {
		t.Fatalf("debit entry carries a recharge reference: %d", *entry.RechargeID)
	}
}

func TestDebitRejectsOverdraft(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 50, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	owner := Identity{UserID: 7, Authenticated: true}
	_, errDebit := processor.Debit(context.Background(), owner, DebitInput{CardID: cardID, Amount: 51})
	if !errors.Is(errDebit, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", errDebit)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 50 {
		t.Fatalf("card balance changed to %d", card.BalanceCredits)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("expected no ledger entries, got %d", n)
	}
}

func TestDebitRejectsInactiveCard(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusInactive)
	processor := NewProcessor(conn)

	owner := Identity{UserID: 7, Authenticated: true}
	_, errDebit := processor.Debit(context.Background(), owner, DebitInput{CardID: cardID, Amount: 100})
	if !errors.Is(errDebit, ErrCardInactive) {
		t.Fatalf("expected ErrCardInactive, got %v", errDebit)
	}
}

func TestDebitPermissions(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	_, errAnon := processor.Debit(context.Background(), Identity{}, DebitInput{CardID: cardID, Amount: 10})
	if !errors.Is(errAnon, ErrPermissionDenied) {
		t.Fatalf("anonymous: expected ErrPermissionDenied, got %v", errAnon)
	}

	stranger := Identity{UserID: 8, Authenticated: true}
	_, errStranger := processor.Debit(context.Background(), stranger, DebitInput{CardID: cardID, Amount: 10})
	if !errors.Is(errStranger, ErrPermissionDenied) {
		t.Fatalf("stranger: expected ErrPermissionDenied, got %v", errStranger)
	}

	if _, errAdmin := processor.Debit(context.Background(), adminCaller, DebitInput{CardID: cardID, Amount: 10}); errAdmin != nil {
		t.Fatalf("admin debit: %v", errAdmin)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 490 {
		t.Fatalf("expected balance 490 after one debit, got %d", card.BalanceCredits)
	}
}

func TestDebitLinksTableOrder(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	order := models.TableOrder{
		UserID:       7,
		TableNo:      3,
		Items:        datatypes.JSON([]byte(`[]`)),
		TotalCredits: 120,
		Status:       models.OrderStatusPlaced,
	}
	if errCreate := conn.Create(&order).Error; errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	owner := Identity{UserID: 7, Authenticated: true}
	result, errDebit := processor.Debit(context.Background(), owner, DebitInput{CardID: cardID, Amount: 120, OrderID: &order.ID})
	if errDebit != nil {
		t.Fatalf("debit: %v", errDebit)
	}

	var stored models.TableOrder
	if errFind := conn.First(&stored, order.ID).Error; errFind != nil {
		t.Fatalf("load order: %v", errFind)
	}
	if stored.LedgerEntryID == nil || *stored.LedgerEntryID != result.LedgerEntryID {
		t.Fatalf("order not linked to ledger entry %d: %+v", result.LedgerEntryID, stored.LedgerEntryID)
	}
}

func TestDebitRollsBackWhenOrderMissing(t *testing.T) {
	conn := setupLedgerDB(t)
	cardID := createTestCard(t, conn, 7, 500, 1000, models.CardStatusActive)
	processor := NewProcessor(conn)

	missing := uint64(9999)
	owner := Identity{UserID: 7, Authenticated: true}
	_, errDebit := processor.Debit(context.Background(), owner, DebitInput{CardID: cardID, Amount: 100, OrderID: &missing})
	if !IsStorage(errDebit) {
		t.Fatalf("expected storage error, got %v", errDebit)
	}

	card := loadCard(t, conn, cardID)
	if card.BalanceCredits != 500 {
		t.Fatalf("card not rolled back: %d", card.BalanceCredits)
	}
	if n := countRows(t, conn, &models.LedgerEntry{}); n != 0 {
		t.Fatalf("orphan ledger entries after rollback: %d", n)
	}
}
