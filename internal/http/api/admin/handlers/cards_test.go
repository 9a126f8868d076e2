package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	dbutil "github.com/messdesk/messdesk/internal/db"
	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
)

func setupCardsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cards_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func setupCardsRouter(t *testing.T, conn *gorm.DB, adminID uint64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewCardHandler(conn, ledger.NewProcessor(conn))
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if adminID != 0 {
			c.Set("adminID", adminID)
		}
		c.Next()
	})
	router.POST("/v0/admin/cards/:id/recharge", handler.Recharge)
	router.POST("/v0/admin/cards/:id/debit", handler.Debit)
	router.GET("/v0/admin/cards/:id/ledger", handler.Ledger)
	return router
}

func seedCard(t *testing.T, conn *gorm.DB, balance, total int64) uint64 {
	t.Helper()
	card := models.MessCard{
		OwnerUserID:    7,
		Status:         models.CardStatusActive,
		BalanceCredits: balance,
		TotalCredits:   total,
	}
	if errCreate := conn.Create(&card).Error; errCreate != nil {
		t.Fatalf("create card: %v", errCreate)
	}
	return card.ID
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		t.Fatalf("marshal payload: %v", errMarshal)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRechargeEndpointSuccess(t *testing.T) {
	conn := setupCardsDB(t)
	cardID := seedCard(t, conn, 500, 1000)
	router := setupCardsRouter(t, conn, 1)

	w := postJSON(t, router, fmt.Sprintf("/v0/admin/cards/%d/recharge", cardID), gin.H{
		"kind":   "cash",
		"amount": 250,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		RechargeID    uint64 `json:"recharge_id"`
		LedgerEntryID uint64 `json:"ledger_entry_id"`
		NewBalance    int64  `json:"new_balance"`
		NewTotal      int64  `json:"new_total"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.NewBalance != 750 || resp.NewTotal != 1250 {
		t.Fatalf("expected 750/1250, got %d/%d", resp.NewBalance, resp.NewTotal)
	}
	if resp.RechargeID == 0 || resp.LedgerEntryID == 0 {
		t.Fatalf("missing record ids in response: %+v", resp)
	}
}

func TestRechargeEndpointRejectsBadInput(t *testing.T) {
	conn := setupCardsDB(t)
	cardID := seedCard(t, conn, 500, 1000)
	router := setupCardsRouter(t, conn, 1)
	path := fmt.Sprintf("/v0/admin/cards/%d/recharge", cardID)

	cases := []struct {
		name    string
		payload gin.H
	}{
		{name: "unknown kind", payload: gin.H{"kind": "cheque", "amount": 100}},
		{name: "zero amount", payload: gin.H{"kind": "cash", "amount": 0}},
		{name: "negative amount", payload: gin.H{"kind": "cash", "amount": -10}},
		{name: "bad occurred_at", payload: gin.H{"kind": "cash", "amount": 100, "occurred_at": "yesterday"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, path, tc.payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	var card models.MessCard
	if errFind := conn.First(&card, cardID).Error; errFind != nil {
		t.Fatalf("load card: %v", errFind)
	}
	if card.BalanceCredits != 500 || card.TotalCredits != 1000 {
		t.Fatalf("card changed to %d/%d", card.BalanceCredits, card.TotalCredits)
	}
}

func TestRechargeEndpointUnknownCard(t *testing.T) {
	conn := setupCardsDB(t)
	router := setupCardsRouter(t, conn, 1)

	w := postJSON(t, router, "/v0/admin/cards/9999/recharge", gin.H{"kind": "cash", "amount": 100})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRechargeEndpointWithoutAdmin(t *testing.T) {
	conn := setupCardsDB(t)
	cardID := seedCard(t, conn, 500, 1000)
	router := setupCardsRouter(t, conn, 0)

	w := postJSON(t, router, fmt.Sprintf("/v0/admin/cards/%d/recharge", cardID), gin.H{"kind": "cash", "amount": 100})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDebitEndpointOverdraft(t *testing.T) {
	conn := setupCardsDB(t)
	cardID := seedCard(t, conn, 50, 1000)
	router := setupCardsRouter(t, conn, 1)

	w := postJSON(t, router, fmt.Sprintf("/v0/admin/cards/%d/debit", cardID), gin.H{"amount": 51})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerEndpointReturnsEntries(t *testing.T) {
	conn := setupCardsDB(t)
	cardID := seedCard(t, conn, 0, 0)
	router := setupCardsRouter(t, conn, 1)

	if w := postJSON(t, router, fmt.Sprintf("/v0/admin/cards/%d/recharge", cardID), gin.H{"kind": "upi", "amount": 300}); w.Code != http.StatusOK {
		t.Fatalf("seed recharge: status %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v0/admin/cards/%d/ledger", cardID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Entries []struct {
			Direction     string  `json:"direction"`
			Kind          string  `json:"kind"`
			AmountCredits int64   `json:"amount_credits"`
			RechargeID    *uint64 `json:"recharge_id"`
		} `json:"entries"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}
	entry := resp.Entries[0]
	if entry.Direction != models.LedgerDirectionCredit || entry.Kind != models.KindUPI || entry.AmountCredits != 300 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.RechargeID == nil {
		t.Fatalf("entry missing recharge reference")
	}
}
