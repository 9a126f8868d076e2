package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
)

// rechargeKinds is the closed set of payment kinds accepted for recharges.
var rechargeKinds = map[string]bool{
	models.KindCash: true,
	models.KindCard: true,
	models.KindUPI:  true,
}

// CardHandler handles admin operations for mess cards.
type CardHandler struct {
	db        *gorm.DB
	processor *ledger.Processor
}

// NewCardHandler wires a card handler with its dependencies.
func NewCardHandler(db *gorm.DB, processor *ledger.Processor) *CardHandler {
	return &CardHandler{db: db, processor: processor}
}

// cardDTO defines the card response payload.
type cardDTO struct {
	ID             uint64     `json:"id"`
	OwnerUserID    uint64     `json:"owner_user_id"`
	Status         string     `json:"status"`
	BalanceCredits int64      `json:"balance_credits"`
	TotalCredits   int64      `json:"total_credits"`
	ExpiresAt      *time.Time `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func formatCard(card *models.MessCard) cardDTO {
	return cardDTO{
		ID:             card.ID,
		OwnerUserID:    card.OwnerUserID,
		Status:         card.Status,
		BalanceCredits: card.BalanceCredits,
		TotalCredits:   card.TotalCredits,
		ExpiresAt:      card.ExpiresAt,
		CreatedAt:      card.CreatedAt,
	}
}

// writeLedgerError maps ledger errors onto HTTP responses. Storage causes are
// already logged by the processor; the caller only sees a generic message.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, ledger.ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
	case errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
	case errors.Is(err, ledger.ErrCardInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "card is inactive"})
	case ledger.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// createCardRequest captures the payload for creating a card.
type createCardRequest struct {
	OwnerUserID    uint64  `json:"owner_user_id"`
	BalanceCredits int64   `json:"balance_credits"`
	TotalCredits   int64   `json:"total_credits"`
	Status         string  `json:"status"`
	ExpiresAt      *string `json:"expires_at"`
}

// Create validates input and persists a new mess card.
func (h *CardHandler) Create(c *gin.Context) {
	var body createCardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.OwnerUserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing owner_user_id"})
		return
	}
	var owner models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&owner, body.OwnerUserID).Error; errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner user not found"})
		return
	}

	status := strings.TrimSpace(body.Status)
	if status == "" {
		status = models.CardStatusActive
	}
	expiresAt, okExpiry := parseOptionalTime(body.ExpiresAt)
	if !okExpiry {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at"})
		return
	}

	cardID, errCreate := h.processor.Cards().Create(c.Request.Context(), body.OwnerUserID, body.BalanceCredits, body.TotalCredits, status, expiresAt)
	if errCreate != nil {
		writeLedgerError(c, errCreate)
		return
	}

	card, errGet := h.processor.Cards().Get(c.Request.Context(), cardID)
	if errGet != nil {
		writeLedgerError(c, errGet)
		return
	}
	c.JSON(http.StatusCreated, formatCard(card))
}

// Get returns a single card.
func (h *CardHandler) Get(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	card, errGet := h.processor.Cards().Get(c.Request.Context(), cardID)
	if errGet != nil {
		writeLedgerError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, formatCard(card))
}

// List returns cards, optionally filtered by owner.
func (h *CardHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.MessCard{})
	if owner := strings.TrimSpace(c.Query("owner_user_id")); owner != "" {
		ownerID, errParse := strconv.ParseUint(owner, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner_user_id"})
			return
		}
		query = query.Where("owner_user_id = ?", ownerID)
	}

	var cards []models.MessCard
	if errFind := query.Order("id ASC").Find(&cards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cards failed"})
		return
	}
	out := make([]cardDTO, 0, len(cards))
	for i := range cards {
		out = append(out, formatCard(&cards[i]))
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

// updateStatusRequest captures the payload for a card status change.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus switches a card between active and inactive.
func (h *CardHandler) UpdateStatus(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	var body updateStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errUpdate := h.processor.Cards().UpdateStatus(c.Request.Context(), cardID, strings.TrimSpace(body.Status)); errUpdate != nil {
		writeLedgerError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// updateExpiryRequest captures the payload for a card expiry change.
type updateExpiryRequest struct {
	ExpiresAt *string `json:"expires_at"`
}

// UpdateExpiry sets or clears a card's expiry date.
func (h *CardHandler) UpdateExpiry(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	var body updateExpiryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	expiresAt, okExpiry := parseOptionalTime(body.ExpiresAt)
	if !okExpiry {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at"})
		return
	}
	if errUpdate := h.processor.Cards().UpdateExpiry(c.Request.Context(), cardID, expiresAt); errUpdate != nil {
		writeLedgerError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// rechargeRequest captures the payload for a recharge.
type rechargeRequest struct {
	Kind       string  `json:"kind"`
	Amount     int64   `json:"amount"`
	OccurredAt *string `json:"occurred_at"`
}

// Recharge adds credits to a card through the recharge processor.
func (h *CardHandler) Recharge(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	var body rechargeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	kind := strings.ToLower(strings.TrimSpace(body.Kind))
	if !rechargeKinds[kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be cash, card or upi"})
		return
	}
	occurredAt, okTime := parseOptionalTime(body.OccurredAt)
	if !okTime {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid occurred_at"})
		return
	}

	card, errGet := h.processor.Cards().Get(c.Request.Context(), cardID)
	if errGet != nil {
		writeLedgerError(c, errGet)
		return
	}

	in := ledger.RechargeInput{
		OwnerUserID: card.OwnerUserID,
		CardID:      cardID,
		Kind:        kind,
		Amount:      body.Amount,
	}
	if occurredAt != nil {
		in.OccurredAt = *occurredAt
	}

	result, errRecharge := h.processor.Recharge(c.Request.Context(), adminIdentity(c), in)
	if errRecharge != nil {
		writeLedgerError(c, errRecharge)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recharge_id":     result.RechargeID,
		"ledger_entry_id": result.LedgerEntryID,
		"new_balance":     result.NewBalance,
		"new_total":       result.NewTotal,
	})
}

// debitRequest captures the payload for an admin-initiated debit.
type debitRequest struct {
	Amount     int64   `json:"amount"`
	OccurredAt *string `json:"occurred_at"`
}

// Debit spends credits from a card through the processor.
func (h *CardHandler) Debit(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	var body debitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	occurredAt, okTime := parseOptionalTime(body.OccurredAt)
	if !okTime {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid occurred_at"})
		return
	}

	in := ledger.DebitInput{CardID: cardID, Amount: body.Amount}
	if occurredAt != nil {
		in.OccurredAt = *occurredAt
	}

	result, errDebit := h.processor.Debit(c.Request.Context(), adminIdentity(c), in)
	if errDebit != nil {
		writeLedgerError(c, errDebit)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ledger_entry_id": result.LedgerEntryID,
		"new_balance":     result.NewBalance,
	})
}

// Ledger returns the most recent ledger entries for a card.
func (h *CardHandler) Ledger(c *gin.Context) {
	cardID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	if _, errGet := h.processor.Cards().Get(c.Request.Context(), cardID); errGet != nil {
		writeLedgerError(c, errGet)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, errList := h.processor.TransactionLog().ListForCard(c.Request.Context(), cardID, limit)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list ledger failed"})
		return
	}

	out := make([]ledgerEntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, formatLedgerEntry(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// ledgerEntryDTO defines the ledger entry response payload.
type ledgerEntryDTO struct {
	ID            uint64    `json:"id"`
	OwnerUserID   uint64    `json:"owner_user_id"`
	CardID        uint64    `json:"card_id"`
	Kind          string    `json:"kind"`
	Direction     string    `json:"direction"`
	AmountCredits int64     `json:"amount_credits"`
	OccurredAt    time.Time `json:"occurred_at"`
	RechargeID    *uint64   `json:"recharge_id,omitempty"`
}

func formatLedgerEntry(entry *models.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:            entry.ID,
		OwnerUserID:   entry.OwnerUserID,
		CardID:        entry.CardID,
		Kind:          entry.Kind,
		Direction:     entry.Direction,
		AmountCredits: entry.AmountCredits,
		OccurredAt:    entry.OccurredAt,
		RechargeID:    entry.RechargeID,
	}
}

// parseOptionalTime parses an optional RFC3339 timestamp. The second return
// value is false when the value is present but malformed.
func parseOptionalTime(value *string) (*time.Time, bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, true
	}
	parsed, errParse := time.Parse(time.RFC3339, strings.TrimSpace(*value))
	if errParse != nil {
		return nil, false
	}
	utc := parsed.UTC()
	return &utc, true
}
