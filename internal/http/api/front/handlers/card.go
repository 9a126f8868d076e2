package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
)

// CardHandler handles the member's own mess card.
type CardHandler struct {
	db        *gorm.DB
	processor *ledger.Processor
}

// NewCardHandler wires a card handler with its dependencies.
func NewCardHandler(db *gorm.DB, processor *ledger.Processor) *CardHandler {
	return &CardHandler{db: db, processor: processor}
}

// ownCard loads the member's active card, falling back to the most recent one.
func (h *CardHandler) ownCard(c *gin.Context) (*models.MessCard, bool) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	var card models.MessCard
	errFind := h.db.WithContext(c.Request.Context()).
		Where("owner_user_id = ?", userID).
		Order("CASE WHEN status = 'active' THEN 0 ELSE 1 END, id DESC").
		First(&card).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no card on file"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load card failed"})
		return nil, false
	}
	return &card, true
}

// Get returns the member's card balances.
func (h *CardHandler) Get(c *gin.Context) {
	card, ok := h.ownCard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":              card.ID,
		"status":          card.Status,
		"balance_credits": card.BalanceCredits,
		"total_credits":   card.TotalCredits,
		"expires_at":      card.ExpiresAt,
	})
}

// Ledger returns the member's recent card activity, newest first.
func (h *CardHandler) Ledger(c *gin.Context) {
	card, ok := h.ownCard(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, errList := h.processor.TransactionLog().ListForCard(c.Request.Context(), card.ID, limit)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list ledger failed"})
		return
	}

	type entryDTO struct {
		ID            uint64    `json:"id"`
		Kind          string    `json:"kind"`
		Direction     string    `json:"direction"`
		AmountCredits int64     `json:"amount_credits"`
		OccurredAt    time.Time `json:"occurred_at"`
	}
	out := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryDTO{
			ID:            entry.ID,
			Kind:          entry.Kind,
			Direction:     entry.Direction,
			AmountCredits: entry.AmountCredits,
			OccurredAt:    entry.OccurredAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}
