package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// RechargeHandler handles read access to recharge records.
//
// Recharges are append-mostly financial records: there is deliberately no
// update or delete endpoint for them.
type RechargeHandler struct {
	db *gorm.DB
}

// NewRechargeHandler wires a recharge handler with its database dependency.
func NewRechargeHandler(db *gorm.DB) *RechargeHandler {
	return &RechargeHandler{db: db}
}

// rechargeDTO defines the recharge response payload.
type rechargeDTO struct {
	ID            uint64    `json:"id"`
	OwnerUserID   uint64    `json:"owner_user_id"`
	CardID        uint64    `json:"card_id"`
	Kind          string    `json:"kind"`
	AmountCredits int64     `json:"amount_credits"`
	LedgerEntryID uint64    `json:"ledger_entry_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func formatRecharge(recharge *models.Recharge) rechargeDTO {
	return rechargeDTO{
		ID:            recharge.ID,
		OwnerUserID:   recharge.OwnerUserID,
		CardID:        recharge.CardID,
		Kind:          recharge.Kind,
		AmountCredits: recharge.AmountCredits,
		LedgerEntryID: recharge.LedgerEntryID,
		OccurredAt:    recharge.OccurredAt,
	}
}

// List returns recharges, newest first, optionally filtered by card.
func (h *RechargeHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Recharge{})
	if card := strings.TrimSpace(c.Query("card_id")); card != "" {
		cardID, errParse := strconv.ParseUint(card, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card_id"})
			return
		}
		query = query.Where("card_id = ?", cardID)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var recharges []models.Recharge
	if errFind := query.Order("occurred_at DESC, id DESC").Limit(limit).Find(&recharges).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list recharges failed"})
		return
	}
	out := make([]rechargeDTO, 0, len(recharges))
	for i := range recharges {
		out = append(out, formatRecharge(&recharges[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recharges": out})
}

// Get returns a single recharge.
func (h *RechargeHandler) Get(c *gin.Context) {
	rechargeID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recharge id"})
		return
	}
	var recharge models.Recharge
	if errFind := h.db.WithContext(c.Request.Context()).First(&recharge, rechargeID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recharge not found"})
		return
	}
	c.JSON(http.StatusOK, formatRecharge(&recharge))
}
