package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// MenuHandler handles menu listing for members.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler wires a menu handler with its database dependency.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// List returns available menu items, optionally filtered by category.
func (h *MenuHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		Model(&models.MenuItem{}).
		Where("available = ?", true)
	if category := strings.ToLower(strings.TrimSpace(c.Query("category"))); category != "" {
		query = query.Where("category = ?", category)
	}

	var items []models.MenuItem
	if errFind := query.Order("category ASC, name ASC").Find(&items).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list menu failed"})
		return
	}

	type itemDTO struct {
		ID           uint64 `json:"id"`
		Name         string `json:"name"`
		Category     string `json:"category"`
		PriceCredits int64  `json:"price_credits"`
	}
	out := make([]itemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemDTO{
			ID:           item.ID,
			Name:         item.Name,
			Category:     item.Category,
			PriceCredits: item.PriceCredits,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
