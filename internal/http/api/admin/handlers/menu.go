package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// menuCategories is the closed set of accepted menu categories.
var menuCategories = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snacks":    true,
}

// MenuHandler handles admin operations for menu items.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler wires a menu handler with its database dependency.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// menuItemDTO defines the menu item response payload.
type menuItemDTO struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	PriceCredits int64     `json:"price_credits"`
	Available    bool      `json:"available"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func formatMenuItem(item *models.MenuItem) menuItemDTO {
	return menuItemDTO{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		PriceCredits: item.PriceCredits,
		Available:    item.Available,
		UpdatedAt:    item.UpdatedAt,
	}
}

// menuItemRequest captures the payload for creating or updating a menu item.
type menuItemRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	PriceCredits int64  `json:"price_credits"`
	Available    *bool  `json:"available"`
}

// Create validates input and persists a new menu item.
func (h *MenuHandler) Create(c *gin.Context) {
	var body menuItemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	category := strings.ToLower(strings.TrimSpace(body.Category))
	if !menuCategories[category] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be breakfast, lunch, dinner or snacks"})
		return
	}
	if body.PriceCredits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_credits must be positive"})
		return
	}

	available := true
	if body.Available != nil {
		available = *body.Available
	}
	item := models.MenuItem{
		Name:         name,
		Category:     category,
		PriceCredits: body.PriceCredits,
		Available:    available,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&item).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create menu item failed"})
		return
	}
	c.JSON(http.StatusCreated, formatMenuItem(&item))
}

// List returns menu items, optionally filtered by category.
func (h *MenuHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.MenuItem{})
	if category := strings.ToLower(strings.TrimSpace(c.Query("category"))); category != "" {
		if !menuCategories[category] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		query = query.Where("category = ?", category)
	}

	var items []models.MenuItem
	if errFind := query.Order("category ASC, name ASC").Find(&items).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list menu failed"})
		return
	}
	out := make([]menuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, formatMenuItem(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// Update changes fields on a menu item.
func (h *MenuHandler) Update(c *gin.Context) {
	itemID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}
	var body menuItemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(body.Name); name != "" {
		updates["name"] = name
	}
	if category := strings.ToLower(strings.TrimSpace(body.Category)); category != "" {
		if !menuCategories[category] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		updates["category"] = category
	}
	if body.PriceCredits != 0 {
		if body.PriceCredits < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price_credits must be positive"})
			return
		}
		updates["price_credits"] = body.PriceCredits
	}
	if body.Available != nil {
		updates["available"] = *body.Available
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.MenuItem{}).
		Where("id = ?", itemID).
		Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update menu item failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete removes a menu item.
func (h *MenuHandler) Delete(c *gin.Context) {
	itemID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}
	result := h.db.WithContext(c.Request.Context()).Delete(&models.MenuItem{}, itemID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete menu item failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
