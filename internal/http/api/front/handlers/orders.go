package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
)

// OrderHandler handles table orders placed by members. Placing an order
// debits the member's mess card for the order total.
type OrderHandler struct {
	db        *gorm.DB
	processor *ledger.Processor
}

// NewOrderHandler wires an order handler with its dependencies.
func NewOrderHandler(db *gorm.DB, processor *ledger.Processor) *OrderHandler {
	return &OrderHandler{db: db, processor: processor}
}

// orderItem is one line of an order request.
type orderItem struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// createOrderRequest defines the request body for placing an order.
type createOrderRequest struct {
	TableNo int         `json:"table_no"`
	Items   []orderItem `json:"items"`
}

// writeDebitError maps ledger errors from the debit path onto HTTP responses.
func writeDebitError(c *gin.Context, err error) {
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

// Create places an order: it prices the requested items from the current
// menu, records the order, and debits the member's card for the total.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.TableNo <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table_no must be positive"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must contain at least one item"})
		return
	}

	var total int64
	for _, line := range body.Items {
		if line.MenuItemID == 0 || line.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "each item needs a menu_item_id and positive quantity"})
			return
		}
		var item models.MenuItem
		if errFind := h.db.WithContext(c.Request.Context()).First(&item, line.MenuItemID).Error; errFind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown menu item"})
			return
		}
		if !item.Available {
			c.JSON(http.StatusBadRequest, gin.H{"error": "menu item is not available"})
			return
		}
		total += item.PriceCredits * int64(line.Quantity)
	}

	var card models.MessCard
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("owner_user_id = ? AND status = ?", userID, models.CardStatusActive).
		Order("id DESC").
		First(&card).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active card on file"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load card failed"})
		return
	}

	itemsJSON, errMarshal := json.Marshal(body.Items)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode items failed"})
		return
	}
	order := models.TableOrder{
		UserID:       userID,
		TableNo:      body.TableNo,
		Items:        datatypes.JSON(itemsJSON),
		TotalCredits: total,
		Status:       models.OrderStatusPlaced,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&order).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create order failed"})
		return
	}

	result, errDebit := h.processor.Debit(c.Request.Context(), userIdentity(c), ledger.DebitInput{
		CardID:  card.ID,
		Amount:  total,
		OrderID: &order.ID,
	})
	if errDebit != nil {
		// the order was never paid; remove it so it cannot be served
		if errDelete := h.db.WithContext(c.Request.Context()).Delete(&order).Error; errDelete != nil {
			log.WithError(errDelete).WithField("order_id", order.ID).Warn("remove unpaid order failed")
		}
		writeDebitError(c, errDebit)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":        order.ID,
		"total_credits":   total,
		"new_balance":     result.NewBalance,
		"ledger_entry_id": result.LedgerEntryID,
	})
}

// List returns the member's orders, newest first.
func (h *OrderHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var orders []models.TableOrder
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list orders failed"})
		return
	}

	type orderDTO struct {
		ID           uint64         `json:"id"`
		TableNo      int            `json:"table_no"`
		Items        datatypes.JSON `json:"items"`
		TotalCredits int64          `json:"total_credits"`
		Status       string         `json:"status"`
	}
	out := make([]orderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, orderDTO{
			ID:           order.ID,
			TableNo:      order.TableNo,
			Items:        order.Items,
			TotalCredits: order.TotalCredits,
			Status:       order.Status,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}
