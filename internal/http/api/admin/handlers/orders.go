package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// orderStatuses is the closed set of accepted order statuses.
var orderStatuses = map[string]bool{
	models.OrderStatusPlaced:    true,
	models.OrderStatusServed:    true,
	models.OrderStatusCancelled: true,
}

// OrderHandler handles admin operations for table orders.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler wires an order handler with its database dependency.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

// orderDTO defines the table order response payload.
type orderDTO struct {
	ID            uint64         `json:"id"`
	UserID        uint64         `json:"user_id"`
	TableNo       int            `json:"table_no"`
	Items         datatypes.JSON `json:"items"`
	TotalCredits  int64          `json:"total_credits"`
	Status        string         `json:"status"`
	LedgerEntryID *uint64        `json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func formatOrder(order *models.TableOrder) orderDTO {
	return orderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		TableNo:       order.TableNo,
		Items:         order.Items,
		TotalCredits:  order.TotalCredits,
		Status:        order.Status,
		LedgerEntryID: order.LedgerEntryID,
		CreatedAt:     order.CreatedAt,
	}
}

// List returns orders, newest first, optionally filtered by status or user.
func (h *OrderHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.TableOrder{})
	if status := strings.ToLower(strings.TrimSpace(c.Query("status"))); status != "" {
		if !orderStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		query = query.Where("status = ?", status)
	}
	if user := strings.TrimSpace(c.Query("user_id")); user != "" {
		userID, errParse := strconv.ParseUint(user, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		query = query.Where("user_id = ?", userID)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var orders []models.TableOrder
	if errFind := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list orders failed"})
		return
	}
	out := make([]orderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, formatOrder(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// updateOrderStatusRequest captures the payload for an order status change.
type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order between placed, served and cancelled. Paid
// orders cannot be cancelled here: there is no safe automatic refund, the
// debit stays on the ledger.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var body updateOrderStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status := strings.ToLower(strings.TrimSpace(body.Status))
	if !orderStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	var order models.TableOrder
	if errFind := h.db.WithContext(c.Request.Context()).First(&order, orderID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if status == models.OrderStatusCancelled && order.LedgerEntryID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "paid orders cannot be cancelled"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&order).
		Update("status", status).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update order failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
