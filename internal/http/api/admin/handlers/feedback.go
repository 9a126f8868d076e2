package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// FeedbackHandler handles admin operations for member feedback.
type FeedbackHandler struct {
	db *gorm.DB
}

// NewFeedbackHandler wires a feedback handler with its database dependency.
func NewFeedbackHandler(db *gorm.DB) *FeedbackHandler {
	return &FeedbackHandler{db: db}
}

// feedbackDTO defines the feedback response payload.
type feedbackDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func formatFeedback(fb *models.Feedback) feedbackDTO {
	return feedbackDTO{
		ID:        fb.ID,
		UserID:    fb.UserID,
		Subject:   fb.Subject,
		Body:      fb.Body,
		Rating:    fb.Rating,
		CreatedAt: fb.CreatedAt,
	}
}

// List returns feedback entries, newest first.
func (h *FeedbackHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.Feedback
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list feedback failed"})
		return
	}
	out := make([]feedbackDTO, 0, len(entries))
	for i := range entries {
		out = append(out, formatFeedback(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"feedback": out})
}

// Delete removes a feedback entry.
func (h *FeedbackHandler) Delete(c *gin.Context) {
	feedbackID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback id"})
		return
	}
	result := h.db.WithContext(c.Request.Context()).Delete(&models.Feedback{}, feedbackID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete feedback failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "feedback not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
