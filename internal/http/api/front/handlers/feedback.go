package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// FeedbackHandler handles feedback submission by members.
type FeedbackHandler struct {
	db *gorm.DB
}

// NewFeedbackHandler wires a feedback handler with its database dependency.
func NewFeedbackHandler(db *gorm.DB) *FeedbackHandler {
	return &FeedbackHandler{db: db}
}

// createFeedbackRequest defines the request body for submitting feedback.
type createFeedbackRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Rating  int    `json:"rating"`
}

// Create stores one feedback entry from the authenticated member.
func (h *FeedbackHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createFeedbackRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	subject := strings.TrimSpace(body.Subject)
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing subject"})
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}

	fb := models.Feedback{
		UserID:  userID,
		Subject: subject,
		Body:    strings.TrimSpace(body.Body),
		Rating:  body.Rating,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&fb).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save feedback failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": fb.ID})
}
