package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/messdesk/messdesk/internal/models"
)

// SettingHandler handles canteen-wide key/value settings, e.g. mess timings
// and notice text shown to members.
type SettingHandler struct {
	db *gorm.DB
}

// NewSettingHandler wires a setting handler with its database dependency.
func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{db: db}
}

// List returns all settings as a key/value map.
func (h *SettingHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}

	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// putSettingRequest captures the payload for writing one setting.
type putSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Put creates or replaces one setting.
func (h *SettingHandler) Put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}
	var body putSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Value) == 0 || !json.Valid(body.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be valid json"})
		return
	}

	setting := models.Setting{Key: key, Value: body.Value}
	if errSave := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save setting failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
