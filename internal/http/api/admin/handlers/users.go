package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/messdesk/messdesk/internal/db"
	"github.com/messdesk/messdesk/internal/models"
	"github.com/messdesk/messdesk/internal/security"
)

// UserHandler handles admin operations for mess member accounts.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler wires a user handler with its database dependency.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// userDTO defines the user response payload.
type userDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	RoomNo    string    `json:"room_no"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func formatUser(user *models.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		RoomNo:    user.RoomNo,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}

// createUserRequest captures the payload for creating a user.
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	RoomNo   string `json:"room_no"`
}

// Create validates input and persists a new user account.
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	password := strings.TrimSpace(body.Password)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username"})
		return
	}
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}

	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := models.User{
		Username: username,
		Password: hashed,
		Name:     strings.TrimSpace(body.Name),
		Email:    strings.TrimSpace(body.Email),
		Phone:    strings.TrimSpace(body.Phone),
		RoomNo:   strings.TrimSpace(body.RoomNo),
		Active:   true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}
	c.JSON(http.StatusCreated, formatUser(&user))
}

// List returns users, optionally filtered by a name/username search term.
func (h *UserHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+term+"%")
		query = query.Where(
			h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "username"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern),
		)
	}

	var users []models.User
	if errFind := query.Order("id ASC").Find(&users).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, formatUser(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns a single user.
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, formatUser(&user))
}

// updateUserRequest captures the payload for updating a user.
type updateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	RoomNo *string `json:"room_no"`
	Active *bool   `json:"active"`
}

// Update changes profile fields on a user account.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Email != nil {
		updates["email"] = strings.TrimSpace(*body.Email)
	}
	if body.Phone != nil {
		updates["phone"] = strings.TrimSpace(*body.Phone)
	}
	if body.RoomNo != nil {
		updates["room_no"] = strings.TrimSpace(*body.RoomNo)
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete removes a user account. Deletion fails while any mess card still
// references the user; accounts with history should be deactivated instead.
func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var cardCount int64
	if errCount := h.db.WithContext(c.Request.Context()).
		Model(&models.MessCard{}).
		Where("owner_user_id = ?", userID).
		Count(&cardCount).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	if cardCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "user still owns mess cards"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.User{}, userID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
