package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/config"
	"github.com/messdesk/messdesk/internal/http/api/front/handlers"
	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
	"github.com/messdesk/messdesk/internal/ratelimit"
	"github.com/messdesk/messdesk/internal/security"
)

// RegisterFrontRoutes registers public and authenticated member routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, processor *ledger.Processor, limiter *ratelimit.LoginLimiter) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(db, cfg, limiter)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(userAuthMiddleware(db, cfg.JWT.Secret))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile/password", profileHandler.ChangePassword)

	cardHandler := handlers.NewCardHandler(db, processor)
	authed.GET("/card", cardHandler.Get)
	authed.GET("/card/ledger", cardHandler.Ledger)

	menuHandler := handlers.NewMenuHandler(db)
	authed.GET("/menu", menuHandler.List)

	orderHandler := handlers.NewOrderHandler(db, processor)
	authed.POST("/orders", orderHandler.Create)
	authed.GET("/orders", orderHandler.List)

	feedbackHandler := handlers.NewFeedbackHandler(db)
	authed.POST("/feedback", feedbackHandler.Create)
}

// userAuthMiddleware validates user JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).
			Select("id", "active").
			First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
