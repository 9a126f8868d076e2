package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/config"
	"github.com/messdesk/messdesk/internal/http/api/admin/handlers"
	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/models"
	"github.com/messdesk/messdesk/internal/ratelimit"
	"github.com/messdesk/messdesk/internal/security"
)

// RegisterAdminRoutes registers public and authenticated admin routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, processor *ledger.Processor, limiter *ratelimit.LoginLimiter) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, cfg, limiter)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, cfg.JWT.Secret))

	authed.PUT("/password", authHandler.ChangePassword)

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	cardHandler := handlers.NewCardHandler(db, processor)
	authed.POST("/cards", cardHandler.Create)
	authed.GET("/cards", cardHandler.List)
	authed.GET("/cards/:id", cardHandler.Get)
	authed.PUT("/cards/:id/status", cardHandler.UpdateStatus)
	authed.PUT("/cards/:id/expiry", cardHandler.UpdateExpiry)
	authed.POST("/cards/:id/recharge", cardHandler.Recharge)
	authed.POST("/cards/:id/debit", cardHandler.Debit)
	authed.GET("/cards/:id/ledger", cardHandler.Ledger)

	rechargeHandler := handlers.NewRechargeHandler(db)
	authed.GET("/recharges", rechargeHandler.List)
	authed.GET("/recharges/:id", rechargeHandler.Get)

	userHandler := handlers.NewUserHandler(db)
	authed.POST("/users", userHandler.Create)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.PUT("/users/:id", userHandler.Update)
	authed.DELETE("/users/:id", userHandler.Delete)

	menuHandler := handlers.NewMenuHandler(db)
	authed.POST("/menu", menuHandler.Create)
	authed.GET("/menu", menuHandler.List)
	authed.PUT("/menu/:id", menuHandler.Update)
	authed.DELETE("/menu/:id", menuHandler.Delete)

	orderHandler := handlers.NewOrderHandler(db)
	authed.GET("/orders", orderHandler.List)
	authed.PUT("/orders/:id/status", orderHandler.UpdateStatus)

	feedbackHandler := handlers.NewFeedbackHandler(db)
	authed.GET("/feedback", feedbackHandler.List)
	authed.DELETE("/feedback/:id", feedbackHandler.Delete)

	settingHandler := handlers.NewSettingHandler(db)
	authed.GET("/settings", settingHandler.List)
	authed.PUT("/settings/:key", settingHandler.Put)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).
			Select("id", "active").
			First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}

		c.Set("adminID", claims.AdminID)
		c.Next()
	}
}
