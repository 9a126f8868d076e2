package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/config"
	"github.com/messdesk/messdesk/internal/db"
	internalhttp "github.com/messdesk/messdesk/internal/http"
	"github.com/messdesk/messdesk/internal/http/api/admin"
	"github.com/messdesk/messdesk/internal/http/api/front"
	"github.com/messdesk/messdesk/internal/ledger"
	"github.com/messdesk/messdesk/internal/logging"
	"github.com/messdesk/messdesk/internal/models"
	"github.com/messdesk/messdesk/internal/ratelimit"
	"github.com/messdesk/messdesk/internal/security"
)

// Run boots the service: config, logging, database, routes, HTTP server.
// It blocks until the process receives SIGINT/SIGTERM, then shuts down
// gracefully.
func Run(configPath string) error {
	_ = godotenv.Load()

	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := seedAdmin(conn, cfg); errSeed != nil {
		return errSeed
	}

	limiter := ratelimit.NewLoginLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	processor := ledger.NewProcessor(conn)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), internalhttp.RequestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin.RegisterAdminRoutes(engine, conn, cfg, processor, limiter)
	front.RegisterFrontRoutes(engine, conn, cfg, processor, limiter)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr()).Info("server listening")
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case errServe := <-errCh:
		return errServe
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	return nil
}

// seedAdmin creates the bootstrap admin account on an empty admins table.
func seedAdmin(conn *gorm.DB, cfg *config.Config) error {
	username := strings.TrimSpace(cfg.Bootstrap.AdminUsername)
	password := strings.TrimSpace(cfg.Bootstrap.AdminPassword)
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash bootstrap password: %w", errHash)
	}
	adminAccount := models.Admin{
		Username:     username,
		Password:     hashed,
		Active:       true,
		IsSuperAdmin: true,
	}
	if errCreate := conn.Create(&adminAccount).Error; errCreate != nil {
		return fmt.Errorf("create bootstrap admin: %w", errCreate)
	}
	log.WithField("username", username).Info("bootstrap admin created")
	return nil
}
