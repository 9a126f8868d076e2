package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/messdesk/messdesk/internal/models"
)

// Migrate applies schema migrations for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.MessCard{},
		&models.LedgerEntry{},
		&models.Recharge{},
		&models.MenuItem{},
		&models.TableOrder{},
		&models.Feedback{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
