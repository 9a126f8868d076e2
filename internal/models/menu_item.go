package models

import "time"

// MenuItem represents one dish on the canteen menu.
type MenuItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name         string `gorm:"type:text;not null;uniqueIndex"` // Dish name.
	Category     string `gorm:"type:text;not null"`             // Breakfast, lunch, dinner, snacks.
	PriceCredits int64  `gorm:"not null"`                       // Price in card credits.

	Available bool `gorm:"not null;default:true"` // Whether the dish can be ordered.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
