package models

import "time"

// User represents a mess member account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Name     string `gorm:"type:text"`                      // Display name.
	Email    string `gorm:"type:text"`                      // Contact email.
	Phone    string `gorm:"type:text"`                      // Contact phone number.
	RoomNo   string `gorm:"type:text"`                      // Hostel room number, if any.

	Active bool `gorm:"not null;default:true"` // Whether the user can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
