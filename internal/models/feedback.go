package models

import "time"

// Feedback represents a mess member's feedback about the canteen.
type Feedback struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Submitting user.
	User   *User  `gorm:"foreignKey:UserID"` // Submitting user record.

	Subject string `gorm:"type:text;not null"` // Short summary.
	Body    string `gorm:"type:text"`          // Free-form feedback text.
	Rating  int    `gorm:"not null"`           // Rating from 1 to 5.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
