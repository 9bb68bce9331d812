package models

import (
	"time"
)

// User represents a Telegram user known to the bot. The primary key is the
// platform-assigned Telegram ID: immutable, never reissued, never deleted.
type User struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	Username  *string   `gorm:"size:255" json:"username,omitempty"`
	FirstName *string   `gorm:"size:255" json:"first_name,omitempty"`
	Wins      int       `gorm:"not null;default:0" json:"wins"`
	Losses    int       `gorm:"not null;default:0" json:"losses"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
