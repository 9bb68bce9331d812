package models

import (
	"time"
)

// PromoCode is an issued discount code. The code string is globally unique
// across all users and all time; the unique index is the authority for the
// generate-retry loop in the promo service.
type PromoCode struct {
	CodeID      uint       `gorm:"primaryKey" json:"code_id"`
	Code        string     `gorm:"uniqueIndex;size:16;not null" json:"code"`
	UserID      int64      `gorm:"not null;index:idx_user_codes,priority:1" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GeneratedAt time.Time  `gorm:"not null;index:idx_user_codes,priority:2" json:"generated_at"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	Used        bool       `gorm:"not null;default:false" json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}

// TableName specifies the table name for PromoCode model
func (PromoCode) TableName() string {
	return "promo_codes"
}
