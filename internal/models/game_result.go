package models

import (
	"time"
)

type GameOutcome string

const (
	GameOutcomeWin  GameOutcome = "WIN"
	GameOutcomeLoss GameOutcome = "LOSS"
	GameOutcomeDraw GameOutcome = "DRAW"
)

// GameResult is one row of the append-only game log. PromoCode is set only
// for wins that actually produced a code; a win recorded after the daily
// limit keeps it NULL.
type GameResult struct {
	GameID    uint        `gorm:"primaryKey" json:"game_id"`
	UserID    int64       `gorm:"not null;index" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Result    GameOutcome `gorm:"size:10;not null" json:"result"`
	Timestamp time.Time   `gorm:"not null" json:"timestamp"`
	PromoCode *string     `gorm:"size:16" json:"promo_code,omitempty"`
}

// TableName specifies the table name for GameResult model
func (GameResult) TableName() string {
	return "game_history"
}
