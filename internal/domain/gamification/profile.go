package gamification

import "time"

// Profile holds the per-user gamification counters. Level is derived from
// Points and is not stored.
type Profile struct {
	UserID string `gorm:"type:text;primaryKey" json:"user_id"`

	Points     int `gorm:"not null;default:0" json:"points"`
	TotalTurns int `gorm:"column:total_turns;not null;default:0" json:"total_turns"`

	CurrentStreak    int    `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak    int    `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	LastLoggedDate   string `gorm:"column:last_logged_date;type:text" json:"last_logged_date,omitempty"`
	FreezesRemaining int    `gorm:"column:freezes_remaining;not null;default:0" json:"freezes_remaining"`
	FreezeActiveDate string `gorm:"column:freeze_active_date;type:text" json:"freeze_active_date,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "gamification_profile" }
