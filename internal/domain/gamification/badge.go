package gamification

import (
	"time"

	"github.com/google/uuid"
)

// UnlockedBadge is unique per (user, badge); the unique index is what makes
// unlocks idempotent under concurrent turns.
type UnlockedBadge struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:text;not null;uniqueIndex:idx_badge_user_badge,priority:1" json:"user_id"`
	BadgeID    string    `gorm:"column:badge_id;type:text;not null;uniqueIndex:idx_badge_user_badge,priority:2" json:"badge_id"`
	Points     int       `gorm:"not null" json:"points"`
	UnlockedAt time.Time `gorm:"column:unlocked_at;not null" json:"unlocked_at"`
}

func (UnlockedBadge) TableName() string { return "unlocked_badge" }
