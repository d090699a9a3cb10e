package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DailyQuest is unique per (user, day, key).
type DailyQuest struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;uniqueIndex:idx_daily_quest_user_day_key,priority:1" json:"user_id"`
	Day    string    `gorm:"type:text;not null;uniqueIndex:idx_daily_quest_user_day_key,priority:2" json:"day"`
	Key    string    `gorm:"type:text;not null;uniqueIndex:idx_daily_quest_user_day_key,priority:3" json:"key"`
	Slot   int       `gorm:"not null;default:0" json:"slot"`

	Title    string `gorm:"type:text;not null" json:"title"`
	Target   int    `gorm:"not null" json:"target"`
	Progress int    `gorm:"not null;default:0" json:"progress"`
	Points   int    `gorm:"not null" json:"points"`
	// SeenPillars backs quests that count distinct pillars.
	SeenPillars datatypes.JSON `gorm:"column:seen_pillars;not null;default:'[]'" json:"seen_pillars"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (DailyQuest) TableName() string { return "daily_quest" }
