package user

import (
	"time"

	"github.com/google/uuid"
)

// Checkin is a pillar score log. Any check-in counts as a qualifying log for
// streaks.
type Checkin struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index" json:"user_id"`
	Pillar    string    `gorm:"type:text;not null;index" json:"pillar"`
	Score     int       `gorm:"not null" json:"score"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	Day       string    `gorm:"type:text;not null;index" json:"day"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Checkin) TableName() string { return "checkin" }
