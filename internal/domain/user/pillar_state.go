package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PillarState is unique per (user, pillar).
type PillarState struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;uniqueIndex:idx_pillar_state_user_pillar,priority:1" json:"user_id"`
	Pillar string    `gorm:"type:text;not null;uniqueIndex:idx_pillar_state_user_pillar,priority:2" json:"pillar"`

	Score       int            `gorm:"not null;default:0" json:"score"`
	DailyHabits datatypes.JSON `gorm:"column:daily_habits;not null;default:'[]'" json:"daily_habits"`
	WeeklyGoals datatypes.JSON `gorm:"column:weekly_goals;not null;default:'[]'" json:"weekly_goals"`
	// Plan holds PillarPlan as JSON.
	Plan datatypes.JSON `gorm:"column:plan;not null;default:'{}'" json:"plan"`

	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (PillarState) TableName() string { return "pillar_state" }

type PillarPlan struct {
	ShortTerm            []string `json:"shortTerm"`
	LongTerm             []string `json:"longTerm"`
	Notes                string   `json:"notes"`
	CoachRecommendations []string `json:"coachRecommendations"`
}
