package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	ItemStatusActive    = "active"
	ItemStatusCompleted = "completed"
)

// Item is a trackable object a persona created: life_plan, smart_goal,
// habit, entry or milestone. Pillar is mandatory.
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:text;not null;index" json:"userId"`
	Pillar      string    `gorm:"type:text;not null;index" json:"pillar"`
	Kind        string    `gorm:"type:text;not null;index" json:"kind"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Details     string    `gorm:"type:text" json:"details,omitempty"`
	TemplateKey string    `gorm:"column:template_key;type:text;index" json:"templateKey,omitempty"`
	PersonaID   string    `gorm:"column:persona_id;type:text;not null" json:"personaId"`
	Status      string    `gorm:"type:text;not null;default:'active'" json:"status"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"createdAt"`
}

func (Item) TableName() string { return "item" }
