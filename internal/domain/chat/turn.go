package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TurnOutcomeReply       = "reply"
	TurnOutcomeUnavailable = "unavailable"
)

// ChatTurn records one completed coaching turn. It is written inside the
// turn's commit transaction, so a row exists only for committed turns. The
// message text is never stored here.
type ChatTurn struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID    string `gorm:"type:text;not null;index" json:"user_id"`
	Pillar    string `gorm:"type:text;not null;index" json:"pillar"`
	PersonaID string `gorm:"type:text;not null" json:"persona_id"`

	Outcome      string `gorm:"type:text;not null;index" json:"outcome"`
	RedirectFrom string `gorm:"type:text" json:"redirect_from,omitempty"`
	ItemsCreated int    `gorm:"not null;default:0" json:"items_created"`
	Points       int    `gorm:"not null;default:0" json:"points"`
	// Trace holds topics taught, assists and warnings for the turn.
	Trace datatypes.JSON `gorm:"not null;default:'{}'" json:"trace"`

	RequestID  string    `gorm:"type:text;index" json:"request_id,omitempty"`
	DurationMS int64     `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatTurn) TableName() string { return "chat_turn" }
