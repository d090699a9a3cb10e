package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationMemory is the durable per (user, pillar) record. Rows are
// merged field by field and guarded by Version; they are only deleted on an
// explicit user reset.
type ConversationMemory struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;uniqueIndex:idx_conv_memory_user_pillar,priority:1" json:"user_id"`
	Pillar string    `gorm:"type:text;not null;uniqueIndex:idx_conv_memory_user_pillar,priority:2" json:"pillar"`

	TopicsTaught datatypes.JSON `gorm:"column:topics_taught;not null;default:'[]'" json:"topics_taught"`
	ItemIDs      datatypes.JSON `gorm:"column:item_ids;not null;default:'[]'" json:"item_ids"`
	ItemKeys     datatypes.JSON `gorm:"column:item_keys;not null;default:'[]'" json:"item_keys"`
	History      datatypes.JSON `gorm:"column:history;not null;default:'[]'" json:"history"`

	LastInteractionAt time.Time `gorm:"column:last_interaction_at;not null;index" json:"last_interaction_at"`
	Version           int64     `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConversationMemory) TableName() string { return "conversation_memory" }

// MemoryTurn is one entry in ConversationMemory.History.
type MemoryTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	PersonaID string    `json:"personaId,omitempty"`
	At        time.Time `json:"at"`
}
