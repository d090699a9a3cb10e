package chat

import (
	"time"

	"github.com/google/uuid"
)

// CrisisAudit is the only persisted trace of a crisis check. It holds no
// message text.
type CrisisAudit struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string    `gorm:"type:text;not null;index" json:"user_id"`
	Severity         string    `gorm:"type:text;not null;index" json:"severity"`
	Type             string    `gorm:"type:text" json:"type,omitempty"`
	Skipped          bool      `gorm:"not null;default:false" json:"skipped"`
	ClassifierFailed bool      `gorm:"column:classifier_failed;not null;default:false" json:"classifier_failed"`
	MessageLength    int       `gorm:"column:message_length;not null" json:"message_length"`
	RequestID        string    `gorm:"type:text" json:"request_id,omitempty"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (CrisisAudit) TableName() string { return "crisis_audit" }
