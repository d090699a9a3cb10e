package gamification

import (
	"time"

	"github.com/google/uuid"
)

// PointsLedgerEntry records every award with its named reason.
type PointsLedgerEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index" json:"user_id"`
	Reason    string    `gorm:"type:text;not null;index" json:"reason"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (PointsLedgerEntry) TableName() string { return "points_ledger" }
