package user

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

// User is the account record. ID is the caller-supplied user id; the auth
// layer in front of this service owns identity.
type User struct {
	ID               string         `gorm:"type:text;primaryKey" json:"id"`
	DisplayName      string         `gorm:"column:display_name" json:"display_name"`
	SubscriptionTier string         `gorm:"column:subscription_tier;not null;default:'free'" json:"subscription_tier"`
	AllowedPillars   datatypes.JSON `gorm:"column:allowed_pillars;not null;default:'[]'" json:"allowed_pillars"`
	FriendCount      int            `gorm:"column:friend_count;not null;default:0" json:"friend_count"`

	ConsentCoaching    bool `gorm:"column:consent_coaching;not null" json:"consent_coaching"`
	ConsentDataSharing bool `gorm:"column:consent_data_sharing;not null" json:"consent_data_sharing"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
