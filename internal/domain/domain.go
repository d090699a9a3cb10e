package domain

import (
	"github.com/yungbote/pillars-backend/internal/domain/chat"
	"github.com/yungbote/pillars-backend/internal/domain/gamification"
	"github.com/yungbote/pillars-backend/internal/domain/user"
)

const (
	TierFree    = user.TierFree
	TierPremium = user.TierPremium

	ItemStatusActive    = chat.ItemStatusActive
	ItemStatusCompleted = chat.ItemStatusCompleted

	TurnOutcomeReply       = chat.TurnOutcomeReply
	TurnOutcomeUnavailable = chat.TurnOutcomeUnavailable
)

type (
	User        = user.User
	PillarState = user.PillarState
	PillarPlan  = user.PillarPlan
	Checkin     = user.Checkin

	ConversationMemory = chat.ConversationMemory
	MemoryTurn         = chat.MemoryTurn
	Item               = chat.Item
	ChatTurn           = chat.ChatTurn
	CrisisAudit        = chat.CrisisAudit

	GamificationProfile = gamification.Profile
	UnlockedBadge       = gamification.UnlockedBadge
	PointsLedgerEntry   = gamification.PointsLedgerEntry
	DailyQuest          = gamification.DailyQuest
)

// Models lists every persisted model for migrations.
func Models() []any {
	return []any{
		&User{},
		&PillarState{},
		&Checkin{},
		&ConversationMemory{},
		&Item{},
		&ChatTurn{},
		&CrisisAudit{},
		&GamificationProfile{},
		&UnlockedBadge{},
		&PointsLedgerEntry{},
		&DailyQuest{},
	}
}
