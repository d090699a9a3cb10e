package repos

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/data/repos/chat"
	"github.com/yungbote/pillars-backend/internal/data/repos/gamification"
	"github.com/yungbote/pillars-backend/internal/data/repos/user"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type PillarStateRepo = user.PillarStateRepo
type CheckinRepo = user.CheckinRepo

type ConversationMemoryRepo = chat.ConversationMemoryRepo
type ItemRepo = chat.ItemRepo
type ItemCount = chat.ItemCount
type ChatTurnRepo = chat.ChatTurnRepo
type CrisisAuditRepo = chat.CrisisAuditRepo

type GamificationProfileRepo = gamification.ProfileRepo
type BadgeRepo = gamification.BadgeRepo
type LedgerRepo = gamification.LedgerRepo
type QuestRepo = gamification.QuestRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewCachedUserRepo(inner UserRepo, size int, ttl time.Duration, baseLog *logger.Logger) UserRepo {
	return user.NewCachedUserRepo(inner, size, ttl, baseLog)
}
func NewPillarStateRepo(db *gorm.DB, baseLog *logger.Logger) PillarStateRepo {
	return user.NewPillarStateRepo(db, baseLog)
}
func NewCheckinRepo(db *gorm.DB, baseLog *logger.Logger) CheckinRepo {
	return user.NewCheckinRepo(db, baseLog)
}

func NewConversationMemoryRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMemoryRepo {
	return chat.NewConversationMemoryRepo(db, baseLog)
}
func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo { return chat.NewItemRepo(db, baseLog) }
func NewChatTurnRepo(db *gorm.DB, baseLog *logger.Logger) ChatTurnRepo {
	return chat.NewChatTurnRepo(db, baseLog)
}
func NewCrisisAuditRepo(db *gorm.DB, baseLog *logger.Logger) CrisisAuditRepo {
	return chat.NewCrisisAuditRepo(db, baseLog)
}

func NewGamificationProfileRepo(db *gorm.DB, baseLog *logger.Logger) GamificationProfileRepo {
	return gamification.NewProfileRepo(db, baseLog)
}
func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return gamification.NewBadgeRepo(db, baseLog)
}
func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return gamification.NewLedgerRepo(db, baseLog)
}
func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return gamification.NewQuestRepo(db, baseLog)
}
