package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/data/repos"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	PillarState repos.PillarStateRepo
	Checkin     repos.CheckinRepo
	Memory      repos.ConversationMemoryRepo
	Item        repos.ItemRepo
	ChatTurn    repos.ChatTurnRepo
	CrisisAudit repos.CrisisAuditRepo
	GameProfile repos.GamificationProfileRepo
	Badge       repos.BadgeRepo
	Ledger      repos.LedgerRepo
	Quest       repos.QuestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	user := repos.NewUserRepo(db, log)
	if cfg.ProfileCacheTTL > 0 && cfg.ProfileCacheSize > 0 {
		user = repos.NewCachedUserRepo(user, cfg.ProfileCacheSize, cfg.ProfileCacheTTL, log)
	}
	return Repos{
		User:        user,
		PillarState: repos.NewPillarStateRepo(db, log),
		Checkin:     repos.NewCheckinRepo(db, log),
		Memory:      repos.NewConversationMemoryRepo(db, log),
		Item:        repos.NewItemRepo(db, log),
		ChatTurn:    repos.NewChatTurnRepo(db, log),
		CrisisAudit: repos.NewCrisisAuditRepo(db, log),
		GameProfile: repos.NewGamificationProfileRepo(db, log),
		Badge:       repos.NewBadgeRepo(db, log),
		Ledger:      repos.NewLedgerRepo(db, log),
		Quest:       repos.NewQuestRepo(db, log),
	}
}
