package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/modules/coach/crisis"
	"github.com/yungbote/pillars-backend/internal/modules/coach/executor"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/routing"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
	"github.com/yungbote/pillars-backend/internal/services"
)

type Services struct {
	Profiles     services.ProfileService
	Gamification services.GamificationService
	Chat         services.ChatService
	Checkins     services.CheckinService
	Items        services.ItemService
	Memory       services.MemoryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	tx := aggregates.NewGormTxRunner(db)

	profiles := services.NewProfileService(log, r.User, cfg.DefaultAllowedPillars)
	stats := services.NewStatsSource(r.User, r.Item, r.Checkin, r.PillarState)
	gam := services.NewGamificationService(log, tx, r.GameProfile, r.Badge, r.Ledger, r.Quest, stats,
		services.GamificationConfig{
			InitialFreezes: cfg.InitialFreezes,
			Location:       cfg.StreakLocation,
		})
	store := memory.NewStore(r.Memory, c.Locker, cfg.MemoryHistoryCap, log)

	chat := services.NewChatService(services.ChatDeps{
		Log:          log,
		Tx:           tx,
		Registry:     c.Registry,
		Gate:         crisis.NewGate(crisis.NewKeywordClassifier(), log),
		Router:       routing.New(c.Registry),
		Executor:     executor.New(c.Generator, cfg.PromptHistoryTurns, log),
		Memory:       store,
		Profiles:     profiles,
		Gamification: gam,
		Items:        r.Item,
		PillarStates: r.PillarState,
		Turns:        r.ChatTurn,
		CrisisAudit:  r.CrisisAudit,
		GameProfiles: r.GameProfile,
	}, services.ChatConfig{
		GenerationTimeout: cfg.GenerationTimeout,
		MaxMessageChars:   cfg.MaxMessageChars,
	})

	return Services{
		Profiles:     profiles,
		Gamification: gam,
		Chat:         chat,
		Checkins:     services.NewCheckinService(log, tx, profiles, r.Checkin, r.PillarState, gam),
		Items:        services.NewItemService(log, tx, r.Item, gam),
		Memory:       services.NewMemoryService(log, store),
	}
}
