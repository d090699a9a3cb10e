package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/data/repos"
	"github.com/yungbote/pillars-backend/internal/data/repos/testutil"
	"github.com/yungbote/pillars-backend/internal/modules/coach/crisis"
	"github.com/yungbote/pillars-backend/internal/modules/coach/executor"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/routing"
)

type countingClassifier struct {
	mu    sync.Mutex
	inner crisis.Classifier
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, msg string) (crisis.Classification, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Classify(ctx, msg)
}

func (c *countingClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ executor.Prompt, _ executor.Constraints) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type harness struct {
	db           *gorm.DB
	classifier   *countingClassifier
	chat         ChatService
	gamification GamificationService
	checkins     CheckinService
	items        ItemService
	profiles     ProfileService
	store        *memory.Store

	mu  sync.Mutex
	now time.Time
}

func (h *harness) setDay(day string) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	h.mu.Lock()
	h.now = t.Add(12 * time.Hour)
	h.mu.Unlock()
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

type harnessOpts struct {
	gen     executor.Generator
	timeout time.Duration
	// wrapGamification lets a test fail the commit from inside the tx.
	wrapGamification func(GamificationService) GamificationService
	classifier       crisis.Classifier
	wrapProfiles     func(ProfileService) ProfileService
	wrapMemoryRepo   func(repos.ConversationMemoryRepo) repos.ConversationMemoryRepo
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	inner := opts.classifier
	if inner == nil {
		inner = crisis.NewKeywordClassifier()
	}
	h := &harness{db: db, classifier: &countingClassifier{inner: inner}}
	h.setDay("2026-03-01")

	registry := personas.MustDefault()
	tx := aggregates.NewGormTxRunner(db)
	userRepo := repos.NewUserRepo(db, log)
	itemRepo := repos.NewItemRepo(db, log)
	checkinRepo := repos.NewCheckinRepo(db, log)
	stateRepo := repos.NewPillarStateRepo(db, log)
	gameProfiles := repos.NewGamificationProfileRepo(db, log)

	h.profiles = NewProfileService(log, userRepo, nil)
	memRepo := repos.NewConversationMemoryRepo(db, log)
	if opts.wrapMemoryRepo != nil {
		memRepo = opts.wrapMemoryRepo(memRepo)
	}
	h.store = memory.NewStore(memRepo, memory.NewLocalLocker(), 0, log)
	h.gamification = NewGamificationService(log, tx, gameProfiles,
		repos.NewBadgeRepo(db, log), repos.NewLedgerRepo(db, log), repos.NewQuestRepo(db, log),
		NewStatsSource(userRepo, itemRepo, checkinRepo, stateRepo),
		GamificationConfig{InitialFreezes: 2, Now: h.clock},
	)
	gam := h.gamification
	if opts.wrapGamification != nil {
		gam = opts.wrapGamification(gam)
	}
	h.checkins = NewCheckinService(log, tx, h.profiles, checkinRepo, stateRepo, h.gamification)
	h.items = NewItemService(log, tx, itemRepo, h.gamification)

	chatProfiles := h.profiles
	if opts.wrapProfiles != nil {
		chatProfiles = opts.wrapProfiles(chatProfiles)
	}

	gen := opts.gen
	if gen == nil {
		gen = executor.TemplateGenerator{}
	}
	h.chat = NewChatService(ChatDeps{
		Log:          log,
		Tx:           tx,
		Registry:     registry,
		Gate:         crisis.NewGate(h.classifier, log),
		Router:       routing.New(registry),
		Executor:     executor.New(gen, 0, log),
		Memory:       h.store,
		Profiles:     chatProfiles,
		Gamification: gam,
		Items:        itemRepo,
		PillarStates: stateRepo,
		Turns:        repos.NewChatTurnRepo(db, log),
		CrisisAudit:  repos.NewCrisisAuditRepo(db, log),
		GameProfiles: gameProfiles,
	}, ChatConfig{GenerationTimeout: opts.timeout})
	return h
}

func (h *harness) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	if err := h.db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
