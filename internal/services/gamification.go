package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/gamification"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type GamificationConfig struct {
	InitialFreezes int
	Location       *time.Location
	Now            func() time.Time
}

type BadgeView struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Category   gamification.Category `json:"category"`
	Points     int                   `json:"points"`
	UnlockedAt *time.Time            `json:"unlockedAt,omitempty"`
}

type GamificationSummary struct {
	UserID           string                    `json:"userId"`
	Points           int                       `json:"points"`
	Level            gamification.Level        `json:"level"`
	NextLevel        *gamification.Level       `json:"nextLevel,omitempty"`
	PointsToNext     int                       `json:"pointsToNext"`
	CurrentStreak    int                       `json:"currentStreak"`
	LongestStreak    int                       `json:"longestStreak"`
	FreezesRemaining int                       `json:"freezesRemaining"`
	FreezeActiveDate string                    `json:"freezeActiveDate,omitempty"`
	TotalTurns       int                       `json:"totalTurns"`
	Badges           []BadgeView               `json:"badges"`
	TotalBadges      int                       `json:"totalBadges"`
	Quests           []gamification.QuestState `json:"quests"`
	RecentAwards     []gamification.Award      `json:"recentAwards"`
}

// TurnRewards is the slice of Effects returned to the client.
type TurnRewards struct {
	PointsAwarded   int                       `json:"pointsAwarded"`
	TotalPoints     int                       `json:"totalPoints"`
	Awards          []gamification.Award      `json:"awards"`
	BadgesUnlocked  []BadgeView               `json:"badgesUnlocked"`
	QuestsCompleted []string                  `json:"questsCompleted"`
	LevelUp         *gamification.LevelChange `json:"levelUp,omitempty"`
	CurrentStreak   int                       `json:"currentStreak"`
	LongestStreak   int                       `json:"longestStreak"`
	FreezeUsed      bool                      `json:"freezeUsed,omitempty"`
}

type GamificationService interface {
	// Apply evaluates and persists one outcome. It must run inside the
	// caller's transaction.
	Apply(dbc dbctx.Context, userID string, o gamification.Outcome) (*TurnRewards, error)
	Today() string
	Summary(ctx context.Context, userID string) (*GamificationSummary, error)
	ActivateFreeze(ctx context.Context, userID string) (*gamification.Streak, error)
	TodayQuests(ctx context.Context, userID string) ([]gamification.QuestState, error)
}

type gamificationService struct {
	log         *logger.Logger
	tx          aggregates.TxRunner
	profileRepo repos.GamificationProfileRepo
	badgeRepo   repos.BadgeRepo
	ledgerRepo  repos.LedgerRepo
	questRepo   repos.QuestRepo
	stats       *StatsSource
	cfg         GamificationConfig
	questGroup  singleflight.Group
}

func NewGamificationService(
	log *logger.Logger,
	tx aggregates.TxRunner,
	profileRepo repos.GamificationProfileRepo,
	badgeRepo repos.BadgeRepo,
	ledgerRepo repos.LedgerRepo,
	questRepo repos.QuestRepo,
	stats *StatsSource,
	cfg GamificationConfig,
) GamificationService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &gamificationService{
		log:         log.With("service", "GamificationService"),
		tx:          tx,
		profileRepo: profileRepo,
		badgeRepo:   badgeRepo,
		ledgerRepo:  ledgerRepo,
		questRepo:   questRepo,
		stats:       stats,
		cfg:         cfg,
	}
}

func (s *gamificationService) Today() string {
	return gamification.Day(s.cfg.Now().In(s.cfg.Location))
}

func (s *gamificationService) Apply(dbc dbctx.Context, userID string, o gamification.Outcome) (*TurnRewards, error) {
	ctx, span := observability.StartSpan(dbc.Ctx, observability.SpanGamification)
	dbc.Ctx = ctx
	rewards, err := s.apply(dbc, userID, o)
	observability.EndSpan(span, err)
	return rewards, err
}

func (s *gamificationService) apply(dbc dbctx.Context, userID string, o gamification.Outcome) (*TurnRewards, error) {
	if o.Day == "" {
		o.Day = s.Today()
	}
	prof, err := s.profileRepo.GetForUpdate(dbc, userID, s.cfg.InitialFreezes)
	if err != nil {
		return nil, fmt.Errorf("load gamification profile: %w", err)
	}
	questRows, err := s.ensureQuests(dbc, userID, o.Day)
	if err != nil {
		return nil, err
	}
	badges, err := s.badgeRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	unlocked := make(map[string]bool, len(badges))
	for _, b := range badges {
		unlocked[b.BadgeID] = true
	}
	turns := prof.TotalTurns
	if o.ChatTurn {
		turns++
	}
	stats, err := s.stats.Snapshot(dbc, userID, turns)
	if err != nil {
		return nil, err
	}

	st := gamification.State{
		Points:   prof.Points,
		Streak:   streakFromProfile(prof),
		Unlocked: unlocked,
		Quests:   questStates(questRows),
	}
	eff, err := gamification.Evaluate(st, o, stats)
	if err != nil {
		return nil, err
	}

	// A badge another turn unlocked first keeps its single award.
	var dropped []string
	for _, b := range eff.Unlocked {
		inserted, err := s.badgeRepo.Unlock(dbc, userID, b.ID, b.Points)
		if err != nil {
			return nil, fmt.Errorf("unlock badge %s: %w", b.ID, err)
		}
		if !inserted {
			dropped = append(dropped, gamification.BadgeReason(b.ID))
		}
	}
	eff.Drop(dropped...)

	if len(eff.Awards) > 0 {
		entries := make([]*types.PointsLedgerEntry, 0, len(eff.Awards))
		for _, a := range eff.Awards {
			entries = append(entries, &types.PointsLedgerEntry{UserID: userID, Reason: a.Reason, Points: a.Points})
		}
		if err := s.ledgerRepo.Append(dbc, entries); err != nil {
			return nil, fmt.Errorf("append ledger: %w", err)
		}
	}

	prof.Points = eff.PointsAfter
	prof.TotalTurns = turns
	applyStreak(prof, eff.Streak)
	if err := s.profileRepo.Save(dbc, prof); err != nil {
		return nil, fmt.Errorf("save gamification profile: %w", err)
	}

	now := time.Now().UTC()
	for i, q := range eff.Quests {
		row := questRows[i]
		if row.Progress == q.Progress && len(q.SeenPillars) == len(decodeList(row.SeenPillars)) {
			continue
		}
		row.Progress = q.Progress
		row.SeenPillars = encodeList(q.SeenPillars)
		if q.Completed && row.CompletedAt == nil {
			row.CompletedAt = &now
		}
		if err := s.questRepo.SaveProgress(dbc, row); err != nil {
			return nil, fmt.Errorf("save quest %s: %w", row.Key, err)
		}
	}

	m := observability.Current()
	for _, a := range eff.Awards {
		m.AddPoints(a.Reason, a.Points)
	}
	for _, b := range eff.Unlocked {
		m.ObserveBadgeUnlock(b.ID)
	}
	if eff.LevelUp != nil {
		s.log.Info("level up", "user_id", userID, "from", eff.LevelUp.From.Number, "to", eff.LevelUp.To.Number)
	}
	return rewardsFrom(eff), nil
}

// ensureQuests returns the day's quest rows, creating them on first access.
func (s *gamificationService) ensureQuests(dbc dbctx.Context, userID, day string) ([]*types.DailyQuest, error) {
	rows, err := s.questRepo.ListForDay(dbc, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	defs := gamification.SelectQuests(userID, day)
	fresh := make([]*types.DailyQuest, 0, len(defs))
	for i, d := range defs {
		fresh = append(fresh, &types.DailyQuest{
			UserID: userID, Day: day, Key: d.Key, Slot: i,
			Title: d.Title, Target: d.Target, Points: d.Points,
		})
	}
	if err := s.questRepo.InsertDay(dbc, fresh); err != nil {
		return nil, fmt.Errorf("insert quests: %w", err)
	}
	rows, err = s.questRepo.ListForDay(dbc, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return rows, nil
}

func (s *gamificationService) TodayQuests(ctx context.Context, userID string) ([]gamification.QuestState, error) {
	day := s.Today()
	v, err, _ := s.questGroup.Do(userID+"|"+day, func() (interface{}, error) {
		var rows []*types.DailyQuest
		err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
			var err error
			rows, err = s.ensureQuests(dbc, userID, day)
			return err
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	return questStates(v.([]*types.DailyQuest)), nil
}

func (s *gamificationService) ActivateFreeze(ctx context.Context, userID string) (*gamification.Streak, error) {
	var out gamification.Streak
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		prof, err := s.profileRepo.GetForUpdate(dbc, userID, s.cfg.InitialFreezes)
		if err != nil {
			return err
		}
		next, err := streakFromProfile(prof).ActivateFreeze(s.Today())
		if errors.Is(err, gamification.ErrNoFreezes) {
			return apierr.BadRequest(ReasonNoFreezes, err)
		}
		if err != nil {
			return err
		}
		applyStreak(prof, next)
		out = next
		return s.profileRepo.Save(dbc, prof)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *gamificationService) Summary(ctx context.Context, userID string) (*GamificationSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	prof, err := s.profileRepo.Get(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load gamification profile: %w", err)
	}
	if prof == nil {
		prof = &types.GamificationProfile{UserID: userID, FreezesRemaining: s.cfg.InitialFreezes}
	}
	badges, err := s.badgeRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	recent, err := s.ledgerRepo.ListRecent(dbc, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	quests, err := s.TodayQuests(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak := streakFromProfile(prof)
	out := &GamificationSummary{
		UserID:           userID,
		Points:           prof.Points,
		Level:            gamification.LevelFor(prof.Points),
		CurrentStreak:    streak.Effective(s.Today()),
		LongestStreak:    streak.Longest,
		FreezesRemaining: streak.FreezesRemaining,
		FreezeActiveDate: streak.FreezeActiveDate,
		TotalTurns:       prof.TotalTurns,
		Badges:           make([]BadgeView, 0, len(badges)),
		TotalBadges:      len(gamification.Catalog()),
		Quests:           quests,
		RecentAwards:     make([]gamification.Award, 0, len(recent)),
	}
	if next, ok := gamification.NextLevel(prof.Points); ok {
		out.NextLevel = &next
		out.PointsToNext = next.MinPoints - prof.Points
	}
	for _, b := range badges {
		v := BadgeView{ID: b.BadgeID, Points: b.Points}
		if def, ok := gamification.BadgeByID(b.BadgeID); ok {
			v.Name, v.Category = def.Name, def.Category
		}
		at := b.UnlockedAt
		v.UnlockedAt = &at
		out.Badges = append(out.Badges, v)
	}
	for _, e := range recent {
		out.RecentAwards = append(out.RecentAwards, gamification.Award{Reason: e.Reason, Points: e.Points})
	}
	return out, nil
}

func streakFromProfile(p *types.GamificationProfile) gamification.Streak {
	return gamification.Streak{
		Current:          p.CurrentStreak,
		Longest:          p.LongestStreak,
		LastLogged:       p.LastLoggedDate,
		FreezesRemaining: p.FreezesRemaining,
		FreezeActiveDate: p.FreezeActiveDate,
	}
}

func applyStreak(p *types.GamificationProfile, s gamification.Streak) {
	p.CurrentStreak = s.Current
	p.LongestStreak = s.Longest
	p.LastLoggedDate = s.LastLogged
	p.FreezesRemaining = s.FreezesRemaining
	p.FreezeActiveDate = s.FreezeActiveDate
}

func questStates(rows []*types.DailyQuest) []gamification.QuestState {
	out := make([]gamification.QuestState, 0, len(rows))
	pool := map[string]gamification.QuestDef{}
	for _, d := range gamification.QuestPool() {
		pool[d.Key] = d
	}
	for _, r := range rows {
		q := gamification.QuestState{
			Key:         r.Key,
			Title:       r.Title,
			Metric:      pool[r.Key].Metric,
			Target:      r.Target,
			Progress:    r.Progress,
			Points:      r.Points,
			SeenPillars: decodeList(r.SeenPillars),
			Completed:   r.CompletedAt != nil,
		}
		out = append(out, q)
	}
	return out
}

func rewardsFrom(eff gamification.Effects) *TurnRewards {
	out := &TurnRewards{
		PointsAwarded:   eff.TotalAwarded(),
		TotalPoints:     eff.PointsAfter,
		Awards:          eff.Awards,
		BadgesUnlocked:  make([]BadgeView, 0, len(eff.Unlocked)),
		QuestsCompleted: eff.QuestsCompleted,
		LevelUp:         eff.LevelUp,
		CurrentStreak:   eff.Streak.Current,
		LongestStreak:   eff.Streak.Longest,
		FreezeUsed:      eff.StreakChange.FreezeUsed,
	}
	for _, b := range eff.Unlocked {
		out.BadgesUnlocked = append(out.BadgesUnlocked, BadgeView{ID: b.ID, Name: b.Name, Category: b.Category, Points: b.Points})
	}
	return out
}

// OutcomeFor builds the engine outcome for a committed chat turn.
func OutcomeFor(day string, pillar pillars.ID, kinds []personas.ItemKind, topics int) gamification.Outcome {
	return gamification.Outcome{Day: day, Pillar: pillar, ChatTurn: true, ItemKinds: kinds, TopicsLearned: topics}
}

func decodeList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeList(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return b
}
