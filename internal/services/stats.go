package services

import (
	"fmt"

	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/gamification"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
)

// StatsSource builds the per-turn badge snapshot from storage. Called inside
// the commit transaction it sees the turn's own writes.
type StatsSource struct {
	userRepo    repos.UserRepo
	itemRepo    repos.ItemRepo
	checkinRepo repos.CheckinRepo
	stateRepo   repos.PillarStateRepo
}

func NewStatsSource(userRepo repos.UserRepo, itemRepo repos.ItemRepo, checkinRepo repos.CheckinRepo, stateRepo repos.PillarStateRepo) *StatsSource {
	return &StatsSource{userRepo: userRepo, itemRepo: itemRepo, checkinRepo: checkinRepo, stateRepo: stateRepo}
}

func (s *StatsSource) Snapshot(dbc dbctx.Context, userID string, totalTurns int) (gamification.Stats, error) {
	st := gamification.Stats{
		TotalTurns:      totalTurns,
		EntriesByPillar: map[pillars.ID]int{},
		PillarScores:    map[pillars.ID]int{},
	}
	counts, err := s.itemRepo.Counts(dbc, userID)
	if err != nil {
		return st, fmt.Errorf("count items: %w", err)
	}
	for _, c := range counts {
		st.EntriesByPillar[pillars.ID(c.Pillar)] += c.N
		switch personas.ItemKind(c.Kind) {
		case personas.ItemSmartGoal:
			st.GoalsCreated += c.N
			if c.Status == types.ItemStatusCompleted {
				st.GoalsCompleted += c.N
			}
		case personas.ItemHabit:
			st.HabitsCreated += c.N
		case personas.ItemEntry:
			st.EntriesCreated += c.N
		}
	}
	checkins, err := s.checkinRepo.CountByPillar(dbc, userID)
	if err != nil {
		return st, fmt.Errorf("count checkins: %w", err)
	}
	for p, n := range checkins {
		st.EntriesByPillar[pillars.ID(p)] += n
	}
	states, err := s.stateRepo.ListByUser(dbc, userID)
	if err != nil {
		return st, fmt.Errorf("list pillar states: %w", err)
	}
	for _, ps := range states {
		st.PillarScores[pillars.ID(ps.Pillar)] = ps.Score
	}
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return st, fmt.Errorf("load user: %w", err)
	}
	if u != nil {
		st.FriendCount = u.FriendCount
	}
	return st, nil
}
