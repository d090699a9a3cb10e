package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/gamification"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type CheckinRequest struct {
	UserID string `json:"userId"`
	Pillar string `json:"pillar"`
	Score  int    `json:"score"`
	Note   string `json:"note,omitempty"`
}

type CheckinResult struct {
	Checkin *types.Checkin `json:"checkin"`
	Rewards *TurnRewards   `json:"rewards"`
}

// CheckinService records pillar score logs. A check-in is a qualifying log
// for streaks.
type CheckinService interface {
	Record(ctx context.Context, req CheckinRequest) (*CheckinResult, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*types.Checkin, error)
}

type checkinService struct {
	log          *logger.Logger
	tx           aggregates.TxRunner
	profiles     ProfileService
	checkins     repos.CheckinRepo
	states       repos.PillarStateRepo
	gamification GamificationService
}

func NewCheckinService(log *logger.Logger, tx aggregates.TxRunner, profiles ProfileService, checkins repos.CheckinRepo, states repos.PillarStateRepo, gam GamificationService) CheckinService {
	return &checkinService{
		log:          log.With("service", "CheckinService"),
		tx:           tx,
		profiles:     profiles,
		checkins:     checkins,
		states:       states,
		gamification: gam,
	}
}

func (s *checkinService) Record(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apierr.BadRequest(ReasonMissingUserID, fmt.Errorf("%w: userId is required", ErrValidation))
	}
	p, ok := pillars.Parse(req.Pillar)
	if !ok {
		return nil, apierr.BadRequest(ReasonInvalidPillar, fmt.Errorf("%w: unknown pillar %q", ErrValidation, req.Pillar))
	}
	if req.Score < 0 || req.Score > 100 {
		return nil, apierr.BadRequest(ReasonInvalidScore, fmt.Errorf("%w: score must be 0..100", ErrValidation))
	}
	prof, err := s.profiles.Get(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if !prof.Access.Has(p) {
		return nil, apierr.Forbidden(ReasonLockedPillar, fmt.Errorf("%w: %s", ErrEntitlement, p))
	}

	out := &CheckinResult{}
	day := s.gamification.Today()
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		row := &types.Checkin{UserID: userID, Pillar: string(p), Score: req.Score, Note: strings.TrimSpace(req.Note), Day: day}
		if err := s.checkins.Create(dbc, row); err != nil {
			return fmt.Errorf("create checkin: %w", err)
		}
		st, err := s.states.GetOrCreate(dbc, userID, string(p))
		if err != nil {
			return fmt.Errorf("load pillar state: %w", err)
		}
		st.Score = req.Score
		if err := s.states.Save(dbc, st); err != nil {
			return fmt.Errorf("save pillar state: %w", err)
		}
		rewards, err := s.gamification.Apply(dbc, userID, gamification.Outcome{Day: day, Pillar: p, Checkin: true})
		if err != nil {
			return fmt.Errorf("apply gamification: %w", err)
		}
		out.Checkin, out.Rewards = row, rewards
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *checkinService) ListRecent(ctx context.Context, userID string, limit int) ([]*types.Checkin, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.checkins.ListRecent(dbctx.Context{Ctx: ctx}, userID, limit)
}
