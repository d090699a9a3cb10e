package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/gamification"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type ItemService interface {
	List(ctx context.Context, userID, pillar string) ([]*types.Item, error)
	// Complete marks an item done and re-evaluates badges; it is not a
	// qualifying log for streaks.
	Complete(ctx context.Context, userID, itemID string) (*types.Item, *TurnRewards, error)
}

type itemService struct {
	log          *logger.Logger
	tx           aggregates.TxRunner
	items        repos.ItemRepo
	gamification GamificationService
}

func NewItemService(log *logger.Logger, tx aggregates.TxRunner, items repos.ItemRepo, gam GamificationService) ItemService {
	return &itemService{log: log.With("service", "ItemService"), tx: tx, items: items, gamification: gam}
}

func (s *itemService) List(ctx context.Context, userID, pillar string) ([]*types.Item, error) {
	if pillar != "" {
		p, ok := pillars.Parse(pillar)
		if !ok {
			return nil, apierr.BadRequest(ReasonInvalidPillar, fmt.Errorf("%w: unknown pillar %q", ErrValidation, pillar))
		}
		pillar = string(p)
	}
	return s.items.ListByUser(dbctx.Context{Ctx: ctx}, userID, pillar, 200)
}

func (s *itemService) Complete(ctx context.Context, userID, itemID string) (*types.Item, *TurnRewards, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, nil, apierr.BadRequest(ReasonInvalidID, fmt.Errorf("%w: item id", ErrValidation))
	}
	var (
		item    *types.Item
		rewards *TurnRewards
	)
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		changed, err := s.items.MarkCompleted(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("complete item: %w", err)
		}
		item, err = s.items.GetByID(dbc, userID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return apierr.NotFound(ReasonNotFound, fmt.Errorf("item %s not found", id))
		}
		if !changed {
			return nil
		}
		rewards, err = s.gamification.Apply(dbc, userID, gamification.Outcome{Pillar: pillars.ID(item.Pillar)})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, rewards, nil
}
