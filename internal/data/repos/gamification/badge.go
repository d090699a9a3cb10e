package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type BadgeRepo interface {
	ListByUser(dbc dbctx.Context, userID string) ([]*types.UnlockedBadge, error)
	// Unlock inserts the badge; inserted is false if it was already unlocked.
	Unlock(dbc dbctx.Context, userID, badgeID string, points int) (bool, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.UnlockedBadge, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UnlockedBadge
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) Unlock(dbc dbctx.Context, userID, badgeID string, points int) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.UnlockedBadge{
		ID:         uuid.New(),
		UserID:     userID,
		BadgeID:    badgeID,
		Points:     points,
		UnlockedAt: time.Now().UTC(),
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
