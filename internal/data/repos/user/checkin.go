package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type CheckinRepo interface {
	Create(dbc dbctx.Context, row *types.Checkin) error
	// CountByPillar returns check-in counts keyed by pillar.
	CountByPillar(dbc dbctx.Context, userID string) (map[string]int, error)
	ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.Checkin, error)
}

type checkinRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckinRepo(db *gorm.DB, baseLog *logger.Logger) CheckinRepo {
	return &checkinRepo{db: db, log: baseLog.With("repo", "CheckinRepo")}
}

func (r *checkinRepo) Create(dbc dbctx.Context, row *types.Checkin) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.UserID == "" || row.Pillar == "" || row.Day == "" {
		return errors.New("invalid checkin")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *checkinRepo) CountByPillar(dbc dbctx.Context, userID string) (map[string]int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Pillar string
		N      int
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Checkin{}).
		Select("pillar, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("pillar").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Pillar] = row.N
	}
	return out, nil
}

func (r *checkinRepo) ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.Checkin, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var out []*types.Checkin
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
