package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type LedgerRepo interface {
	Append(dbc dbctx.Context, entries []*types.PointsLedgerEntry) error
	ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.PointsLedgerEntry, error)
	Sum(dbc dbctx.Context, userID string) (int, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return &ledgerRepo{db: db, log: baseLog.With("repo", "PointsLedgerRepo")}
}

func (r *ledgerRepo) Append(dbc dbctx.Context, entries []*types.PointsLedgerEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
	}
	return transaction.WithContext(dbc.Ctx).Create(&entries).Error
}

func (r *ledgerRepo) ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.PointsLedgerEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var out []*types.PointsLedgerEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ledgerRepo) Sum(dbc dbctx.Context, userID string) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PointsLedgerEntry{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}
