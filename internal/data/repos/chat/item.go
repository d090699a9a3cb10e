package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// ItemCount is one (pillar, kind, status) bucket.
type ItemCount struct {
	Pillar string
	Kind   string
	Status string
	N      int
}

type ItemRepo interface {
	Create(dbc dbctx.Context, items []*types.Item) ([]*types.Item, error)
	GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.Item, error)
	ListByUser(dbc dbctx.Context, userID string, pillar string, limit int) ([]*types.Item, error)
	Counts(dbc dbctx.Context, userID string) ([]ItemCount, error)
	MarkCompleted(dbc dbctx.Context, userID string, id uuid.UUID) (bool, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

// Create rejects any item without a pillar; storage is the last line that
// enforces pillar tagging.
func (r *itemRepo) Create(dbc dbctx.Context, items []*types.Item) ([]*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.Item{}, nil
	}
	now := time.Now().UTC()
	for i, it := range items {
		if it == nil || strings.TrimSpace(it.UserID) == "" || strings.TrimSpace(it.Pillar) == "" {
			return nil, fmt.Errorf("item %d: user and pillar are required", i)
		}
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.Status == "" {
			it.Status = types.ItemStatusActive
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Item
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *itemRepo) ListByUser(dbc dbctx.Context, userID string, pillar string, limit int) ([]*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	q := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if pillar != "" {
		q = q.Where("pillar = ?", pillar)
	}
	var out []*types.Item
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) Counts(dbc dbctx.Context, userID string) ([]ItemCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []ItemCount
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Item{}).
		Select("pillar, kind, status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("pillar, kind, status").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) MarkCompleted(dbc dbctx.Context, userID string, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Item{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.ItemStatusActive).
		Updates(map[string]interface{}{"status": types.ItemStatusCompleted, "completed_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
