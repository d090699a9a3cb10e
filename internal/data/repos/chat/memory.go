package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/pillars-backend/internal/data/aggregates"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type ConversationMemoryRepo interface {
	ListByUser(dbc dbctx.Context, userID string) ([]*types.ConversationMemory, error)
	Get(dbc dbctx.Context, userID, pillar string) (*types.ConversationMemory, error)
	// Insert creates the row at version 1; ok is false when the (user, pillar)
	// row already exists.
	Insert(dbc dbctx.Context, row *types.ConversationMemory) (bool, error)
	// UpdateVersioned writes row only if the stored version still equals
	// expected; on success row.Version is bumped.
	UpdateVersioned(dbc dbctx.Context, row *types.ConversationMemory, expected int64) (bool, error)
	Delete(dbc dbctx.Context, userID, pillar string) (bool, error)
}

type conversationMemoryRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewConversationMemoryRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMemoryRepo {
	return &conversationMemoryRepo{
		db:    db,
		log:   baseLog.With("repo", "ConversationMemoryRepo"),
		guard: aggregates.NewCASGuard(db),
	}
}

func (r *conversationMemoryRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.ConversationMemory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ConversationMemory
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("last_interaction_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationMemoryRepo) Get(dbc dbctx.Context, userID, pillar string) (*types.ConversationMemory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ConversationMemory
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND pillar = ?", userID, pillar).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationMemoryRepo) Insert(dbc dbctx.Context, row *types.ConversationMemory) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.UserID == "" || row.Pillar == "" {
		return false, aggregates.ValidationError("memory row needs user and pillar")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Version = 1
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *conversationMemoryRepo) UpdateVersioned(dbc dbctx.Context, row *types.ConversationMemory, expected int64) (bool, error) {
	if row == nil || row.ID == uuid.Nil {
		return false, aggregates.ValidationError("memory row id required")
	}
	row.UpdatedAt = time.Now().UTC()
	ok, err := r.guard.UpdateByVersion(dbc, types.ConversationMemory{}.TableName(), row.ID, expected, map[string]any{
		"topics_taught":       row.TopicsTaught,
		"item_ids":            row.ItemIDs,
		"item_keys":           row.ItemKeys,
		"history":             row.History,
		"last_interaction_at": row.LastInteractionAt,
		"updated_at":          row.UpdatedAt,
	})
	if err != nil {
		return false, err
	}
	if ok {
		row.Version = expected + 1
	}
	return ok, nil
}

func (r *conversationMemoryRepo) Delete(dbc dbctx.Context, userID, pillar string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND pillar = ?", userID, pillar).
		Delete(&types.ConversationMemory{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
