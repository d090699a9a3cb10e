package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type PillarStateRepo interface {
	ListByUser(dbc dbctx.Context, userID string) ([]*types.PillarState, error)
	// GetOrCreate lazily creates the (user, pillar) row; the unique index
	// makes concurrent creation safe.
	GetOrCreate(dbc dbctx.Context, userID, pillar string) (*types.PillarState, error)
	Save(dbc dbctx.Context, row *types.PillarState) error
}

type pillarStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPillarStateRepo(db *gorm.DB, baseLog *logger.Logger) PillarStateRepo {
	return &pillarStateRepo{db: db, log: baseLog.With("repo", "PillarStateRepo")}
}

func (r *pillarStateRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.PillarState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PillarState
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("pillar ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pillarStateRepo) GetOrCreate(dbc dbctx.Context, userID, pillar string) (*types.PillarState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	row := &types.PillarState{
		ID:          uuid.New(),
		UserID:      userID,
		Pillar:      pillar,
		DailyHabits: []byte("[]"),
		WeeklyGoals: []byte("[]"),
		Plan:        []byte(`{"shortTerm":[],"longTerm":[],"notes":"","coachRecommendations":[]}`),
		LastUpdated: now,
		CreatedAt:   now,
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var out types.PillarState
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND pillar = ?", userID, pillar).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("pillar state vanished after create")
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pillarStateRepo) Save(dbc dbctx.Context, row *types.PillarState) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return errors.New("pillar state id required")
	}
	row.LastUpdated = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.PillarState{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"score":        row.Score,
			"daily_habits": row.DailyHabits,
			"weekly_goals": row.WeeklyGoals,
			"plan":         row.Plan,
			"last_updated": row.LastUpdated,
		}).Error
}
