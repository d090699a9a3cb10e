package gamification

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Get(dbc dbctx.Context, userID string) (*types.GamificationProfile, error)
	// GetForUpdate creates the profile if missing and, on Postgres, row-locks
	// it for the rest of the transaction so one user's turns apply serially.
	GetForUpdate(dbc dbctx.Context, userID string, initialFreezes int) (*types.GamificationProfile, error)
	Save(dbc dbctx.Context, p *types.GamificationProfile) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "GamificationProfileRepo")}
}

// Get returns nil, nil when the user has no profile yet.
func (r *profileRepo) Get(dbc dbctx.Context, userID string) (*types.GamificationProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.GamificationProfile
	err := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *profileRepo) GetForUpdate(dbc dbctx.Context, userID string, initialFreezes int) (*types.GamificationProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	seed := &types.GamificationProfile{
		UserID:           userID,
		FreezesRemaining: initialFreezes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error; err != nil {
		return nil, err
	}
	q := transaction.WithContext(dbc.Ctx)
	if transaction.Dialector != nil && transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.GamificationProfile
	if err := q.Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *profileRepo) Save(dbc dbctx.Context, p *types.GamificationProfile) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil || p.UserID == "" {
		return errors.New("profile user id required")
	}
	p.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.GamificationProfile{}).
		Where("user_id = ?", p.UserID).
		Updates(map[string]interface{}{
			"points":             p.Points,
			"total_turns":        p.TotalTurns,
			"current_streak":     p.CurrentStreak,
			"longest_streak":     p.LongestStreak,
			"last_logged_date":   p.LastLoggedDate,
			"freezes_remaining":  p.FreezesRemaining,
			"freeze_active_date": p.FreezeActiveDate,
			"updated_at":         p.UpdatedAt,
		}).Error
}
