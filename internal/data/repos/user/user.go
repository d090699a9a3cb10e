package user

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type UserRepo interface {
	GetByID(dbc dbctx.Context, userID string) (*types.User, error)
	Upsert(dbc dbctx.Context, u *types.User) error
	UpdateFields(dbc dbctx.Context, userID string, updates map[string]interface{}) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

// GetByID returns nil, nil when the user does not exist.
func (r *userRepo) GetByID(dbc dbctx.Context, userID string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	var out types.User
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) Upsert(dbc dbctx.Context, u *types.User) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if len(u.AllowedPillars) == 0 {
		u.AllowedPillars = []byte("[]")
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "subscription_tier", "allowed_pillars", "friend_count",
				"consent_coaching", "consent_data_sharing", "updated_at",
			}),
		}).
		Create(u).Error
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, userID string, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}
