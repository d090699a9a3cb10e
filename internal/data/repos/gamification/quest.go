package gamification

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

type QuestRepo interface {
	ListForDay(dbc dbctx.Context, userID, day string) ([]*types.DailyQuest, error)
	// InsertDay inserts the set; rows that already exist for (user, day, key)
	// are left untouched.
	InsertDay(dbc dbctx.Context, rows []*types.DailyQuest) error
	SaveProgress(dbc dbctx.Context, row *types.DailyQuest) error
}

type questRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return &questRepo{db: db, log: baseLog.With("repo", "DailyQuestRepo")}
}

func (r *questRepo) ListForDay(dbc dbctx.Context, userID, day string) ([]*types.DailyQuest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DailyQuest
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("slot ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questRepo) InsertDay(dbc dbctx.Context, rows []*types.DailyQuest) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, q := range rows {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		if len(q.SeenPillars) == 0 {
			q.SeenPillars = []byte("[]")
		}
		q.CreatedAt = now
		q.UpdatedAt = now
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *questRepo) SaveProgress(dbc dbctx.Context, row *types.DailyQuest) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return errors.New("quest id required")
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.DailyQuest{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"progress":     row.Progress,
			"seen_pillars": row.SeenPillars,
			"completed_at": row.CompletedAt,
			"updated_at":   row.UpdatedAt,
		}).Error
}
