package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

type CrisisAuditRepo interface {
	Create(dbc dbctx.Context, row *types.CrisisAudit) error
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.CrisisAudit, error)
}

type crisisAuditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCrisisAuditRepo(db *gorm.DB, log *logger.Logger) CrisisAuditRepo {
	return &crisisAuditRepo{db: db, log: log.With("repo", "CrisisAuditRepo")}
}

func (r *crisisAuditRepo) Create(dbc dbctx.Context, row *types.CrisisAudit) error {
	if row == nil || row.UserID == "" || row.Severity == "" {
		return fmt.Errorf("invalid crisis audit row")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *crisisAuditRepo) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.CrisisAudit, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.CrisisAudit
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
