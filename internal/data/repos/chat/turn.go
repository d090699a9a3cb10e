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

type ChatTurnRepo interface {
	Create(dbc dbctx.Context, row *types.ChatTurn) error
	CountByUser(dbc dbctx.Context, userID string) (int, error)
}

type chatTurnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatTurnRepo(db *gorm.DB, log *logger.Logger) ChatTurnRepo {
	return &chatTurnRepo{db: db, log: log.With("repo", "ChatTurnRepo")}
}

func (r *chatTurnRepo) Create(dbc dbctx.Context, row *types.ChatTurn) error {
	if row == nil || row.UserID == "" || row.Pillar == "" || row.PersonaID == "" {
		return fmt.Errorf("invalid chat turn")
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
	if len(row.Trace) == 0 {
		row.Trace = []byte("{}")
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *chatTurnRepo) CountByUser(dbc dbctx.Context, userID string) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ChatTurn{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
