package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// CASGuard implements compare-and-set writes for version-guarded rows.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// UpdateByVersion applies updates only when id+version match and bumps the
// version. ok is false when another writer got there first.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uuid.UUID, expectedVersion int64, updates map[string]any) (bool, error) {
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByVersion")
	}
	if expectedVersion < 0 {
		return false, ValidationError("expectedVersion must be >= 0")
	}
	if g.db == nil && dbc.Tx == nil {
		return false, ValidationError("missing db transaction context")
	}
	next := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		next[k] = v
	}
	next["version"] = expectedVersion + 1
	res := dbc.DB(g.db).Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(message)
}
