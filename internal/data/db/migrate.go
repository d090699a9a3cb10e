package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pillars-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds composite indexes that the struct tags do not express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_item_user_pillar_kind", `CREATE INDEX IF NOT EXISTS idx_item_user_pillar_kind ON item(user_id, pillar, kind);`},
		{"idx_points_ledger_user_created", `CREATE INDEX IF NOT EXISTS idx_points_ledger_user_created ON points_ledger(user_id, created_at);`},
		{"idx_checkin_user_day", `CREATE INDEX IF NOT EXISTS idx_checkin_user_day ON checkin(user_id, day);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
