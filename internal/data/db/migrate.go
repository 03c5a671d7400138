package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/breadlog-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureIndexes adds the composite indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_bake_owner_status_start", `
			CREATE INDEX IF NOT EXISTS idx_bake_owner_status_start
			ON bake (owner_id, status, start_timestamp DESC);
		`},
		{"idx_bake_step_bake_order", `
			CREATE INDEX IF NOT EXISTS idx_bake_step_bake_order
			ON bake_step (bake_id, step_order);
		`},
		{"idx_recipe_owner_status", `
			CREATE INDEX IF NOT EXISTS idx_recipe_owner_status
			ON recipe (owner_id, status);
		`},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
