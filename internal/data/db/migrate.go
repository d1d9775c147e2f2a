package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/suggestion-engine/internal/domain"
)

// ActiveSuggestionIndex enforces one proposed suggestion per (user_id, title).
const ActiveSuggestionIndex = "idx_suggestion_active_title"

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return ensureIndexes(db)
}

// Partial indexes are not expressible through struct tags on every dialect,
// so they are created explicitly. Both Postgres and SQLite accept this form.
func ensureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + ActiveSuggestionIndex + ` ON copilot_suggestion (user_id, title) WHERE executed_at IS NULL AND dismissed_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_job_run_runnable ON job_run (status, created_at)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
