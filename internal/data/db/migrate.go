package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates indexes GORM tags cannot express portably.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_attempt_sweep",
			sql:  `CREATE INDEX IF NOT EXISTS idx_attempt_sweep ON test_attempt (status, started_at)`,
		},
		{
			name: "idx_achievement_student_active",
			sql:  `CREATE INDEX IF NOT EXISTS idx_achievement_student_active ON achievement (student_id, is_active, earned_at)`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
