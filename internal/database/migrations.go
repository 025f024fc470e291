package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes migrations AutoMigrate does not cover
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	// Board ordering
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_hearings_date
		ON hearings(hearing_date)
	`).Error; err != nil {
		return err
	}

	// Practice mix grouping
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cases_court
		ON cases(court)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lookup_logs_time
		ON lookup_logs(query_time)
	`).Error; err != nil {
		return err
	}

	return nil
}
