package repository

import (
	"fmt"

	"resume-intake/internal/domain/submission"

	"gorm.io/gorm"
)

// InitSchema creates or updates the user_resumes table and its indexes.
// Safe to run on every start.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&submission.Record{}); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// SchemaStatus reports whether user_resumes exists and how many rows it has.
func SchemaStatus(db *gorm.DB) (bool, int64, error) {
	if !db.Migrator().HasTable(&submission.Record{}) {
		return false, 0, nil
	}
	var count int64
	if err := db.Model(&submission.Record{}).Count(&count).Error; err != nil {
		return true, 0, fmt.Errorf("count user_resumes: %w", err)
	}
	return true, count, nil
}
