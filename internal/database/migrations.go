package database

import (
	"fmt"

	"github.com/mirelhas/task-docs-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds filtering indexes that AutoMigrate does not create from tags.
func AddIndexes(db *gorm.DB) error {
	fields := []string{"Status", "Priority", "DueDate"}

	migrator := db.Migrator()
	for _, field := range fields {
		if migrator.HasIndex(&models.Task{}, field) {
			continue
		}
		if err := migrator.CreateIndex(&models.Task{}, field); err != nil {
			return fmt.Errorf("failed to create index on tasks.%s: %w", field, err)
		}
	}

	return nil
}
