package bootstrap

import (
	"fmt"

	"provisionapi/models"
	"provisionapi/pkg/logger"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for the application registry and
// the step history. Runs once at process start.
func Migrate(db *gorm.DB) error {
	logger.Infof("Running schema migration...")

	if err := db.AutoMigrate(&models.Application{}, &models.StepLog{}); err != nil {
		logger.Errorf("Schema migration failed: %v", err)
		return fmt.Errorf("schema migration failed: %w", err)
	}

	logger.Infof("Schema migration completed successfully")
	return nil
}
