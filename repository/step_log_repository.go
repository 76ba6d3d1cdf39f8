package repository

import (
	"provisionapi/models"

	"gorm.io/gorm"
)

// StepLogRepository provides data access operations for the step history.
// The history is append-only: there is deliberately no update or delete.
type StepLogRepository interface {
	Append(tx *gorm.DB, entry *models.StepLog) error
	ListByApplicationID(tx *gorm.DB, applicationID uint) ([]models.StepLog, error)
}

type stepLogRepository struct {
	db *gorm.DB
}

// NewStepLogRepository creates a new step log repository instance.
func NewStepLogRepository(db *gorm.DB) StepLogRepository {
	return &stepLogRepository{
		db: db,
	}
}

func (r *stepLogRepository) Append(tx *gorm.DB, entry *models.StepLog) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Table(models.StepLog{}.TableName()).Create(entry).Error
}

func (r *stepLogRepository) ListByApplicationID(tx *gorm.DB, applicationID uint) ([]models.StepLog, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var entries []models.StepLog
	if err := db.Table(models.StepLog{}.TableName()).
		Where("application_id = ?", applicationID).
		Order("created_at asc, id asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
