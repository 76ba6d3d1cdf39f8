package models

import "time"

// StepLog statuses.
const (
	StepStatusSuccess = "success"
	StepStatusFailed  = "failed"
)

// StepLog records a single step invocation outcome for an application.
// Rows are append-only: re-running a step inserts a new row, it never
// touches prior ones. The current status of a step is the most recent row
// for its (application_id, step) pair.
type StepLog struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID uint      `gorm:"column:application_id;index" json:"applicationId" validate:"required"`
	Step          string    `gorm:"column:step;size:64;index" json:"step" validate:"required"`
	Status        string    `gorm:"column:status;size:16" json:"status" validate:"required,oneof=success failed"`
	Message       string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName specifies the static table name for GORM.
func (StepLog) TableName() string {
	return "step_logs"
}
