package repository

import (
	"provisionapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository provides data access operations for managed applications.
type ApplicationRepository interface {
	GetByID(tx *gorm.DB, id uint) (*models.Application, error)
	GetByKey(tx *gorm.DB, host, username, applicationName string) (*models.Application, error)
	Upsert(tx *gorm.DB, app *models.Application) (uint, error)
	UpdateFields(tx *gorm.DB, id uint, fields map[string]interface{}) error
	SaveDatabaseConfig(tx *gorm.DB, id uint, cfg models.DatabaseConfig) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository instance.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{
		db: db,
	}
}

func (r *applicationRepository) GetByID(tx *gorm.DB, id uint) (*models.Application, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var app models.Application
	if err := db.Table(models.Application{}.TableName()).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) GetByKey(tx *gorm.DB, host, username, applicationName string) (*models.Application, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var app models.Application
	if err := db.Table(models.Application{}.TableName()).
		Where("host = ? AND username = ? AND application_name = ?", host, username, applicationName).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// Upsert inserts the application or, when a row with the same natural key
// exists, overwrites its connection-related fields in place. The conflict
// clause makes the operation atomic for concurrent verifies against the
// same key; exactly one row exists afterwards with the latest credentials.
func (r *applicationRepository) Upsert(tx *gorm.DB, app *models.Application) (uint, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "host"},
			{Name: "username"},
			{Name: "application_name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"port",
			"ssh_private_key",
			"github_token",
			"github_username",
			"status",
			"updated_at",
		}),
	}).Create(app).Error
	if err != nil {
		return 0, err
	}

	// MySQL does not report the surviving row id on conflict-update, so
	// resolve it by key.
	saved, err := r.GetByKey(tx, app.Host, app.Username, app.ApplicationName)
	if err != nil {
		return 0, err
	}
	app.ID = saved.ID
	return saved.ID, nil
}

func (r *applicationRepository) UpdateFields(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Application{}).Where("id = ?", id).Updates(fields).Error
}

// SaveDatabaseConfig overwrites the embedded database config wholesale;
// there are no partial-update semantics.
func (r *applicationRepository) SaveDatabaseConfig(tx *gorm.DB, id uint, cfg models.DatabaseConfig) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Application{}).Where("id = ?", id).Updates(map[string]interface{}{
		"dbcfg_db_type":     cfg.DBType,
		"dbcfg_db_name":     cfg.DBName,
		"dbcfg_db_username": cfg.DBUsername,
		"dbcfg_db_password": cfg.DBPassword,
		"dbcfg_db_port":     cfg.DBPort,
	}).Error
}
