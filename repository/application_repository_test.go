package repository

import (
	"errors"
	"testing"
	"time"

	"provisionapi/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestGetByKey_Found(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "host", "username", "application_name", "port", "pathname"}).
		AddRow(3, "server1", "deploy", "shop", 22, "/var/www/shop")
	mock.ExpectQuery("SELECT \\* FROM `applications` WHERE host = \\? AND username = \\? AND application_name = \\?").
		WithArgs("server1", "deploy", "shop", 1).
		WillReturnRows(rows)

	app, err := repo.GetByKey(nil, "server1", "deploy", "shop")

	require.NoError(t, err)
	assert.Equal(t, uint(3), app.ID)
	assert.Equal(t, "/var/www/shop", app.Pathname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByKey_NotFound(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `applications`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByKey(nil, "server1", "deploy", "ghost")

	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_InsertsAndResolvesID(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `applications` .*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `applications` WHERE host = \\? AND username = \\? AND application_name = \\?").
		WithArgs("server1", "deploy", "shop", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host", "username", "application_name"}).
			AddRow(7, "server1", "deploy", "shop"))

	app := &models.Application{
		Host:            "server1",
		Username:        "deploy",
		ApplicationName: "shop",
		Port:            22,
		SSHPrivateKey:   "key-pem",
		Status:          "connection verified",
	}
	id, err := repo.Upsert(nil, app)

	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, uint(7), app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `applications` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateFields(nil, 3, map[string]interface{}{
		"selected_repo": "octo/repo",
		"status":        "deploy key registered",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDatabaseConfig(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `applications` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveDatabaseConfig(nil, 3, models.DatabaseConfig{
		DBType:     "mysql",
		DBName:     "shop_db",
		DBUsername: "shop_user",
		DBPassword: "s3cret",
		DBPort:     3306,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStepLog_Append(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewStepLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `step_logs`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	entry := &models.StepLog{
		ApplicationID: 3,
		Step:          "folder-setup",
		Status:        models.StepStatusSuccess,
		Message:       "Folder layout prepared at /var/www/shop (duration: 1.2s)",
	}
	err := repo.Append(nil, entry)

	require.NoError(t, err)
	assert.Equal(t, uint(11), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStepLog_ListByApplicationID_Ordered(t *testing.T) {
	db, mock := openMockDB(t)
	repo := NewStepLogRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "application_id", "step", "status", "message", "created_at"}).
		AddRow(1, 3, "connection-verification", "success", "ok", now.Add(-time.Minute)).
		AddRow(2, 3, "folder-setup", "failed", "mkdir denied", now)
	mock.ExpectQuery("SELECT \\* FROM `step_logs` WHERE application_id = \\? ORDER BY created_at asc, id asc").
		WithArgs(uint(3)).
		WillReturnRows(rows)

	entries, err := repo.ListByApplicationID(nil, 3)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "connection-verification", entries[0].Step)
	assert.Equal(t, "failed", entries[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
