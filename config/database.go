package config

import (
	"fmt"

	"provisionapi/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectDB establishes the database connection using GORM with configured
// MySQL credentials. The handle is returned to the caller and injected into
// the repositories at construction; connection happens once at process
// start, never lazily on first request.
func ConnectDB() (*gorm.DB, error) {
	logger.Infof("Connecting to database %s@%s:%d/%s", Cfg.DBUser, Cfg.DBHost, Cfg.DBPort, Cfg.DBName)

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		Cfg.DBUser,
		Cfg.DBPass,
		Cfg.DBHost,
		Cfg.DBPort,
		Cfg.DBName,
	)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Errorf("GORM connection failed: %v", err)
		return nil, err
	}
	logger.Infof("GORM connected successfully to database %s", Cfg.DBName)

	return db, nil
}
