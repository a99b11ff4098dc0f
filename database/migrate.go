package database

import (
	"database/sql"
	"fmt"

	"taskmarket_backend/internal/config"
	"taskmarket_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm opens the shared GORM connection. Migrations run through GORM;
// the repositories take the underlying *sql.DB via SQLDB.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	gormDB = db
	return db, nil
}

// SQLDB exposes the raw connection pool behind GORM for the
// database/sql repositories.
func SQLDB() (*sql.DB, error) {
	db, err := ConnectGorm()
	if err != nil {
		return nil, err
	}
	return db.DB()
}

// AutoMigrate creates or updates the schema for every model. uuid-ossp is
// needed for the uuid_generate_v4() column defaults.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskApplication{},
		&models.Payment{},
		&models.Review{},
		&models.ReputationSummary{},
		&models.TaskMessage{},
		&models.AuditEntry{},
		&models.ModerationLogEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	return nil
}
