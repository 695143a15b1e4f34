// Package dbtest opens throwaway SQLite databases for repository and service tests.
package dbtest

import (
	"fmt"

	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
	missionDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/mission"
	profileDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/profile"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory database with models migrated. A single connection is kept
// so every query sees the same in-memory schema.
func Open(models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close releases the connection behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenSchema opens a database with every application table.
func OpenSchema() (*gorm.DB, error) {
	return Open(
		&userDatamodel.Identity{},
		&userDatamodel.AuthSession{},
		&profileDatamodel.Profile{},
		&projectDatamodel.Project{},
		&projectDatamodel.ProjectAssignment{},
		&creditDatamodel.CreditRequest{},
		&missionDatamodel.CommonMission{},
		&missionDatamodel.MissionRequest{},
	)
}

// SQLX wraps the connection behind db for the sqlx read models.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}
