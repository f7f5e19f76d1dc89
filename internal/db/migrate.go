package db

import (
	"fmt"

	"github.com/Leo3030/roadmap-demo/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by the service.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Setting{},
		&models.Session{},
		&models.SettingsSave{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
