package db

import (
	"fmt"

	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all application tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if err := conn.AutoMigrate(
		&models.AIUsage{},
		&models.BlogLike{},
		&models.BlogShare{},
		&models.Subscriber{},
		&models.Setting{},
		&models.Admin{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
