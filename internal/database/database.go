package database

import (
	"fmt"
	"log"

	"github.com/mixmaster1989/XOBot/internal/config"
	"github.com/mixmaster1989/XOBot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes the database connection. A sqlite file is the default;
// setting DATABASE_URL moves the same schema onto postgres.
func Connect(cfg config.DatabaseConfig) error {
	var err error

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Unique-constraint violations must come back as gorm.ErrDuplicatedKey
		// on both drivers; the promo issuance retry loop depends on it.
		TranslateError: true,
	}

	if cfg.URL != "" {
		DB, err = gorm.Open(postgres.Open(cfg.URL), gormCfg)
	} else {
		DB, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	allModels := []interface{}{
		&models.User{},
		&models.PromoCode{},
		&models.GameResult{},
	}

	for _, model := range allModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
