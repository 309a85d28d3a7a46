package client

import (
	"fmt"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// InitDB opens the record store, applies migrations and seeds the stream
// settings row.
func InitDB(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// webhooks and stream redemptions arrive in bursts
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Purchase{},
		&model.TokenUsage{},
		&model.StreamSettings{},
		&model.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.StreamSettings{ID: model.StreamSettingsID}).Error
	if err != nil {
		return fmt.Errorf("seed stream settings: %w", err)
	}
	return nil
}
