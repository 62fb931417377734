package database

import (
	"fmt"
	"log"
	"time"

	"github.com/stockpulse/stockpulse/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens the database connection and migrates the schema
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schema
	if err := db.AutoMigrate(
		&models.PriceAlert{},
		&models.Notification{},
		&models.UserNotificationPreference{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// OpenWithRetry opens the database with bounded exponential backoff. An
// unreachable store at startup is fatal to the caller once attempts are
// exhausted; there is no runtime reconnect loop.
func OpenWithRetry(dsn string, attempts int) (*gorm.DB, error) {
	backoff := time.Second
	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := Open(dsn)
		if err == nil {
			log.Println("Database initialized successfully")
			return db, nil
		}
		lastErr = err
		log.Printf("Database open attempt %d/%d failed: %v", i+1, attempts, err)
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
