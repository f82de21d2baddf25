package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"convo_backend/internal/models"
	"convo_backend/internal/models/chat"
)

// Connect opens the postgres pool with the settings the app runs on.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AutoMigrate creates the chat schema and all tables, plus the indexes gorm
// tags cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS chat").Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserBlock{},
		&chat.Conversation{},
		&chat.ConversationParticipant{},
		&chat.Message{},
		&chat.MessageReaction{},
	); err != nil {
		return err
	}

	// One active direct conversation per user pair. Partial uniqueness keeps
	// deactivated rows from blocking a fresh conversation.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_active_direct_pair
		ON chat.conversations (pair_key)
		WHERE type = 'direct' AND is_active = true AND pair_key IS NOT NULL
	`).Error
}
