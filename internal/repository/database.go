package repository

import (
	"fmt"
	"os"

	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.User{},
		&models.School{},
		&models.Class{},
		&models.ClassMember{},
		&models.Topic{},
		&models.Classwork{},
		&models.Announcement{},
		&models.ReadMarker{},
		&models.Submission{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.ChatMessage{},
		&models.RefreshToken{},
		&models.PendingNotification{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
