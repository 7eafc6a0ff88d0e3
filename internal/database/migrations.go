package database

import (
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationPreferences{},
	)
}

// SeedData populates the default administrator account used for first login.
func SeedData(db *gorm.DB) error {
	admin := models.User{
		BaseModel: models.BaseModel{ID: "admin"},
		Username:  "admin",
		Email:     "admin@assetdesk.local",
		Role:      "admin",
		Language:  "en",
		IsActive:  true,
	}

	return db.Where(models.User{Username: admin.Username}).Attrs(admin).FirstOrCreate(&models.User{}).Error
}
