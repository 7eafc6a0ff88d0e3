package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/database/testutil"
	"github.com/assetdesk/assetdesk/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedUser(t *testing.T, db *gorm.DB, language string) models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := models.User{
		Username: "user-" + suffix,
		Email:    "user-" + suffix + "@example.com",
		Role:     "employee",
		Language: language,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedNotification(t *testing.T, db *gorm.DB, userID, notifType, category, message string, createdAt time.Time) models.Notification {
	t.Helper()

	row := models.Notification{
		UserID:   userID,
		Type:     notifType,
		Category: category,
		Title:    "Test Notification",
		Message:  message,
	}
	row.CreatedAt = createdAt
	require.NoError(t, db.Create(&row).Error)
	return row
}

func reloadNotification(t *testing.T, db *gorm.DB, id string) models.Notification {
	t.Helper()

	var row models.Notification
	require.NoError(t, db.Where("id = ?", id).First(&row).Error)
	return row
}
