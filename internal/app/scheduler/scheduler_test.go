package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/database/testutil"
	"github.com/assetdesk/assetdesk/internal/models"
	"github.com/assetdesk/assetdesk/internal/services"
)

func newScheduler(t *testing.T, db *gorm.DB, opts ...Option) *Scheduler {
	t.Helper()

	batches, err := services.NewNotificationBatchService(db)
	require.NoError(t, err)

	s, err := New(db, batches, opts...)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := models.User{
		Username: "user-" + suffix,
		Email:    "user-" + suffix + "@example.com",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedNotification(t *testing.T, db *gorm.DB, userID, message string, createdAt time.Time, isRead bool) models.Notification {
	t.Helper()

	row := models.Notification{
		UserID:   userID,
		Type:     models.NotificationTypeTicket,
		Category: "assignments",
		Title:    "Test Notification",
		Message:  message,
		IsRead:   isRead,
	}
	row.CreatedAt = createdAt
	require.NoError(t, db.Create(&row).Error)

	if isRead {
		require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", row.ID).Update("is_read", true).Error)
	}
	return row
}

func TestCleanupDeletesOnlyOldReadRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s := newScheduler(t, db, WithNow(func() time.Time { return now }), WithRetentionDays(30))

	cutoff := now.AddDate(0, 0, -30)

	oldRead := seedNotification(t, db, user.ID, "old read", cutoff.Add(-time.Hour), true)
	oldUnread := seedNotification(t, db, user.ID, "old unread", cutoff.Add(-time.Hour), false)
	atCutoff := seedNotification(t, db, user.ID, "exactly at cutoff", cutoff, true)
	recentRead := seedNotification(t, db, user.ID, "recent read", now.Add(-time.Hour), true)

	removed, err := s.CleanupOldNotifications(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.Notification
	require.NoError(t, db.Find(&remaining).Error)

	ids := make([]string, 0, len(remaining))
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	require.NotContains(t, ids, oldRead.ID)
	// Unread rows never expire, and created_at equal to the cutoff survives.
	require.Contains(t, ids, oldUnread.ID)
	require.Contains(t, ids, atCutoff.ID)
	require.Contains(t, ids, recentRead.ID)
}

func TestReactivateSnoozedForcesUnread(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s := newScheduler(t, db, WithNow(func() time.Time { return now }))

	elapsed := seedNotification(t, db, user.ID, "elapsed snooze", now.Add(-2*time.Hour), true)
	past := now.Add(-time.Minute)
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", elapsed.ID).
		Update("snoozed_until", past).Error)

	active := seedNotification(t, db, user.ID, "still snoozed", now.Add(-2*time.Hour), false)
	future := now.Add(time.Hour)
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", active.ID).
		Update("snoozed_until", future).Error)

	count, err := s.ReactivateSnoozed(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var reactivated models.Notification
	require.NoError(t, db.Where("id = ?", elapsed.ID).First(&reactivated).Error)
	require.Nil(t, reactivated.SnoozedUntil)
	require.False(t, reactivated.IsRead)

	var untouched models.Notification
	require.NoError(t, db.Where("id = ?", active.ID).First(&untouched).Error)
	require.NotNil(t, untouched.SnoozedUntil)
}

func TestAutoBatchCoversEveryUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	alice := seedUser(t, db)
	bob := seedUser(t, db)

	s := newScheduler(t, db)

	now := time.Now().UTC()
	for i, user := range []models.User{alice, bob} {
		base := now.Add(-time.Duration(i+1) * time.Minute)
		seedNotification(t, db, user.ID, "Ticket #A-1 has been assigned to you", base, false)
		seedNotification(t, db, user.ID, "Ticket #A-2 has been assigned to you", base.Add(30*time.Second), false)
	}

	require.NoError(t, s.AutoBatch(context.Background()))

	for _, user := range []models.User{alice, bob} {
		var rows []models.Notification
		require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
		require.Len(t, rows, 2)
		for _, row := range rows {
			require.NotNil(t, row.BatchID)
		}
		require.Equal(t, *rows[0].BatchID, *rows[1].BatchID)
	}
}

func TestRunOnceExecutesAllJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db)

	now := time.Now().UTC()
	s := newScheduler(t, db, WithRetentionDays(30))

	expired := seedNotification(t, db, user.ID, "ancient read row", now.AddDate(0, 0, -45), true)

	snoozed := seedNotification(t, db, user.ID, "snooze elapsed", now.Add(-time.Hour), true)
	past := now.Add(-time.Minute)
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", snoozed.ID).
		Update("snoozed_until", past).Error)

	seedNotification(t, db, user.ID, "Ticket #B-1 has been assigned to you", now.Add(-2*time.Minute), false)
	seedNotification(t, db, user.ID, "Ticket #B-2 has been assigned to you", now.Add(-time.Minute), false)

	require.NoError(t, s.RunOnce(context.Background()))

	var gone int64
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", expired.ID).Count(&gone).Error)
	require.Zero(t, gone)

	var reactivated models.Notification
	require.NoError(t, db.Where("id = ?", snoozed.ID).First(&reactivated).Error)
	require.Nil(t, reactivated.SnoozedUntil)
	require.False(t, reactivated.IsRead)

	var batched int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND batch_id IS NOT NULL", user.ID).
		Count(&batched).Error)
	require.EqualValues(t, 2, batched)
}

func TestRunOnceSkipsCleanupWhenDisabled(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db)

	now := time.Now().UTC()
	s := newScheduler(t, db, WithCleanupEnabled(false))

	keeper := seedNotification(t, db, user.ID, "ancient but kept", now.AddDate(0, 0, -90), true)

	require.NoError(t, s.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", keeper.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
