package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assetdesk/assetdesk/internal/models"
	apperrors "github.com/assetdesk/assetdesk/pkg/errors"
)

func TestCreateValidatesInput(t *testing.T) {
	db := newTestDB(t)

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{
		Type:  models.NotificationTypeSystem,
		Title: "hello",
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{
		UserID: "user-1",
		Type:   models.NotificationTypeSystem,
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateNotificationInput{
		UserID: "no-such-user",
		Type:   models.NotificationTypeSystem,
		Title:  "hello",
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePersistsNotification(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	dto, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID:   user.ID,
		Type:     models.NotificationTypeTicket,
		Category: "assignments",
		Title:    "New Ticket Assignment",
		Message:  "Ticket #T-9 has been assigned to you",
		EntityID: "ticket-9",
		Priority: "normal",
	})
	require.NoError(t, err)
	require.NotEmpty(t, dto.ID)
	require.False(t, dto.IsRead)
	require.Nil(t, dto.BatchID)

	reloaded := reloadNotification(t, db, dto.ID)
	require.Equal(t, user.ID, reloaded.UserID)
	require.Equal(t, "assignments", reloaded.Category)
}

func TestListForUserOrdersAndLimits(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")
	other := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "oldest", now.Add(-3*time.Hour))
	seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "middle", now.Add(-2*time.Hour))
	newest := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "newest", now.Add(-time.Hour))
	seedNotification(t, db, other.ID, models.NotificationTypeSystem, "announcements", "not mine", now)

	items, err := svc.ListForUser(context.Background(), ListNotificationsInput{UserID: user.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, newest.ID, items[0].ID)
	require.Equal(t, "middle", items[1].Message)

	// An oversized limit clamps to the maximum page size, not the default.
	all, err := svc.ListForUser(context.Background(), ListNotificationsInput{UserID: user.ID, Limit: maxListLimit + 1})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestClampListLimit(t *testing.T) {
	require.Equal(t, defaultListLimit, clampListLimit(0))
	require.Equal(t, defaultListLimit, clampListLimit(-5))
	require.Equal(t, 25, clampListLimit(25))
	require.Equal(t, maxListLimit, clampListLimit(maxListLimit))
	require.Equal(t, maxListLimit, clampListLimit(maxListLimit+1))
	require.Equal(t, maxListLimit, clampListLimit(150))
}

func TestMarkReadScopedToSubmittedIDs(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	a := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "a", now.Add(-2*time.Minute))
	b := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "b", now.Add(-time.Minute))

	updated, err := svc.MarkRead(context.Background(), user.ID, []string{a.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	require.True(t, reloadNotification(t, db, a.ID).IsRead)
	require.False(t, reloadNotification(t, db, b.ID).IsRead)
}

func TestMarkReadEmptyListMarksEverything(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")
	other := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "a", now.Add(-2*time.Minute))
	seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "b", now.Add(-time.Minute))
	theirs := seedNotification(t, db, other.ID, models.NotificationTypeSystem, "announcements", "c", now)

	updated, err := svc.MarkRead(context.Background(), user.ID, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)
	require.False(t, reloadNotification(t, db, theirs.ID).IsRead)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")
	other := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	row := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "mine", time.Now().UTC())

	err = svc.Delete(context.Background(), other.ID, row.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), user.ID, row.ID))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("id = ?", row.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestSnoozeRejectsPastTimes(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	row := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements", "m", time.Now().UTC())

	err = svc.Snooze(context.Background(), user.ID, row.ID, time.Now().Add(-time.Minute))
	require.Error(t, err)

	until := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, svc.Snooze(context.Background(), user.ID, row.ID, until))

	reloaded := reloadNotification(t, db, row.ID)
	require.NotNil(t, reloaded.SnoozedUntil)
	require.True(t, reloaded.SnoozedUntil.Equal(until))

	err = svc.Snooze(context.Background(), user.ID, "missing-id", time.Now().Add(time.Hour))
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListBatchedCombinesGroupsAndSingles(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "en")

	batchSvc, err := NewNotificationBatchService(db)
	require.NoError(t, err)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	seedNotification(t, db, user.ID, models.NotificationTypeTicket, "assignments",
		"Ticket #T-1 has been assigned to you", now.Add(-3*time.Minute))
	seedNotification(t, db, user.ID, models.NotificationTypeTicket, "assignments",
		"Ticket #T-2 has been assigned to you", now.Add(-2*time.Minute))
	single := seedNotification(t, db, user.ID, models.NotificationTypeSystem, "announcements",
		"Maintenance window tonight", now.Add(-time.Minute))

	_, err = batchSvc.BatchForUser(context.Background(), user.ID, 5)
	require.NoError(t, err)

	items, err := svc.ListBatched(context.Background(), user.ID, "en")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first: the standalone announcement precedes the older batch.
	require.Equal(t, "notification", items[0].Kind)
	require.Equal(t, single.ID, items[0].Notification.ID)

	require.Equal(t, "batch", items[1].Kind)
	require.Equal(t, 2, items[1].Batch.Count)
	require.Equal(t, "2 Tickets Assigned to You", items[1].Batch.Title)
}
