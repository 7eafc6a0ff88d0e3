package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
	"github.com/assetdesk/assetdesk/internal/realtime"
	apperrors "github.com/assetdesk/assetdesk/pkg/errors"
	"github.com/assetdesk/assetdesk/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// clampListLimit applies the page-size bounds: non-positive values take the
// default, oversized values clamp to the maximum.
func clampListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Category     string     `json:"category,omitempty"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	EntityID     string     `json:"entity_id,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	IsRead       bool       `json:"is_read"`
	BatchID      *string    `json:"batch_id,omitempty"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID   string
	Type     string
	Category string
	Title    string
	Message  string
	EntityID string
	Priority string
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID string
	Limit  int
	Offset int
}

// FeedItem is one entry of the batched notification view: either a single
// notification or a reduced batch group.
type FeedItem struct {
	Kind         string               `json:"kind"` // "notification" | "batch"
	Notification *NotificationDTO     `json:"notification,omitempty"`
	Batch        *BatchedNotification `json:"batch,omitempty"`

	latest time.Time
}

// NotificationService manages user in-app notifications.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
	now func() time.Time
}

// NewNotificationService constructs a NotificationService. The hub is optional;
// when present, create/read/delete events are fanned out to connected clients.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub, now: time.Now}, nil
}

// Create registers a new notification and broadcasts the event.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, apperrors.NewBadRequest("type is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve user: %w", err)
	}
	if exists == 0 {
		return nil, ErrUserNotFound
	}

	notification := models.Notification{
		UserID:   userID,
		Type:     notificationType,
		Category: strings.TrimSpace(input.Category),
		Title:    title,
		Message:  strings.TrimSpace(input.Message),
		EntityID: strings.TrimSpace(input.EntityID),
		Priority: strings.TrimSpace(input.Priority),
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()

	dto := mapNotification(notification)
	s.broadcast(userID, "notification.created", &dto, "")
	return &dto, nil
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	limit := clampListLimit(input.Limit)

	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	return mapNotificationRows(rows), nil
}

// ListBatched returns the batched view of a user's notifications: batch groups
// reduced to a single derived item, unbatched rows as-is, newest first.
func (s *NotificationService) ListBatched(ctx context.Context, userID, language string) ([]FeedItem, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: load notifications: %w", err)
	}

	groups := make(map[string][]models.Notification)
	var order []string
	items := make([]FeedItem, 0, len(rows))

	for _, row := range rows {
		if row.BatchID == nil || *row.BatchID == "" {
			dto := mapNotification(row)
			items = append(items, FeedItem{Kind: "notification", Notification: &dto, latest: row.CreatedAt})
			continue
		}
		if _, seen := groups[*row.BatchID]; !seen {
			order = append(order, *row.BatchID)
		}
		groups[*row.BatchID] = append(groups[*row.BatchID], row)
	}

	for _, batchID := range order {
		batch := reduceBatch(batchID, groups[batchID], language)
		items = append(items, FeedItem{Kind: "batch", Batch: &batch, latest: batch.LatestTimestamp})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].latest.After(items[j].latest)
	})

	return items, nil
}

// MarkRead marks the supplied notification ids as read for the user. An empty
// id list marks every notification the user owns, preserving the behaviour the
// web client has always relied on for its "mark all read" button.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperrors.NewBadRequest("user id is required")
	}

	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)

	if ids := normaliseIDs(notificationIDs); len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	result := query.Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark read: %w", result.Error)
	}

	s.broadcast(userID, "notification.read", nil, "")
	return result.RowsAffected, nil
}

// Delete removes a notification owned by the supplied user. The delete is
// scoped to the owner so one user can never remove another user's rows.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.broadcast(userID, "notification.deleted", nil, notificationID)
	return nil
}

// Snooze hides a notification until the supplied timestamp. The lifecycle
// scheduler reactivates it as unread once the wall clock passes it.
func (s *NotificationService) Snooze(ctx context.Context, userID, notificationID string, until time.Time) error {
	ctx = ensureContext(ctx)
	if !until.After(s.now()) {
		return apperrors.NewBadRequest("snooze time must be in the future")
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("snoozed_until", until)
	if result.Error != nil {
		return fmt.Errorf("notification service: snooze notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *NotificationService) broadcast(userID, event string, dto *NotificationDTO, notificationID string) {
	if s.hub == nil {
		return
	}

	payload := realtime.Event{Event: event, NotificationID: notificationID}
	if dto != nil {
		payload.Notification = dto
		payload.NotificationID = dto.ID
	}
	s.hub.Broadcast(userID, payload)
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         row.Type,
		Category:     row.Category,
		Title:        row.Title,
		Message:      row.Message,
		EntityID:     row.EntityID,
		Priority:     row.Priority,
		IsRead:       row.IsRead,
		BatchID:      row.BatchID,
		SnoozedUntil: row.SnoozedUntil,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
