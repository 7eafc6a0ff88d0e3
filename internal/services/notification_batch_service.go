package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
	apperrors "github.com/assetdesk/assetdesk/pkg/errors"
	"github.com/assetdesk/assetdesk/pkg/metrics"
)

// DefaultBatchWindowMinutes is the similarity window applied when the caller
// does not supply one.
const DefaultBatchWindowMinutes = 5

// BatchedNotification is the derived view of a group of notifications sharing
// a batch id. It is never persisted as its own row.
type BatchedNotification struct {
	BatchID         string    `json:"batch_id"`
	Count           int       `json:"count"`
	Type            string    `json:"type"`
	Category        string    `json:"category"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Priority        string    `json:"priority,omitempty"`
	IsRead          bool      `json:"is_read"`
	LatestTimestamp time.Time `json:"latest_timestamp"`
	NotificationIDs []string  `json:"notification_ids"`
}

// NotificationBatchService groups a user's recent unbatched notifications into
// similarity clusters and persists the grouping.
type NotificationBatchService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationBatchService constructs a NotificationBatchService.
func NewNotificationBatchService(db *gorm.DB) (*NotificationBatchService, error) {
	if db == nil {
		return nil, errors.New("notification batch service: db is required")
	}
	return &NotificationBatchService{db: db, now: time.Now}, nil
}

// BatchForUser clusters the user's unread, unbatched notifications created
// within the time window and assigns each surviving cluster a shared batch id.
// Singletons are never batched; rows already carrying a batch id are excluded,
// which makes repeated passes over the same data idempotent.
func (s *NotificationBatchService) BatchForUser(ctx context.Context, userID string, windowMinutes int) ([]BatchedNotification, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	if windowMinutes <= 0 {
		windowMinutes = DefaultBatchWindowMinutes
	}

	cutoff := s.now().Add(-time.Duration(windowMinutes) * time.Minute)

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ? AND batch_id IS NULL AND created_at >= ?", userID, false, cutoff).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification batch service: load candidates: %w", err)
	}

	if len(rows) < 2 {
		return nil, nil
	}

	clusters := clusterNotifications(rows, windowMinutes)

	language := s.userLanguage(ctx, userID)

	var batches []BatchedNotification
	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}

		batchID := uuid.NewString()
		ids := make([]string, 0, len(members))
		for _, member := range members {
			ids = append(ids, member.ID)
		}

		if err := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id IN ?", ids).
			Update("batch_id", batchID).Error; err != nil {
			return batches, fmt.Errorf("notification batch service: assign batch id: %w", err)
		}

		metrics.NotificationsBatched.Add(float64(len(ids)))
		batches = append(batches, reduceBatch(batchID, members, language))
	}

	return batches, nil
}

// clusterNotifications greedily assigns each row to the first cluster whose
// representative (first member) passes the pairwise similarity check, opening
// a new cluster otherwise. Rows must arrive in ascending created_at order.
func clusterNotifications(rows []models.Notification, windowMinutes int) [][]models.Notification {
	var clusters [][]models.Notification

next:
	for _, row := range rows {
		for i := range clusters {
			if shouldBatch(clusters[i][0], row, windowMinutes) {
				clusters[i] = append(clusters[i], row)
				continue next
			}
		}
		clusters = append(clusters, []models.Notification{row})
	}

	return clusters
}

// shouldBatch reports whether two notifications are similar enough to share a
// batch. Beyond owner, type, category and recency, a type-specific content
// check applies; it deliberately pattern-matches on the free-text message.
func shouldBatch(a, b models.Notification, windowMinutes int) bool {
	if a.UserID != b.UserID {
		return false
	}
	if a.Type != b.Type || a.Category != b.Category {
		return false
	}

	gap := a.CreatedAt.Sub(b.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap > time.Duration(windowMinutes)*time.Minute {
		return false
	}

	switch a.Type {
	case models.NotificationTypeTicket:
		return messagesBothContain(a, b, "assigned")
	case models.NotificationTypeAsset:
		return messagesBothContain(a, b, "assigned") || messagesBothContain(a, b, "maintenance")
	case models.NotificationTypeSystem:
		return a.Category == b.Category
	default:
		return false
	}
}

func messagesBothContain(a, b models.Notification, needle string) bool {
	return strings.Contains(strings.ToLower(a.Message), needle) &&
		strings.Contains(strings.ToLower(b.Message), needle)
}

// reduceBatch materialises the derived view for a group of rows sharing a
// batch id. The aggregate read flag is true only when every member is read.
func reduceBatch(batchID string, members []models.Notification, language string) BatchedNotification {
	batch := BatchedNotification{
		BatchID:         batchID,
		Count:           len(members),
		NotificationIDs: make([]string, 0, len(members)),
		IsRead:          true,
	}

	for i, member := range members {
		if i == 0 {
			batch.Type = member.Type
			batch.Category = member.Category
			batch.Priority = member.Priority
			batch.LatestTimestamp = member.CreatedAt
		}
		if member.CreatedAt.After(batch.LatestTimestamp) {
			batch.LatestTimestamp = member.CreatedAt
		}
		if !member.IsRead {
			batch.IsRead = false
		}
		batch.NotificationIDs = append(batch.NotificationIDs, member.ID)
	}

	batch.Title = generateBatchTitle(members, language)
	batch.Message = generateBatchMessage(members, language)
	return batch
}

var batchTitleTemplates = map[string]map[string]string{
	"en": {
		"ticket_assignments":    "{count} Tickets Assigned to You",
		"asset_assignments":     "{count} Assets Assigned to You",
		"ticket_status_changes": "{count} Ticket Status Updates",
		"maintenance":           "{count} Maintenance Alerts",
		"system":                "{count} System Announcements",
		"default":               "{count} New Notifications",
	},
	"ar": {
		"ticket_assignments":    "{count} تذاكر مسندة إليك",
		"asset_assignments":     "{count} أصول مسندة إليك",
		"ticket_status_changes": "{count} تحديثات على حالة التذاكر",
		"maintenance":           "{count} تنبيهات صيانة",
		"system":                "{count} إعلانات نظام",
		"default":               "{count} إشعارات جديدة",
	},
}

// generateBatchTitle renders the batch headline for the group's (type,
// category) combination. Templates only substitute {count}; no pluralisation
// rules apply beyond that.
func generateBatchTitle(members []models.Notification, language string) string {
	templates := batchTitleTemplates[normaliseLanguage(language)]

	first := members[0]
	key := "default"
	switch {
	case first.Type == models.NotificationTypeTicket && first.Category == "assignments":
		key = "ticket_assignments"
	case first.Type == models.NotificationTypeAsset && first.Category == "assignments":
		key = "asset_assignments"
	case first.Type == models.NotificationTypeTicket && first.Category == "status_changes":
		key = "ticket_status_changes"
	case first.Category == "maintenance":
		key = "maintenance"
	case first.Type == models.NotificationTypeSystem:
		key = "system"
	}

	return strings.ReplaceAll(templates[key], "{count}", strconv.Itoa(len(members)))
}

const batchMessagePreviewCap = 3

var (
	ticketRefPattern = regexp.MustCompile(`(?i)ticket\s+#?([A-Za-z0-9-]+)`)
	assetNamePattern = regexp.MustCompile(`(?i)asset\s+"([^"]+)"`)
)

// generateBatchMessage previews up to three member labels. Labels are pulled
// out of the free-text message (ticket reference after the word "ticket",
// quoted asset name after the word "asset") and fall back to the member's own
// title when neither pattern matches.
func generateBatchMessage(members []models.Notification, language string) string {
	language = normaliseLanguage(language)

	preview := members
	if len(preview) > batchMessagePreviewCap {
		preview = preview[:batchMessagePreviewCap]
	}

	labels := make([]string, 0, len(preview))
	for _, member := range preview {
		labels = append(labels, memberLabel(member))
	}

	separator := ", "
	if language == "ar" {
		separator = "، "
	}

	message := strings.Join(labels, separator)
	if remaining := len(members) - batchMessagePreviewCap; remaining > 0 {
		if language == "ar" {
			message += " و " + strconv.Itoa(remaining) + " آخرين"
		} else {
			message += " and " + strconv.Itoa(remaining) + " more"
		}
	}
	return message
}

func memberLabel(member models.Notification) string {
	if m := ticketRefPattern.FindStringSubmatch(member.Message); m != nil {
		return "#" + m[1]
	}
	if m := assetNamePattern.FindStringSubmatch(member.Message); m != nil {
		return m[1]
	}
	return member.Title
}

// userLanguage resolves the owner's UI language for summary generation,
// defaulting to English when the directory row is missing.
func (s *NotificationBatchService) userLanguage(ctx context.Context, userID string) string {
	var user models.User
	if err := s.db.WithContext(ctx).
		Select("id", "language").
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		return "en"
	}
	return normaliseLanguage(user.Language)
}
