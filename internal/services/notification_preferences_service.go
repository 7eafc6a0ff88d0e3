package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
	apperrors "github.com/assetdesk/assetdesk/pkg/errors"
)

// PreferencesInput carries the full set of opt-in flags for a replace-style update.
type PreferencesInput struct {
	TicketAssignments   bool `json:"ticket_assignments"`
	TicketStatusChanges bool `json:"ticket_status_changes"`
	AssetAssignments    bool `json:"asset_assignments"`
	MaintenanceAlerts   bool `json:"maintenance_alerts"`
	UpgradeRequests     bool `json:"upgrade_requests"`
	SystemAnnouncements bool `json:"system_announcements"`
	EmployeeChanges     bool `json:"employee_changes"`
}

// NotificationPreferencesService coordinates per-user notification opt-in flags.
type NotificationPreferencesService struct {
	db *gorm.DB
}

// NewNotificationPreferencesService constructs a NotificationPreferencesService.
func NewNotificationPreferencesService(db *gorm.DB) (*NotificationPreferencesService, error) {
	if db == nil {
		return nil, errors.New("notification preferences service: db is required")
	}
	return &NotificationPreferencesService{db: db}, nil
}

// Get returns the user's preferences, creating the all-true default row the
// first time a user's preferences are requested.
func (s *NotificationPreferencesService) Get(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var prefs models.NotificationPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("notification preferences service: load preferences: %w", err)
	}

	prefs = defaultPreferences(userID)
	if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
		// A concurrent first read may have created the row already.
		if isUniqueConstraintError(err) {
			if loadErr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; loadErr == nil {
				return &prefs, nil
			}
		}
		return nil, fmt.Errorf("notification preferences service: create defaults: %w", err)
	}

	return &prefs, nil
}

// Update replaces all flags for the user, creating the row when absent.
func (s *NotificationPreferencesService) Update(ctx context.Context, userID string, input PreferencesInput) (*models.NotificationPreferences, error) {
	ctx = ensureContext(ctx)

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs.TicketAssignments = input.TicketAssignments
	prefs.TicketStatusChanges = input.TicketStatusChanges
	prefs.AssetAssignments = input.AssetAssignments
	prefs.MaintenanceAlerts = input.MaintenanceAlerts
	prefs.UpgradeRequests = input.UpgradeRequests
	prefs.SystemAnnouncements = input.SystemAnnouncements
	prefs.EmployeeChanges = input.EmployeeChanges

	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, fmt.Errorf("notification preferences service: update preferences: %w", err)
	}

	return prefs, nil
}

func defaultPreferences(userID string) models.NotificationPreferences {
	return models.NotificationPreferences{
		UserID:              userID,
		TicketAssignments:   true,
		TicketStatusChanges: true,
		AssetAssignments:    true,
		MaintenanceAlerts:   true,
		UpgradeRequests:     true,
		SystemAnnouncements: true,
		EmployeeChanges:     true,
	}
}
