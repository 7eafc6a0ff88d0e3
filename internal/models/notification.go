package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification type tags. Category remains free-form and is only used by the
// batching similarity checks.
const (
	NotificationTypeAsset    = "Asset"
	NotificationTypeTicket   = "Ticket"
	NotificationTypeSystem   = "System"
	NotificationTypeEmployee = "Employee"
)

// Notification represents a single in-app notification for a user.
type Notification struct {
	BaseModel

	UserID   string `gorm:"type:uuid;index;not null" json:"user_id"`
	Type     string `gorm:"type:varchar(32);not null" json:"type"`
	Category string `gorm:"type:varchar(64)" json:"category"`
	Title    string `gorm:"type:varchar(255);not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`

	// EntityID loosely references the domain object the notification concerns.
	// No referential integrity is enforced here.
	EntityID string `gorm:"type:varchar(64)" json:"entity_id,omitempty"`

	Priority string         `gorm:"type:varchar(16)" json:"priority,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	// BatchID groups sibling notifications produced by one batching pass.
	// Set once; rows carrying a batch id are excluded from later passes.
	BatchID *string `gorm:"type:uuid;index" json:"batch_id,omitempty"`

	// SnoozedUntil hides the notification until the wall clock passes it,
	// after which the scheduler clears it and forces the row back to unread.
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

// NotificationPreferences stores per-user opt-in flags, one row per user,
// created lazily with all-true defaults on first read.
type NotificationPreferences struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	TicketAssignments   bool `gorm:"default:true" json:"ticket_assignments"`
	TicketStatusChanges bool `gorm:"default:true" json:"ticket_status_changes"`
	AssetAssignments    bool `gorm:"default:true" json:"asset_assignments"`
	MaintenanceAlerts   bool `gorm:"default:true" json:"maintenance_alerts"`
	UpgradeRequests     bool `gorm:"default:true" json:"upgrade_requests"`
	SystemAnnouncements bool `gorm:"default:true" json:"system_announcements"`
	EmployeeChanges     bool `gorm:"default:true" json:"employee_changes"`
}
