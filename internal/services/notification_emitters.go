package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/models"
	apperrors "github.com/assetdesk/assetdesk/pkg/errors"
)

// Emitters translate domain events into persisted notification rows with
// deterministic bilingual templates. One insert per target user, no
// deduplication (grouping duplicates is the batching engine's job) and no
// retries; persistence failures bubble to the caller.

// TicketAssignmentParams describes a ticket handed to a user.
type TicketAssignmentParams struct {
	UserID       string
	TicketID     string
	TicketNumber string
	AssignedBy   string
	Language     string
}

// NotifyTicketAssigned records a ticket assignment for the assignee.
func (s *NotificationService) NotifyTicketAssigned(ctx context.Context, p TicketAssignmentParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeTicket,
		Category: "assignments",
		EntityID: p.TicketID,
		Priority: "normal",
		Title: pickText(p.Language,
			"New Ticket Assignment",
			"تذكرة جديدة مسندة إليك"),
		Message: pickText(p.Language,
			fmt.Sprintf("Ticket #%s has been assigned to you", p.TicketNumber),
			fmt.Sprintf("تم إسناد التذكرة #%s إليك", p.TicketNumber)),
	})
}

// NotifyUrgentTicket records an urgent ticket assignment.
func (s *NotificationService) NotifyUrgentTicket(ctx context.Context, p TicketAssignmentParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeTicket,
		Category: "assignments",
		EntityID: p.TicketID,
		Priority: "urgent",
		Title: pickText(p.Language,
			"Urgent Ticket Assignment",
			"تذكرة عاجلة مسندة إليك"),
		Message: pickText(p.Language,
			fmt.Sprintf("Urgent ticket #%s has been assigned to you and requires immediate attention", p.TicketNumber),
			fmt.Sprintf("تم إسناد التذكرة العاجلة #%s إليك وتتطلب اهتماماً فورياً", p.TicketNumber)),
	})
}

// TicketStatusParams describes a ticket status transition.
type TicketStatusParams struct {
	UserID       string
	TicketID     string
	TicketNumber string
	OldStatus    string
	NewStatus    string
	Language     string
}

// NotifyTicketStatusChanged records a status change on a ticket the user follows.
func (s *NotificationService) NotifyTicketStatusChanged(ctx context.Context, p TicketStatusParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeTicket,
		Category: "status_changes",
		EntityID: p.TicketID,
		Title: pickText(p.Language,
			"Ticket Status Updated",
			"تحديث حالة التذكرة"),
		Message: pickText(p.Language,
			fmt.Sprintf("Ticket #%s status changed from %s to %s", p.TicketNumber, p.OldStatus, p.NewStatus),
			fmt.Sprintf("تغيرت حالة التذكرة #%s من %s إلى %s", p.TicketNumber, p.OldStatus, p.NewStatus)),
	})
}

// AssetParams describes an asset event targeting a user.
type AssetParams struct {
	UserID    string
	AssetID   string
	AssetName string
	Language  string
}

// NotifyAssetAssigned records an asset assignment for the custodian.
func (s *NotificationService) NotifyAssetAssigned(ctx context.Context, p AssetParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "assignments",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Asset Assigned to You",
			"أصل مسند إليك"),
		Message: pickText(p.Language,
			fmt.Sprintf("Asset %q has been assigned to you", p.AssetName),
			fmt.Sprintf("تم إسناد الأصل %q إليك", p.AssetName)),
	})
}

// NotifyAssetCheckedOut records an asset check-out.
func (s *NotificationService) NotifyAssetCheckedOut(ctx context.Context, p AssetParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "custody",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Asset Checked Out",
			"تم تسليم أصل"),
		Message: pickText(p.Language,
			fmt.Sprintf("Asset %q has been checked out to you", p.AssetName),
			fmt.Sprintf("تم تسليم الأصل %q إليك", p.AssetName)),
	})
}

// NotifyAssetCheckedIn records an asset return.
func (s *NotificationService) NotifyAssetCheckedIn(ctx context.Context, p AssetParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "custody",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Asset Checked In",
			"تم استلام أصل"),
		Message: pickText(p.Language,
			fmt.Sprintf("Asset %q has been checked in", p.AssetName),
			fmt.Sprintf("تم استلام الأصل %q", p.AssetName)),
	})
}

// MaintenanceParams describes a scheduled or completed maintenance event.
type MaintenanceParams struct {
	UserID    string
	AssetID   string
	AssetName string
	Date      time.Time
	Cost      float64 // optional, 0 omits the cost suffix
	Language  string
}

// NotifyMaintenanceScheduled records upcoming maintenance on an asset.
func (s *NotificationService) NotifyMaintenanceScheduled(ctx context.Context, p MaintenanceParams) (*NotificationDTO, error) {
	message := pickText(p.Language,
		fmt.Sprintf("Maintenance for asset %q is scheduled on %s", p.AssetName, p.Date.Format("2006-01-02")),
		fmt.Sprintf("صيانة مجدولة للأصل %q بتاريخ %s", p.AssetName, p.Date.Format("2006-01-02")))
	if p.Cost > 0 {
		message += pickText(p.Language,
			fmt.Sprintf(" (estimated cost %.2f)", p.Cost),
			fmt.Sprintf(" (التكلفة التقديرية %.2f)", p.Cost))
	}

	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "maintenance",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Maintenance Scheduled",
			"صيانة مجدولة"),
		Message: message,
	})
}

// NotifyMaintenanceCompleted records finished maintenance on an asset.
func (s *NotificationService) NotifyMaintenanceCompleted(ctx context.Context, p MaintenanceParams) (*NotificationDTO, error) {
	message := pickText(p.Language,
		fmt.Sprintf("Maintenance for asset %q has been completed", p.AssetName),
		fmt.Sprintf("اكتملت صيانة الأصل %q", p.AssetName))
	if p.Cost > 0 {
		message += pickText(p.Language,
			fmt.Sprintf(" (total cost %.2f)", p.Cost),
			fmt.Sprintf(" (التكلفة الإجمالية %.2f)", p.Cost))
	}

	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "maintenance",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Maintenance Completed",
			"اكتملت الصيانة"),
		Message: message,
	})
}

// UpgradeParams describes an asset upgrade request or decision.
type UpgradeParams struct {
	UserID    string
	AssetID   string
	AssetName string
	Approved  bool
	Language  string
}

// NotifyUpgradeRequested records a new upgrade request for approvers.
func (s *NotificationService) NotifyUpgradeRequested(ctx context.Context, p UpgradeParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "upgrades",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Upgrade Requested",
			"طلب ترقية"),
		Message: pickText(p.Language,
			fmt.Sprintf("An upgrade for asset %q has been requested", p.AssetName),
			fmt.Sprintf("تم طلب ترقية للأصل %q", p.AssetName)),
	})
}

// NotifyUpgradeDecision records the approval or rejection of an upgrade request.
func (s *NotificationService) NotifyUpgradeDecision(ctx context.Context, p UpgradeParams) (*NotificationDTO, error) {
	var message string
	if p.Approved {
		message = pickText(p.Language,
			fmt.Sprintf("Your upgrade request for asset %q was approved", p.AssetName),
			fmt.Sprintf("تمت الموافقة على طلب ترقية الأصل %q", p.AssetName))
	} else {
		message = pickText(p.Language,
			fmt.Sprintf("Your upgrade request for asset %q was declined", p.AssetName),
			fmt.Sprintf("تم رفض طلب ترقية الأصل %q", p.AssetName))
	}

	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeAsset,
		Category: "upgrades",
		EntityID: p.AssetID,
		Title: pickText(p.Language,
			"Upgrade Request Decision",
			"قرار طلب الترقية"),
		Message: message,
	})
}

// EmployeeParams describes an onboarding/offboarding event.
type EmployeeParams struct {
	UserID       string
	EmployeeID   string
	EmployeeName string
	Language     string
}

// NotifyEmployeeOnboarded informs a user about a new employee joining.
func (s *NotificationService) NotifyEmployeeOnboarded(ctx context.Context, p EmployeeParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeEmployee,
		Category: "employee_changes",
		EntityID: p.EmployeeID,
		Title: pickText(p.Language,
			"Employee Onboarded",
			"انضمام موظف"),
		Message: pickText(p.Language,
			fmt.Sprintf("Employee %s has joined and onboarding tasks were created", p.EmployeeName),
			fmt.Sprintf("انضم الموظف %s وتم إنشاء مهام التهيئة", p.EmployeeName)),
	})
}

// NotifyEmployeeOffboarded informs a user about an employee leaving.
func (s *NotificationService) NotifyEmployeeOffboarded(ctx context.Context, p EmployeeParams) (*NotificationDTO, error) {
	return s.Create(ctx, CreateNotificationInput{
		UserID:   p.UserID,
		Type:     models.NotificationTypeEmployee,
		Category: "employee_changes",
		EntityID: p.EmployeeID,
		Title: pickText(p.Language,
			"Employee Offboarded",
			"مغادرة موظف"),
		Message: pickText(p.Language,
			fmt.Sprintf("Employee %s is leaving and offboarding tasks were created", p.EmployeeName),
			fmt.Sprintf("يغادر الموظف %s وتم إنشاء مهام المغادرة", p.EmployeeName)),
	})
}

// BroadcastParams describes a system announcement. The Arabic fields are
// optional; users whose language is Arabic fall back to the English text when
// they are empty.
type BroadcastParams struct {
	Title     string
	Message   string
	TitleAr   string
	MessageAr string
}

// NotifySystem creates one System notification per active user.
func (s *NotificationService) NotifySystem(ctx context.Context, p BroadcastParams) ([]NotificationDTO, error) {
	return s.broadcastToUsers(ctx, p, func(q *gorm.DB) *gorm.DB { return q })
}

// NotifyByRole creates one System notification per active user holding the
// given role. The role is resolved against the user directory at call time;
// a role matching no users creates zero rows and is not an error.
func (s *NotificationService) NotifyByRole(ctx context.Context, role string, p BroadcastParams) ([]NotificationDTO, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, apperrors.NewBadRequest("role is required")
	}
	return s.broadcastToUsers(ctx, p, func(q *gorm.DB) *gorm.DB {
		return q.Where("role = ?", role)
	})
}

func (s *NotificationService) broadcastToUsers(ctx context.Context, p BroadcastParams, scope func(*gorm.DB) *gorm.DB) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	var users []models.User
	if err := scope(s.db.WithContext(ctx).Where("is_active = ?", true)).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve broadcast targets: %w", err)
	}

	created := make([]NotificationDTO, 0, len(users))
	for _, user := range users {
		dto, err := s.Create(ctx, CreateNotificationInput{
			UserID:   user.ID,
			Type:     models.NotificationTypeSystem,
			Category: "announcements",
			Title:    pickText(user.Language, p.Title, p.TitleAr),
			Message:  pickText(user.Language, p.Message, p.MessageAr),
		})
		if err != nil {
			return created, err
		}
		created = append(created, *dto)
	}

	return created, nil
}
