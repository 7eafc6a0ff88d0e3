package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/assetdesk/assetdesk/internal/auth"
	"github.com/assetdesk/assetdesk/internal/middleware"
	"github.com/assetdesk/assetdesk/internal/realtime"
	"github.com/assetdesk/assetdesk/internal/services"
	"github.com/assetdesk/assetdesk/pkg/errors"
	"github.com/assetdesk/assetdesk/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *realtime.Hub
	jwt     *iauth.JWTService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(db *gorm.DB, hub *realtime.Hub, jwt *iauth.JWTService) (*NotificationHandler, error) {
	service, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	return &NotificationHandler{
		service: service,
		hub:     hub,
		jwt:     jwt,
	}, nil
}

// List returns notifications for the current user, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListForUser(requestContext(c), services.ListNotificationsInput{
		UserID: userID,
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// ListBatched returns the batched view: batch groups reduced to single items
// plus the remaining individual notifications, newest first.
func (h *NotificationHandler) ListBatched(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListBatched(requestContext(c), userID, c.Query("lang"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// MarkRead marks the submitted notification ids as read; an empty list marks
// everything the caller owns.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		NotificationIDs []string `json:"notification_ids"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	updated, err := h.service.MarkRead(requestContext(c), userID, payload.NotificationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "notifications marked as read",
		"updated": updated,
	})
}

// Delete removes one of the caller's notifications.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(requestContext(c), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "notification deleted"})
}

// Snooze hides one of the caller's notifications until the supplied time.
func (h *NotificationHandler) Snooze(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		SnoozedUntil time.Time `json:"snoozed_until" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Snooze(requestContext(c), userID, id, payload.SnoozedUntil); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "notification snoozed"})
}

// Create allows administrators to create a notification for any user.
func (h *NotificationHandler) Create(c *gin.Context) {
	var payload struct {
		UserID   string `json:"user_id" validate:"required"`
		Type     string `json:"type" validate:"required,notification_type"`
		Category string `json:"category"`
		Title    string `json:"title" validate:"required,max=255"`
		Message  string `json:"message"`
		EntityID string `json:"entity_id"`
		Priority string `json:"priority"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	dto, err := h.service.Create(requestContext(c), services.CreateNotificationInput{
		UserID:   payload.UserID,
		Type:     payload.Type,
		Category: payload.Category,
		Title:    payload.Title,
		Message:  payload.Message,
		EntityID: payload.EntityID,
		Priority: payload.Priority,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// Broadcast allows administrators to announce to every user or to one role.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var payload struct {
		Title      string `json:"title" validate:"required,max=255"`
		Message    string `json:"message"`
		TitleAr    string `json:"title_ar"`
		MessageAr  string `json:"message_ar"`
		TargetRole string `json:"target_role"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	params := services.BroadcastParams{
		Title:     payload.Title,
		Message:   payload.Message,
		TitleAr:   payload.TitleAr,
		MessageAr: payload.MessageAr,
	}

	var (
		created []services.NotificationDTO
		err     error
	)
	if role := strings.TrimSpace(payload.TargetRole); role != "" {
		created, err = h.service.NotifyByRole(requestContext(c), role, params)
	} else {
		created, err = h.service.NotifySystem(requestContext(c), params)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	result := gin.H{
		"message":    "broadcast sent",
		"title":      payload.Title,
		"user_count": len(created),
	}
	if payload.TargetRole != "" {
		result["target_role"] = payload.TargetRole
	}

	response.Success(c, http.StatusOK, result)
}

// Stream upgrades the connection to a WebSocket for notification streaming.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}

	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.hub.Serve(claims.UserID, c.Writer, c.Request)
}
