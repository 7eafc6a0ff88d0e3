package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/middleware"
	"github.com/assetdesk/assetdesk/internal/services"
	"github.com/assetdesk/assetdesk/pkg/errors"
	"github.com/assetdesk/assetdesk/pkg/response"
)

// NotificationPreferencesHandler exposes the per-user opt-in flags.
type NotificationPreferencesHandler struct {
	service *services.NotificationPreferencesService
}

// NewNotificationPreferencesHandler constructs a preferences handler.
func NewNotificationPreferencesHandler(db *gorm.DB) (*NotificationPreferencesHandler, error) {
	service, err := services.NewNotificationPreferencesService(db)
	if err != nil {
		return nil, err
	}
	return &NotificationPreferencesHandler{service: service}, nil
}

// Get returns the caller's preferences, creating the default row on first read.
func (h *NotificationPreferencesHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	prefs, err := h.service.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, prefs)
}

// Update replaces all of the caller's preference flags.
func (h *NotificationPreferencesHandler) Update(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload services.PreferencesInput
	if !bindAndValidate(c, &payload) {
		return
	}

	prefs, err := h.service.Update(requestContext(c), userID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, prefs)
}
