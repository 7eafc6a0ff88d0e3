package api

import (
	"github.com/gin-gonic/gin"

	"github.com/assetdesk/assetdesk/internal/handlers"
	"github.com/assetdesk/assetdesk/internal/middleware"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, preferences *handlers.NotificationPreferencesHandler) {
	group := api.Group("/notifications")
	{
		group.GET("", handler.List)
		group.GET("/batched", handler.ListBatched)
		group.GET("/stream", handler.Stream)
		group.POST("/mark-read", handler.MarkRead)
		group.POST("/:id/snooze", handler.Snooze)
		group.DELETE("/:id", handler.Delete)

		group.GET("/preferences", preferences.Get)
		group.PUT("/preferences", preferences.Update)

		group.POST("", middleware.RequireRole("admin"), handler.Create)
		group.POST("/broadcast", middleware.RequireRole("admin"), handler.Broadcast)
	}
}
