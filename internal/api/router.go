package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/assetdesk/assetdesk/internal/app"
	iauth "github.com/assetdesk/assetdesk/internal/auth"
	"github.com/assetdesk/assetdesk/internal/handlers"
	"github.com/assetdesk/assetdesk/internal/middleware"
	"github.com/assetdesk/assetdesk/internal/realtime"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// notification routes. The core platform mounts its own CRUD routers under
// /api alongside these.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *realtime.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	notificationHandler, err := handlers.NewNotificationHandler(db, hub, jwt)
	if err != nil {
		return nil, err
	}

	preferencesHandler, err := handlers.NewNotificationPreferencesHandler(db)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	registerNotificationRoutes(api, notificationHandler, preferencesHandler)

	return r, nil
}
