package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/app"
	iauth "github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/handlers"
	"github.com/hireloop/hireloop/internal/middleware"
	"github.com/hireloop/hireloop/internal/realtime"
	"github.com/hireloop/hireloop/internal/services"
)

// Dependencies bundles the wired services the router exposes over HTTP.
type Dependencies struct {
	DB            *gorm.DB
	JWT           *iauth.JWTService
	Hub           *realtime.Hub
	Notifications *services.NotificationService
	Preferences   *services.PreferenceService
	RateStore     middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Notifications == nil || deps.Preferences == nil {
		return nil, fmt.Errorf("notification and preference services must be provided")
	}

	notificationHandler, err := handlers.NewNotificationHandler(deps.Notifications, deps.Hub, deps.JWT)
	if err != nil {
		return nil, err
	}
	preferenceHandler, err := handlers.NewPreferenceHandler(deps.Preferences)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	// Basic rate limiting: 300 requests/minute per IP+path
	r.Use(middleware.RateLimit(deps.RateStore, 300, time.Minute))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(deps.DB))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")

	// The WebSocket endpoint authenticates inside the handler: browsers
	// cannot attach an Authorization header to the upgrade request.
	api.GET("/ws", notificationHandler.Stream)

	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.DELETE("/:id", notificationHandler.Delete)

		notifications.GET("/preferences", preferenceHandler.Get)
		notifications.PUT("/preferences", preferenceHandler.Update)
	}

	internal := api.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.Auth.Internal.Token))
	{
		internal.POST("/notify", notificationHandler.Notify)
		internal.POST("/notify/bulk", notificationHandler.NotifyBulk)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
