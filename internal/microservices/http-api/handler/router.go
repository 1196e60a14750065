package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schooladmin/internal/microservices/http-api/middleware"
	"schooladmin/internal/microservices/http-api/service"
	"schooladmin/internal/microservices/websocket"
	"schooladmin/internal/notification"
)

// RouterDeps wires the HTTP surface of the admin backend.
type RouterDeps struct {
	Logger        *slog.Logger
	Auth          service.AuthService
	Notifications service.NotificationService
	Consultations service.ConsultationService
	Refresher     Refresher
	Hub           *websocket.Hub
	Upgrader      *gws.Upgrader
	Ping          func(ctx context.Context) error // database liveness, optional
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))

	r.GET("/health", healthHandler(deps))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws/notifications",
		middleware.AuthMiddleware(deps.Auth, true),
		middleware.RequireAdmin(),
		websocket.WSHandler(deps.Hub, deps.Upgrader),
	)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Auth, false), middleware.RequireAdmin())

	NewNotificationHandler(deps.Notifications).RegisterRoutes(api.Group("/notifications"))
	NewConsultationHandler(deps.Consultations, deps.Refresher).RegisterRoutes(api.Group("/consultations"))

	return r
}

func healthHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := deps.Notifications.Snapshot()
		body := gin.H{
			"status": "ok",
			"push":   snap.ConnectionState.String(),
		}
		status := http.StatusOK

		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["database"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		// a spent push channel degrades the dashboard but the API stays usable
		if snap.ConnectionState == notification.Exhausted {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}
