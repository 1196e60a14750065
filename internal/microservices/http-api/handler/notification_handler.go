package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schooladmin/internal/microservices/http-api/dto"
	"schooladmin/internal/microservices/http-api/middleware"
	"schooladmin/internal/microservices/http-api/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	write := middleware.RequireScopes(service.ScopeNotificationsWrite)

	rg.GET("", h.List)
	rg.DELETE("", write, h.ClearAll)
	rg.PUT("/read-all", write, h.MarkAllAsRead)
	rg.PUT("/:id/read", write, h.MarkAsRead)
	rg.GET("/:id/consultation", h.ConsultationDetail)
}

// List returns the notification list, newest arrival first, with the unread badge count
func (h *NotificationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewNotificationListResponse(h.svc.Snapshot()))
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.svc.MarkAsRead(c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllAsRead is what opening the notification panel triggers
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	h.svc.MarkAllAsRead()
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ClearAll(c *gin.Context) {
	h.svc.ClearAll()
	c.Status(http.StatusNoContent)
}

// ConsultationDetail resolves a consultation notification against the last fetched feed
func (h *NotificationHandler) ConsultationDetail(c *gin.Context) {
	detail, err := h.svc.ConsultationDetail(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, detail)
	case errors.Is(err, service.ErrNotificationNotFound), errors.Is(err, service.ErrDetailUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
