package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/middleware"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/realtime"
	"github.com/hireloop/hireloop/internal/services"
	"github.com/hireloop/hireloop/pkg/errors"
	"github.com/hireloop/hireloop/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *realtime.Hub
	jwt     *iauth.JWTService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService, hub *realtime.Hub, jwt *iauth.JWTService) (*NotificationHandler, error) {
	if service == nil {
		return nil, errors.New("handlers.invalid", "notification service is required", http.StatusInternalServerError)
	}
	return &NotificationHandler{service: service, hub: hub, jwt: jwt}, nil
}

// List returns notifications for the current user with paging metadata.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	result, err := h.service.List(c.Request.Context(), services.ListNotificationsInput{
		UserID: userID,
		Type:   strings.TrimSpace(c.Query("type")),
		IsRead: parseBoolQuery(c, "is_read"),
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// Echo the effective paging values, not the raw query input, so clients
	// paginating from the meta see the applied default and clamp.
	response.SuccessWithMeta(c, http.StatusOK, result.Notifications, &response.Meta{
		TotalCount:  result.TotalCount,
		UnreadCount: result.UnreadCount,
		Limit:       result.Limit,
		Offset:      result.Offset,
		HasMore:     result.HasMore,
	})
}

// MarkRead acknowledges a single notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	dto, err := h.service.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead acknowledges every unread notification, optionally one type.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), userID, strings.TrimSpace(c.Query("type")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": count})
}

// Delete removes a notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Stream upgrades the connection to a WebSocket for live notification pushes.
// Browsers cannot set headers on WebSocket requests, so the token may arrive
// as a query parameter instead.
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

type notifyPayload struct {
	RecipientID  string            `json:"recipient_id" binding:"required"`
	Type         string            `json:"notification_type" binding:"required"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Data         map[string]any    `json:"data"`
	Priority     string            `json:"priority"`
	ExpiresAt    *time.Time        `json:"expires_at"`
	TemplateVars map[string]string `json:"template_vars"`
}

type notifyBulkPayload struct {
	RecipientIDs []string          `json:"recipient_ids" binding:"required,min=1"`
	Type         string            `json:"notification_type" binding:"required"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Data         map[string]any    `json:"data"`
	Priority     string            `json:"priority"`
	ExpiresAt    *time.Time        `json:"expires_at"`
	TemplateVars map[string]string `json:"template_vars"`
}

// Notify lets internal services create a notification for one recipient.
func (h *NotificationHandler) Notify(c *gin.Context) {
	var payload notifyPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), services.CreateNotificationInput{
		RecipientID:  payload.RecipientID,
		Type:         payload.Type,
		Title:        payload.Title,
		Message:      payload.Message,
		Payload:      rawPayload(payload.Type, payload.Data),
		Priority:     models.Priority(payload.Priority),
		ExpiresAt:    payload.ExpiresAt,
		TemplateVars: payload.TemplateVars,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Suppressed {
		response.Success(c, http.StatusOK, gin.H{
			"suppressed": true,
			"reason":     result.Reason,
		})
		return
	}

	response.Success(c, http.StatusCreated, result.Notification)
}

// NotifyBulk lets internal services fan out one notification to many recipients.
func (h *NotificationHandler) NotifyBulk(c *gin.Context) {
	var payload notifyBulkPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	created, err := h.service.CreateBulk(c.Request.Context(), services.CreateBulkInput{
		RecipientIDs: payload.RecipientIDs,
		Type:         payload.Type,
		Title:        payload.Title,
		Message:      payload.Message,
		Payload:      rawPayload(payload.Type, payload.Data),
		Priority:     models.Priority(payload.Priority),
		ExpiresAt:    payload.ExpiresAt,
		TemplateVars: payload.TemplateVars,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"created": len(created), "notifications": created})
}

func rawPayload(notificationType string, data map[string]any) models.Payload {
	if len(data) == 0 {
		return nil
	}
	return models.RawPayload{Type: notificationType, Fields: data}
}
