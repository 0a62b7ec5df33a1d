package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/delivery"
	"github.com/hireloop/hireloop/internal/models"
	apperrors "github.com/hireloop/hireloop/pkg/errors"
	"github.com/hireloop/hireloop/pkg/logger"
	"github.com/hireloop/hireloop/pkg/metrics"
)

const (
	createBatchSize = 200
	dispatchTimeout = 30 * time.Second
)

// NotificationDTO is the API-facing shape of a persisted notification.
type NotificationDTO struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_id"`
	Type        string               `json:"notification_type"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Data        map[string]any       `json:"data,omitempty"`
	Priority    string               `json:"priority"`
	IsRead      bool                 `json:"is_read"`
	IsSent      bool                 `json:"is_sent"`
	CreatedAt   time.Time            `json:"created_at"`
	ReadAt      *time.Time           `json:"read_at,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	Raw         *models.Notification `json:"-"`
}

// CreateNotificationInput defines the attributes of a single notification.
// Title and Message act as literal fallbacks when no template matches the
// recipient's (type, method) pair; TemplateVars feeds placeholder substitution.
type CreateNotificationInput struct {
	RecipientID  string
	Type         string
	Title        string
	Message      string
	Payload      models.Payload
	Priority     models.Priority
	ExpiresAt    *time.Time
	TemplateVars map[string]string

	// Silent persists the record without any delivery handoff.
	Silent bool
}

// CreateBulkInput fans one notification out to many recipients.
type CreateBulkInput struct {
	RecipientIDs []string
	Type         string
	Title        string
	Message      string
	Payload      models.Payload
	Priority     models.Priority
	ExpiresAt    *time.Time
	TemplateVars map[string]string
	Silent       bool
}

// CreateResult is the outcome of a single create. A preference gate that
// blocks the notification is a normal outcome, not an error: Suppressed is set,
// Notification is nil and no row exists.
type CreateResult struct {
	Notification *NotificationDTO
	Suppressed   bool
	Reason       string
}

// NotificationService is the write path of the notification engine: it
// validates, gates on recipient preferences, renders content and persists, then
// hands committed rows to the delivery router.
type NotificationService struct {
	db        *gorm.DB
	prefs     *PreferenceService
	templates *TemplateService
	router    *delivery.Router
	publisher delivery.Publisher
	log       *zap.Logger

	syncDispatch bool
}

// NotificationOption customises a NotificationService.
type NotificationOption func(*NotificationService)

// WithSynchronousDispatch makes delivery handoff run inline instead of in a
// goroutine, for deterministic tests.
func WithSynchronousDispatch() NotificationOption {
	return func(s *NotificationService) { s.syncDispatch = true }
}

// NewNotificationService constructs a NotificationService. The router and
// publisher may be nil, which disables delivery and acknowledgment events.
func NewNotificationService(db *gorm.DB, prefs *PreferenceService, templates *TemplateService, router *delivery.Router, publisher delivery.Publisher, opts ...NotificationOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	if prefs == nil {
		return nil, errors.New("notification service: preference service is required")
	}
	if templates == nil {
		return nil, errors.New("notification service: template service is required")
	}

	s := &NotificationService{
		db:        db,
		prefs:     prefs,
		templates: templates,
		router:    router,
		publisher: publisher,
		log:       logger.WithModule("notifications"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates, gates and persists one notification, then hands it to the
// delivery router after commit. Delivery never blocks or fails the call.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*CreateResult, error) {
	ctx = ensureContext(ctx)

	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, apperrors.NewBadRequest("recipient id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, apperrors.NewBadRequest("notification type is required")
	}
	priority, err := resolvePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	if err := s.requireRecipient(ctx, recipientID); err != nil {
		return nil, err
	}

	pref, err := s.prefs.Get(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !pref.Enabled(notificationType) {
		metrics.NotificationsSuppressed.WithLabelValues(notificationType).Inc()
		s.log.Debug("notification suppressed by preference",
			zap.String("recipient_id", recipientID),
			zap.String("notification_type", notificationType))
		return &CreateResult{
			Suppressed: true,
			Reason:     fmt.Sprintf("recipient preferences disable %s notifications", notificationType),
		}, nil
	}

	method := pref.MethodFor(notificationType)
	title, message := s.renderContent(ctx, notificationType, method, input.Title, input.Message, input.TemplateVars)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required when no template matches")
	}

	data, err := encodeData(input.Payload)
	if err != nil {
		return nil, err
	}

	notification := models.Notification{
		RecipientID: recipientID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		Data:        data,
		Priority:    priority,
		ExpiresAt:   input.ExpiresAt,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notificationType).Inc()

	if !input.Silent {
		s.dispatch(&notification, method)
	}

	dto := mapNotification(notification)
	return &CreateResult{Notification: &dto}, nil
}

// CreateBulk fans one notification out to many recipients with two reads and
// one batched write: unknown recipients and disabled gates are skipped
// silently, survivors are inserted together and routed individually after
// commit.
func (s *NotificationService) CreateBulk(ctx context.Context, input CreateBulkInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)

	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, apperrors.NewBadRequest("notification type is required")
	}
	priority, err := resolvePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	recipientIDs := normaliseIDs(input.RecipientIDs)
	if len(recipientIDs) == 0 {
		return nil, apperrors.NewBadRequest("at least one recipient is required")
	}

	var knownIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", recipientIDs).
		Pluck("id", &knownIDs).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve recipients: %w", err)
	}
	if skipped := len(recipientIDs) - len(knownIDs); skipped > 0 {
		s.log.Debug("bulk create skipping unknown recipients",
			zap.String("notification_type", notificationType),
			zap.Int("skipped", skipped))
	}
	if len(knownIDs) == 0 {
		return nil, nil
	}

	prefs, err := s.prefs.GetBatch(ctx, knownIDs)
	if err != nil {
		return nil, err
	}

	data, err := encodeData(input.Payload)
	if err != nil {
		return nil, err
	}

	// Rendered content only varies by delivery method, so cache per method
	// instead of re-rendering per recipient.
	rendered := make(map[models.DeliveryMethod][2]string)
	contentFor := func(method models.DeliveryMethod) (string, string) {
		if cached, ok := rendered[method]; ok {
			return cached[0], cached[1]
		}
		title, message := s.renderContent(ctx, notificationType, method, input.Title, input.Message, input.TemplateVars)
		rendered[method] = [2]string{title, message}
		return title, message
	}

	var (
		rows    []models.Notification
		methods = make(map[string]models.DeliveryMethod, len(knownIDs))
	)
	for _, recipientID := range knownIDs {
		pref := prefs[recipientID]
		if !pref.Enabled(notificationType) {
			metrics.NotificationsSuppressed.WithLabelValues(notificationType).Inc()
			continue
		}

		method := pref.MethodFor(notificationType)
		title, message := contentFor(method)
		if title == "" {
			return nil, apperrors.NewBadRequest("title is required when no template matches")
		}

		methods[recipientID] = method
		rows = append(rows, models.Notification{
			RecipientID: recipientID,
			Type:        notificationType,
			Title:       title,
			Message:     message,
			Data:        data,
			Priority:    priority,
			ExpiresAt:   input.ExpiresAt,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&rows, createBatchSize).Error; err != nil {
		return nil, fmt.Errorf("notification service: bulk create: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notificationType).Add(float64(len(rows)))

	dtos := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		if !input.Silent {
			s.dispatch(&rows[i], methods[rows[i].RecipientID])
		}
		dtos = append(dtos, mapNotification(rows[i]))
	}
	return dtos, nil
}

func (s *NotificationService) requireRecipient(ctx context.Context, recipientID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", recipientID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("notification service: resolve recipient: %w", err)
	}
	if count == 0 {
		return apperrors.ErrRecipientNotFound
	}
	return nil
}

// renderContent resolves the notification's title and message, preferring the
// stored template for the recipient's delivery method and falling back to the
// literal input.
func (s *NotificationService) renderContent(ctx context.Context, notificationType string, method models.DeliveryMethod, title, message string, vars map[string]string) (string, string) {
	if tpl, ok := s.templates.Render(ctx, notificationType, method, vars); ok {
		return tpl.Title, tpl.Message
	}
	return strings.TrimSpace(title), strings.TrimSpace(message)
}

func (s *NotificationService) dispatch(n *models.Notification, method models.DeliveryMethod) {
	if s.router == nil {
		return
	}
	if s.syncDispatch {
		s.router.Route(context.Background(), n, method)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		s.router.Route(ctx, n, method)
	}()
}

func resolvePriority(priority models.Priority) (models.Priority, error) {
	if priority == "" {
		return models.PriorityNormal, nil
	}
	if !priority.Valid() {
		return "", apperrors.NewBadRequest(fmt.Sprintf("invalid priority %q", priority))
	}
	return priority, nil
}

func encodeData(payload models.Payload) (datatypes.JSON, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := models.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("notification service: encode payload: %w", err)
	}
	return data, nil
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          row.ID,
		RecipientID: row.RecipientID,
		Type:        row.Type,
		Title:       row.Title,
		Message:     row.Message,
		Data:        decodeJSON(row.Data),
		Priority:    string(row.Priority),
		IsRead:      row.IsRead,
		IsSent:      row.IsSent,
		CreatedAt:   row.CreatedAt,
		ReadAt:      row.ReadAt,
		ExpiresAt:   row.ExpiresAt,
		Raw:         &row,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
