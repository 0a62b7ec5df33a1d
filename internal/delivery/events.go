package delivery

import (
	"encoding/json"
	"time"

	"github.com/hireloop/hireloop/internal/models"
)

// Event type discriminators carried in the push channel's "type" field.
const (
	EventNotification = "notification"
	EventReadAck      = "notification_read_acknowledgment"
	EventBulkReadAck  = "bulk_read_acknowledgment"
)

// Publisher delivers an event to every live session of a user.
type Publisher interface {
	Publish(userID string, event any) error
}

// PresenceOracle answers whether a recipient is reachable for live delivery.
type PresenceOracle interface {
	IsOnline(userID string) bool
}

// NotificationEvent is the wire shape of a live notification push. Replayed
// backlog entries additionally carry Queued and DeliveredAt.
type NotificationEvent struct {
	Type             string          `json:"type"`
	NotificationID   string          `json:"notification_id"`
	NotificationType string          `json:"notification_type"`
	Title            string          `json:"title"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data,omitempty"`
	Priority         string          `json:"priority"`
	Queued           bool            `json:"queued,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
}

// NewNotificationEvent builds the push event for a persisted notification.
func NewNotificationEvent(n *models.Notification) NotificationEvent {
	return NotificationEvent{
		Type:             EventNotification,
		NotificationID:   n.ID,
		NotificationType: n.Type,
		Title:            n.Title,
		Message:          n.Message,
		Data:             json.RawMessage(n.Data),
		Priority:         string(n.Priority),
	}
}

// ReadAckEvent confirms a single unread-to-read transition to the user's
// other sessions.
type ReadAckEvent struct {
	Type           string    `json:"type"`
	NotificationID string    `json:"notification_id"`
	ReadAt         time.Time `json:"read_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReadAckEvent builds a single read acknowledgment.
func NewReadAckEvent(notificationID string, readAt time.Time) ReadAckEvent {
	return ReadAckEvent{
		Type:           EventReadAck,
		NotificationID: notificationID,
		ReadAt:         readAt,
		Timestamp:      time.Now().UTC(),
	}
}

// BulkReadAckEvent confirms a mark-all-read sweep.
type BulkReadAckEvent struct {
	Type             string    `json:"type"`
	NotificationType string    `json:"notification_type,omitempty"`
	Count            int64     `json:"count"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewBulkReadAckEvent builds a bulk read acknowledgment.
func NewBulkReadAckEvent(notificationType string, count int64) BulkReadAckEvent {
	return BulkReadAckEvent{
		Type:             EventBulkReadAck,
		NotificationType: notificationType,
		Count:            count,
		Timestamp:        time.Now().UTC(),
	}
}
