package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/hireloop/internal/cache"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/pkg/logger"
	"github.com/hireloop/hireloop/pkg/metrics"
)

const (
	// DefaultQueueLimit bounds each recipient's backlog to its newest entries.
	DefaultQueueLimit = 100
	// DefaultQueueTTL expires an untouched backlog after roughly nine days.
	DefaultQueueTTL = 9 * 24 * time.Hour

	offlineKeyPrefix = "notifications:offline:"
)

// Snapshot is the slice of a notification preserved in an offline backlog.
// It is independent of the persisted row; the row may be read or even reaped
// before the backlog replays.
type Snapshot struct {
	NotificationID string          `json:"notification_id"`
	Type           string          `json:"notification_type"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Data           json.RawMessage `json:"data,omitempty"`
	Priority       string          `json:"priority"`
	QueuedAt       time.Time       `json:"queued_at"`
}

// OfflineQueue is a bounded, expiring, per-recipient backlog of notification
// snapshots awaiting replay. Entries are kept in insertion order; when the cap
// is exceeded the oldest entries are evicted first.
type OfflineQueue struct {
	store     cache.ListStore
	publisher Publisher
	limit     int
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// QueueOption customises an OfflineQueue.
type QueueOption func(*OfflineQueue)

// WithQueueLimit overrides the per-recipient entry cap.
func WithQueueLimit(limit int) QueueOption {
	return func(q *OfflineQueue) {
		if limit > 0 {
			q.limit = limit
		}
	}
}

// WithQueueTTL overrides the backlog time-to-live.
func WithQueueTTL(ttl time.Duration) QueueOption {
	return func(q *OfflineQueue) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithQueueClock overrides the clock used for replay annotations, for tests.
func WithQueueClock(now func() time.Time) QueueOption {
	return func(q *OfflineQueue) {
		if now != nil {
			q.now = now
		}
	}
}

// NewOfflineQueue constructs a queue over the supplied list store. The
// publisher receives replayed entries during Drain.
func NewOfflineQueue(store cache.ListStore, publisher Publisher, opts ...QueueOption) *OfflineQueue {
	q := &OfflineQueue{
		store:     store,
		publisher: publisher,
		limit:     DefaultQueueLimit,
		ttl:       DefaultQueueTTL,
		log:       logger.WithModule("offline_queue"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SnapshotOf captures the queueable slice of a notification.
func (q *OfflineQueue) SnapshotOf(n *models.Notification) Snapshot {
	return Snapshot{
		NotificationID: n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Data:           json.RawMessage(n.Data),
		Priority:       string(n.Priority),
		QueuedAt:       q.now().UTC(),
	}
}

// Enqueue appends a snapshot to the recipient's backlog, evicting the oldest
// entry once the cap is reached and refreshing the backlog TTL.
func (q *OfflineQueue) Enqueue(ctx context.Context, recipientID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("offline queue: encode snapshot: %w", err)
	}

	if err := q.store.PushCapped(ctx, offlineKey(recipientID), payload, q.limit, q.ttl); err != nil {
		return fmt.Errorf("offline queue: append: %w", err)
	}

	metrics.NotificationsQueued.Inc()
	return nil
}

// Drain replays the recipient's backlog over the push channel, annotating each
// entry as queued, then clears the backlog. Replay is best-effort: entries
// that fail to decode or publish are logged and skipped so one bad entry never
// wedges the backlog.
func (q *OfflineQueue) Drain(ctx context.Context, recipientID string) (int, error) {
	key := offlineKey(recipientID)

	entries, err := q.store.Range(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("offline queue: read backlog: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	deliveredAt := q.now().UTC()
	replayed := 0
	for _, entry := range entries {
		var snap Snapshot
		if err := json.Unmarshal(entry, &snap); err != nil {
			q.log.Warn("skipping undecodable backlog entry",
				zap.String("recipient_id", recipientID), zap.Error(err))
			continue
		}

		event := NotificationEvent{
			Type:             EventNotification,
			NotificationID:   snap.NotificationID,
			NotificationType: snap.Type,
			Title:            snap.Title,
			Message:          snap.Message,
			Data:             snap.Data,
			Priority:         snap.Priority,
			Queued:           true,
			DeliveredAt:      &deliveredAt,
		}
		if err := q.publisher.Publish(recipientID, event); err != nil {
			q.log.Warn("backlog replay publish failed",
				zap.String("recipient_id", recipientID),
				zap.String("notification_id", snap.NotificationID),
				zap.Error(err))
			continue
		}
		replayed++
	}

	if err := q.store.Delete(ctx, key); err != nil {
		return replayed, fmt.Errorf("offline queue: clear backlog: %w", err)
	}

	metrics.NotificationsReplayed.Add(float64(replayed))
	return replayed, nil
}

// Len reports the current backlog depth for a recipient.
func (q *OfflineQueue) Len(ctx context.Context, recipientID string) (int, error) {
	entries, err := q.store.Range(ctx, offlineKey(recipientID))
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func offlineKey(recipientID string) string {
	return offlineKeyPrefix + recipientID
}
