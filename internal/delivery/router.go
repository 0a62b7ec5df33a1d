package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/pkg/logger"
	"github.com/hireloop/hireloop/pkg/mail"
	"github.com/hireloop/hireloop/pkg/metrics"
)

// PushTransport signals an external mobile push provider. The engine only
// decides when the transport fires; delivery guarantees are the provider's.
type PushTransport interface {
	Send(ctx context.Context, userID string, event NotificationEvent) error
}

// Router decides, per notification, whether delivery happens live over the
// push channel, lands in the recipient's offline backlog, or fires an
// external transport signal. Every path is best-effort: the notification row
// is already committed by the time Route runs, and no delivery failure
// propagates back to the creator.
type Router struct {
	db        *gorm.DB
	publisher Publisher
	presence  PresenceOracle
	queue     *OfflineQueue
	mailer    mail.Mailer
	transport PushTransport
	log       *zap.Logger
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithMailer attaches the email transport signal.
func WithMailer(m mail.Mailer) RouterOption {
	return func(r *Router) { r.mailer = m }
}

// WithPushTransport attaches the mobile push transport signal.
func WithPushTransport(t PushTransport) RouterOption {
	return func(r *Router) { r.transport = t }
}

// NewRouter constructs a Router.
func NewRouter(db *gorm.DB, publisher Publisher, presence PresenceOracle, queue *OfflineQueue, opts ...RouterOption) (*Router, error) {
	if db == nil {
		return nil, errors.New("delivery router: db is required")
	}
	if publisher == nil || presence == nil {
		return nil, errors.New("delivery router: publisher and presence oracle are required")
	}
	if queue == nil {
		return nil, errors.New("delivery router: offline queue is required")
	}

	r := &Router{
		db:        db,
		publisher: publisher,
		presence:  presence,
		queue:     queue,
		log:       logger.WithModule("delivery"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Queue exposes the router's offline queue for reconnect-drain wiring.
func (r *Router) Queue() *OfflineQueue {
	return r.queue
}

// Route performs delivery for one committed notification using the
// recipient's effective method. It never returns delivery failures to the
// caller; they are logged and absorbed here.
func (r *Router) Route(ctx context.Context, n *models.Notification, method models.DeliveryMethod) {
	if n == nil {
		return
	}

	if method.IncludesLive() {
		r.routeLive(ctx, n)
	}

	if method.IncludesEmail() {
		r.signalEmail(ctx, n)
	}

	if method.IncludesPush() {
		r.signalPush(ctx, n)
	}
}

// routeLive pushes to a reachable recipient, or parks a snapshot in the
// offline backlog. The reachability decision is made before the push attempt;
// a failed push to a connected recipient does not re-queue, the record simply
// waits in their notification list.
func (r *Router) routeLive(ctx context.Context, n *models.Notification) {
	if !r.presence.IsOnline(n.RecipientID) {
		if err := r.queue.Enqueue(ctx, n.RecipientID, r.queue.SnapshotOf(n)); err != nil {
			r.log.Warn("offline enqueue failed",
				zap.String("notification_id", n.ID),
				zap.String("recipient_id", n.RecipientID),
				zap.Error(err))
		}
		return
	}

	if err := r.publisher.Publish(n.RecipientID, NewNotificationEvent(n)); err != nil {
		metrics.NotificationsPushed.WithLabelValues("failure").Inc()
		r.log.Warn("live push failed",
			zap.String("notification_id", n.ID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
		return
	}

	metrics.NotificationsPushed.WithLabelValues("success").Inc()
	r.markSent(ctx, n)
}

func (r *Router) markSent(ctx context.Context, n *models.Notification) {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", n.ID).
		Update("is_sent", true).Error
	if err != nil {
		r.log.Warn("mark sent failed", zap.String("notification_id", n.ID), zap.Error(err))
		return
	}
	n.IsSent = true
}

func (r *Router) signalEmail(ctx context.Context, n *models.Notification) {
	if r.mailer == nil {
		return
	}

	address, err := r.recipientEmail(ctx, n.RecipientID)
	if err != nil {
		r.log.Warn("email signal skipped",
			zap.String("notification_id", n.ID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
		return
	}

	err = r.mailer.Send(ctx, mail.Message{
		To:      []string{address},
		Subject: n.Title,
		Body:    n.Message,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		r.log.Warn("email signal failed",
			zap.String("notification_id", n.ID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
	}
}

func (r *Router) signalPush(ctx context.Context, n *models.Notification) {
	if r.transport == nil {
		return
	}

	if err := r.transport.Send(ctx, n.RecipientID, NewNotificationEvent(n)); err != nil {
		r.log.Warn("push transport signal failed",
			zap.String("notification_id", n.ID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
	}
}

func (r *Router) recipientEmail(ctx context.Context, recipientID string) (string, error) {
	var user struct{ Email string }
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("email").
		Where("id = ?", recipientID).
		First(&user).Error
	if err != nil {
		return "", fmt.Errorf("resolve recipient email: %w", err)
	}
	if user.Email == "" {
		return "", errors.New("recipient has no email address")
	}
	return user.Email, nil
}
