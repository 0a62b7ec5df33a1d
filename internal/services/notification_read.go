package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/delivery"
	"github.com/hireloop/hireloop/internal/models"
	apperrors "github.com/hireloop/hireloop/pkg/errors"
)

// MarkRead records the unread-to-read transition for one notification owned by
// the user. Re-reading an already-read notification is an idempotent success
// that emits no event and leaves the original read_at untouched.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var notification models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	if notification.IsRead {
		dto := mapNotification(notification)
		return &dto, nil
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now

	s.publishAck(notification.RecipientID, delivery.NewReadAckEvent(notification.ID, now))

	dto := mapNotification(notification)
	return &dto, nil
}

// MarkAllRead marks every unread notification for the user as read in one
// update, optionally restricted to a single notification type. It returns the
// number of rows transitioned and emits one bulk acknowledgment when any did.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID, notificationType string) (int64, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperrors.NewBadRequest("user id is required")
	}

	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false)
	if notificationType = strings.TrimSpace(notificationType); notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	result := query.Updates(map[string]any{
		"is_read": true,
		"read_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.publishAck(userID, delivery.NewBulkReadAckEvent(notificationType, result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// Delete removes a notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// publishAck forwards a read acknowledgment to the user's live sessions.
// Acknowledgments are best-effort; the state change already committed.
func (s *NotificationService) publishAck(userID string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(userID, event); err != nil {
		s.log.Warn("acknowledgment publish failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}
