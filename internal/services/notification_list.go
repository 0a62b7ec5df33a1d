package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
	apperrors "github.com/hireloop/hireloop/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// priorityRankExpr orders urgent before high before normal before low; rows
// carrying an unrecognised priority sort with normal.
const priorityRankExpr = "CASE priority" +
	" WHEN 'urgent' THEN 3" +
	" WHEN 'high' THEN 2" +
	" WHEN 'low' THEN 0" +
	" ELSE 1 END DESC, created_at DESC"

// ListNotificationsInput defines filters for querying a user's notifications.
type ListNotificationsInput struct {
	UserID string
	Type   string
	IsRead *bool
	Limit  int
	Offset int
}

// ListResult carries one page of notifications with the counters the client
// renders alongside it. Limit and Offset are the effective values after
// defaulting and clamping, so callers can echo them back for pagination.
type ListResult struct {
	Notifications []NotificationDTO
	TotalCount    int64
	UnreadCount   int64
	Limit         int
	Offset        int
	HasMore       bool
}

// List returns the user's notifications ordered by priority rank then recency.
// TotalCount reflects the filtered scope, UnreadCount ignores the IsRead
// filter, and expired rows awaiting the reaper are excluded everywhere.
func (s *NotificationService) List(ctx context.Context, input ListNotificationsInput) (*ListResult, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	now := time.Now().UTC()
	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("recipient_id = ?", userID).
			Where("expires_at IS NULL OR expires_at > ?", now)
		if notificationType := strings.TrimSpace(input.Type); notificationType != "" {
			q = q.Where("type = ?", notificationType)
		}
		return q
	}

	filtered := scope()
	if input.IsRead != nil {
		filtered = filtered.Where("is_read = ?", *input.IsRead)
	}

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var unread int64
	if err := scope().Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("notification service: count unread: %w", err)
	}

	var rows []models.Notification
	if err := filtered.
		Order(priorityRankExpr).
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	return &ListResult{
		Notifications: mapNotificationRows(rows),
		TotalCount:    total,
		UnreadCount:   unread,
		Limit:         limit,
		Offset:        offset,
		HasMore:       int64(offset+limit) < total,
	}, nil
}
