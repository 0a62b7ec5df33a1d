package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/delivery"
	"github.com/hireloop/hireloop/internal/models"
	apperrors "github.com/hireloop/hireloop/pkg/errors"
)

func (f *serviceFixture) createSilent(t *testing.T, recipient, notificationType, title string) *NotificationDTO {
	t.Helper()
	result, err := f.svc.Create(context.Background(), CreateNotificationInput{
		RecipientID: recipient,
		Type:        notificationType,
		Title:       title,
		Message:     "body",
		Silent:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Notification)
	return result.Notification
}

func TestMarkReadTransitionsAndAcknowledges(t *testing.T) {
	f := newServiceFixture(t)
	recipient := f.seedUser(t, "reader@example.com")
	created := f.createSilent(t, recipient, models.TypeMessageReceived, "unread")

	read, err := f.svc.MarkRead(context.Background(), recipient, created.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	events := f.publisher.published()
	require.Len(t, events, 1)
	ack, ok := events[0].Event.(delivery.ReadAckEvent)
	require.True(t, ok)
	require.Equal(t, delivery.EventReadAck, ack.Type)
	require.Equal(t, created.ID, ack.NotificationID)
	require.Equal(t, *read.ReadAt, ack.ReadAt)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	recipient := f.seedUser(t, "repeat@example.com")
	created := f.createSilent(t, recipient, models.TypeMessageReceived, "read twice")

	first, err := f.svc.MarkRead(context.Background(), recipient, created.ID)
	require.NoError(t, err)

	second, err := f.svc.MarkRead(context.Background(), recipient, created.ID)
	require.NoError(t, err)
	require.True(t, second.IsRead)
	require.WithinDuration(t, *first.ReadAt, *second.ReadAt, time.Second)

	// Only the first transition emits an acknowledgment.
	require.Len(t, f.publisher.published(), 1)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	f := newServiceFixture(t)
	owner := f.seedUser(t, "owner@example.com")
	intruder := f.seedUser(t, "intruder@example.com")
	created := f.createSilent(t, owner, models.TypeMessageReceived, "private")

	_, err := f.svc.MarkRead(context.Background(), intruder, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.MarkRead(context.Background(), owner, uuid.NewString())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	f := newServiceFixture(t)
	recipient := f.seedUser(t, "bulkread@example.com")
	f.createSilent(t, recipient, models.TypeMessageReceived, "one")
	f.createSilent(t, recipient, models.TypeMessageReceived, "two")
	f.createSilent(t, recipient, models.TypeJobPosted, "three")

	count, err := f.svc.MarkAllRead(context.Background(), recipient, "")
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	events := f.publisher.published()
	require.Len(t, events, 1)
	ack, ok := events[0].Event.(delivery.BulkReadAckEvent)
	require.True(t, ok)
	require.Equal(t, delivery.EventBulkReadAck, ack.Type)
	require.EqualValues(t, 3, ack.Count)

	var unread int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Count(&unread).Error)
	require.Zero(t, unread)

	// Nothing left unread: no rows touched, no event.
	count, err = f.svc.MarkAllRead(context.Background(), recipient, "")
	require.NoError(t, err)
	require.Zero(t, count)
	require.Len(t, f.publisher.published(), 1)
}

func TestMarkAllReadFilteredByType(t *testing.T) {
	f := newServiceFixture(t)
	recipient := f.seedUser(t, "typed@example.com")
	f.createSilent(t, recipient, models.TypeMessageReceived, "message")
	f.createSilent(t, recipient, models.TypeJobPosted, "job")

	count, err := f.svc.MarkAllRead(context.Background(), recipient, models.TypeMessageReceived)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	events := f.publisher.published()
	require.Len(t, events, 1)
	ack, ok := events[0].Event.(delivery.BulkReadAckEvent)
	require.True(t, ok)
	require.Equal(t, models.TypeMessageReceived, ack.NotificationType)

	var unread int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Count(&unread).Error)
	require.EqualValues(t, 1, unread)
}

func TestDeleteScopedToOwner(t *testing.T) {
	f := newServiceFixture(t)
	owner := f.seedUser(t, "deleter@example.com")
	other := f.seedUser(t, "bystander@example.com")
	created := f.createSilent(t, owner, models.TypeSystemUpdate, "temporary")

	require.ErrorIs(t, f.svc.Delete(context.Background(), other, created.ID), apperrors.ErrNotFound)
	require.NoError(t, f.svc.Delete(context.Background(), owner, created.ID))
	require.ErrorIs(t, f.svc.Delete(context.Background(), owner, created.ID), apperrors.ErrNotFound)
}
