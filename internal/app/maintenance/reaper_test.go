package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/database/testutil"
	"github.com/hireloop/hireloop/internal/models"
)

func seedNotification(t *testing.T, db *gorm.DB, expiresAt *time.Time) string {
	t.Helper()
	n := &models.Notification{
		RecipientID: uuid.NewString(),
		Type:        models.TypeSystemUpdate,
		Title:       "expiring",
		Priority:    models.PriorityNormal,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, db.Create(n).Error)
	return n.ID
}

func TestReaperRemovesOnlyExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := seedNotification(t, db, &past)
	fresh := seedNotification(t, db, &future)
	unexpiring := seedNotification(t, db, nil)

	reaper, err := NewReaper(db, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	removed, err := reaper.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []string
	require.NoError(t, db.Model(&models.Notification{}).Pluck("id", &remaining).Error)
	require.ElementsMatch(t, []string{fresh, unexpiring}, remaining)
	require.NotContains(t, remaining, expired)
}

func TestReaperSweepsInBatches(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	for i := 0; i < 12; i++ {
		seedNotification(t, db, &past)
	}

	reaper, err := NewReaper(db,
		WithNow(func() time.Time { return now }),
		WithBatchSize(5))
	require.NoError(t, err)

	removed, err := reaper.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 12, removed)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestReaperRunOnceEmptyIsNoOp(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	reaper, err := NewReaper(db)
	require.NoError(t, err)

	removed, err := reaper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, removed)

	// Re-running immediately after a sweep stays a no-op.
	removed, err = reaper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, removed)
}
