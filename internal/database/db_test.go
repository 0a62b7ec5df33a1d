package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/models"
)

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:migrate_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "notifications", "notification_preferences", "notification_templates"} {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	user := models.User{Email: "seeker@example.com", Role: "job_seeker", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	require.NotEmpty(t, user.ID)

	expires := time.Now().Add(time.Hour)
	notification := models.Notification{
		RecipientID: user.ID,
		Type:        models.TypeJobPosted,
		Title:       "New Job: Go Engineer",
		Priority:    models.PriorityNormal,
		ExpiresAt:   &expires,
	}
	require.NoError(t, db.Create(&notification).Error)
	require.NotEmpty(t, notification.ID)
	require.False(t, notification.IsRead)
}

func TestSeedTemplatesIsIdempotent(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:seed_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrateAndSeed(db))
	require.NoError(t, SeedTemplates(db))

	var count int64
	require.NoError(t, db.Model(&models.NotificationTemplate{}).
		Where("notification_templates.type = ? AND method = ?", models.TypeJobPosted, models.MethodWebsocket).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}
