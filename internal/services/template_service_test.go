package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/database/testutil"
	"github.com/hireloop/hireloop/internal/models"
)

func TestTemplateRenderSubstitutesPlaceholders(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.NotificationTemplate{
		Type:            models.TypeJobPosted,
		Method:          models.MethodWebsocket,
		TitleTemplate:   "New opening at {company_name}",
		MessageTemplate: "{company_name} is hiring a {job_title}.",
	}).Error)

	rendered, ok := svc.Render(context.Background(), models.TypeJobPosted, models.MethodWebsocket, map[string]string{
		"company_name": "Acme",
		"job_title":    "Go Engineer",
	})
	require.True(t, ok)
	require.Equal(t, "New opening at Acme", rendered.Title)
	require.Equal(t, "Acme is hiring a Go Engineer.", rendered.Message)
}

func TestTemplateRenderLeavesUnknownPlaceholders(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.NotificationTemplate{
		Type:          models.TypeSystemUpdate,
		Method:        models.MethodWebsocket,
		TitleTemplate: "Update to {component}",
	}).Error)

	rendered, ok := svc.Render(context.Background(), models.TypeSystemUpdate, models.MethodWebsocket, nil)
	require.True(t, ok)
	require.Equal(t, "Update to {component}", rendered.Title)
}

func TestTemplateRenderMissingIsNotAnError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	_, ok := svc.Render(context.Background(), models.TypeJobPosted, models.MethodEmail, nil)
	require.False(t, ok)
}

func TestTemplateRenderIgnoresInactiveAndPicksNewest(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	older := models.NotificationTemplate{
		Type:          models.TypeJobPosted,
		Method:        models.MethodWebsocket,
		TitleTemplate: "older",
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Model(&older).
		Update("created_at", time.Now().Add(-time.Hour).UTC()).Error)

	newer := models.NotificationTemplate{
		Type:          models.TypeJobPosted,
		Method:        models.MethodWebsocket,
		TitleTemplate: "newer",
	}
	require.NoError(t, db.Create(&newer).Error)

	retired := models.NotificationTemplate{
		Type:          models.TypeJobPosted,
		Method:        models.MethodWebsocket,
		TitleTemplate: "retired",
	}
	require.NoError(t, db.Create(&retired).Error)
	require.NoError(t, db.Model(&retired).Updates(map[string]any{
		"is_active":  false,
		"created_at": time.Now().Add(time.Hour).UTC(),
	}).Error)

	rendered, ok := svc.Render(context.Background(), models.TypeJobPosted, models.MethodWebsocket, nil)
	require.True(t, ok)
	require.Equal(t, "newer", rendered.Title)
}

func TestTemplateSeededDefaultsRender(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedTemplates())
	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	rendered, ok := svc.Render(context.Background(), models.TypeJobPosted, models.MethodWebsocket, map[string]string{
		"job_title":    "Backend Engineer",
		"company_name": "Acme",
	})
	require.True(t, ok)
	require.Equal(t, "New Job: Backend Engineer", rendered.Title)
	require.Equal(t, "Acme posted a job that may match your profile.", rendered.Message)
}
