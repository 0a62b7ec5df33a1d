package database

import (
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
)

// AutoMigrate creates or updates the database schema for all engine models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationPreference{},
		&models.NotificationTemplate{},
	)
}

// SeedTemplates installs the default notification templates when none exist
// for their (type, method) key. Existing rows are left untouched so operators
// can customise content without migrations fighting them.
func SeedTemplates(db *gorm.DB) error {
	defaults := []models.NotificationTemplate{
		{
			Type:            models.TypeJobPosted,
			Method:          models.MethodWebsocket,
			TitleTemplate:   "New Job: {job_title}",
			MessageTemplate: "{company_name} posted a job that may match your profile.",
			IsActive:        true,
		},
		{
			Type:            models.TypeJobPosted,
			Method:          models.MethodEmail,
			TitleTemplate:   "New job opening: {job_title}",
			MessageTemplate: "{company_name} just posted {job_title}. Sign in to apply.",
			IsActive:        true,
		},
		{
			Type:            models.TypeApplicationReceived,
			Method:          models.MethodWebsocket,
			TitleTemplate:   "New application for {job_title}",
			MessageTemplate: "{applicant_name} applied to {job_title}.",
			IsActive:        true,
		},
		{
			Type:            models.TypeMatchScoreCalculated,
			Method:          models.MethodWebsocket,
			TitleTemplate:   "Match score ready",
			MessageTemplate: "Your application scored {score} for {job_title}.",
			IsActive:        true,
		},
		{
			Type:            models.TypeInterviewScheduled,
			Method:          models.MethodWebsocket,
			TitleTemplate:   "Interview scheduled",
			MessageTemplate: "Your interview for {job_title} is scheduled for {scheduled_at}.",
			IsActive:        true,
		},
	}

	for _, tpl := range defaults {
		err := db.
			Where(models.NotificationTemplate{Type: tpl.Type, Method: tpl.Method}).
			Attrs(tpl).
			FirstOrCreate(&models.NotificationTemplate{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// AutoMigrateAndSeed convenience helper used during application start-up.
func AutoMigrateAndSeed(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return err
	}
	return SeedTemplates(db)
}
