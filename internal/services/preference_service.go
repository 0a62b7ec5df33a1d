package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
	apperrors "github.com/hireloop/hireloop/pkg/errors"
)

// UpdatePreferenceInput carries a partial preference update. Nil fields leave
// the stored value untouched; MethodOverrides replaces the stored map wholesale
// when non-nil.
type UpdatePreferenceInput struct {
	JobPosted                *bool
	ApplicationReceived      *bool
	ApplicationStatusChanged *bool
	MatchScoreCalculated     *bool
	InterviewScheduled       *bool
	MessageReceived          *bool
	SystemUpdate             *bool

	DefaultMethod   *models.DeliveryMethod
	MethodOverrides map[string]models.DeliveryMethod
}

// PreferenceService manages per-user notification gates and delivery methods.
// Preference rows are materialised lazily: a user without a row behaves as if
// every gate were enabled with websocket delivery.
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(db *gorm.DB) (*PreferenceService, error) {
	if db == nil {
		return nil, errors.New("preference service: db is required")
	}
	return &PreferenceService{db: db}, nil
}

// Get returns the user's preference row, creating the all-enabled default on
// first access. Concurrent first accesses race on the unique user index; the
// loser of that race re-reads the winner's row.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("preference service: user id is required")
	}

	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("preference service: load preference: %w", err)
	}

	pref = models.DefaultNotificationPreference(userID)
	if err := s.db.WithContext(ctx).Create(&pref).Error; err != nil {
		if isUniqueConstraintError(err) {
			var existing models.NotificationPreference
			if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("preference service: reload preference: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("preference service: create default preference: %w", err)
	}
	return &pref, nil
}

// GetBatch bulk-loads preference rows for the supplied users in one query.
// Users without a stored row receive the in-memory default; the batch path
// never writes.
func (s *PreferenceService) GetBatch(ctx context.Context, userIDs []string) (map[string]models.NotificationPreference, error) {
	ctx = ensureContext(ctx)
	ids := normaliseIDs(userIDs)
	out := make(map[string]models.NotificationPreference, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.NotificationPreference
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("preference service: load preferences: %w", err)
	}

	for _, row := range rows {
		out[row.UserID] = row
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = models.DefaultNotificationPreference(id)
		}
	}
	return out, nil
}

// Update applies a partial preference update and returns the resulting row.
func (s *PreferenceService) Update(ctx context.Context, userID string, input UpdatePreferenceInput) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	if input.DefaultMethod != nil && !input.DefaultMethod.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid delivery method %q", *input.DefaultMethod))
	}
	for notificationType, method := range input.MethodOverrides {
		if !method.Valid() {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid delivery method %q for type %q", method, notificationType))
		}
	}

	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	applyGate(updates, "job_posted", input.JobPosted, &pref.JobPosted)
	applyGate(updates, "application_received", input.ApplicationReceived, &pref.ApplicationReceived)
	applyGate(updates, "application_status_changed", input.ApplicationStatusChanged, &pref.ApplicationStatusChanged)
	applyGate(updates, "match_score_calculated", input.MatchScoreCalculated, &pref.MatchScoreCalculated)
	applyGate(updates, "interview_scheduled", input.InterviewScheduled, &pref.InterviewScheduled)
	applyGate(updates, "message_received", input.MessageReceived, &pref.MessageReceived)
	applyGate(updates, "system_update", input.SystemUpdate, &pref.SystemUpdate)

	if input.DefaultMethod != nil {
		updates["default_method"] = *input.DefaultMethod
		pref.DefaultMethod = *input.DefaultMethod
	}
	if input.MethodOverrides != nil {
		overrides := make(datatypes.JSONMap, len(input.MethodOverrides))
		for notificationType, method := range input.MethodOverrides {
			overrides[notificationType] = string(method)
		}
		updates["method_overrides"] = overrides
		pref.MethodOverrides = overrides
	}

	if len(updates) == 0 {
		return pref, nil
	}

	if err := s.db.WithContext(ctx).Model(pref).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("preference service: update preference: %w", err)
	}
	return pref, nil
}

func applyGate(updates map[string]any, column string, input *bool, field *bool) {
	if input == nil {
		return
	}
	updates[column] = *input
	*field = *input
}
