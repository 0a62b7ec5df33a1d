package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/hireloop/internal/middleware"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/services"
	"github.com/hireloop/hireloop/pkg/errors"
	"github.com/hireloop/hireloop/pkg/response"
)

// PreferenceHandler exposes HTTP endpoints for notification preferences.
type PreferenceHandler struct {
	service *services.PreferenceService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(service *services.PreferenceService) (*PreferenceHandler, error) {
	if service == nil {
		return nil, errors.New("handlers.invalid", "preference service is required", http.StatusInternalServerError)
	}
	return &PreferenceHandler{service: service}, nil
}

// Get returns the current user's preferences, materialising defaults on first access.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	pref, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}

type updatePreferencesPayload struct {
	JobPosted                *bool `json:"job_posted"`
	ApplicationReceived      *bool `json:"application_received"`
	ApplicationStatusChanged *bool `json:"application_status_changed"`
	MatchScoreCalculated     *bool `json:"match_score_calculated"`
	InterviewScheduled       *bool `json:"interview_scheduled"`
	MessageReceived          *bool `json:"message_received"`
	SystemUpdate             *bool `json:"system_update"`

	DefaultMethod   *string           `json:"default_method"`
	MethodOverrides map[string]string `json:"method_overrides"`
}

// Update applies a partial preference update for the current user.
func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload updatePreferencesPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	input := services.UpdatePreferenceInput{
		JobPosted:                payload.JobPosted,
		ApplicationReceived:      payload.ApplicationReceived,
		ApplicationStatusChanged: payload.ApplicationStatusChanged,
		MatchScoreCalculated:     payload.MatchScoreCalculated,
		InterviewScheduled:       payload.InterviewScheduled,
		MessageReceived:          payload.MessageReceived,
		SystemUpdate:             payload.SystemUpdate,
	}
	if payload.DefaultMethod != nil {
		method := models.DeliveryMethod(*payload.DefaultMethod)
		input.DefaultMethod = &method
	}
	if payload.MethodOverrides != nil {
		input.MethodOverrides = make(map[string]models.DeliveryMethod, len(payload.MethodOverrides))
		for notificationType, method := range payload.MethodOverrides {
			input.MethodOverrides[notificationType] = models.DeliveryMethod(method)
		}
	}

	pref, err := h.service.Update(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}
