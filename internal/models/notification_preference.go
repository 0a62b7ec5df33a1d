package models

import (
	"strings"

	"gorm.io/datatypes"
)

// DeliveryMethod enumerates the channels a notification may travel through.
type DeliveryMethod string

const (
	MethodWebsocket DeliveryMethod = "websocket"
	MethodEmail     DeliveryMethod = "email"
	MethodPush      DeliveryMethod = "push"
	MethodBoth      DeliveryMethod = "both"
)

// Valid reports whether the method is one of the known values.
func (m DeliveryMethod) Valid() bool {
	switch m {
	case MethodWebsocket, MethodEmail, MethodPush, MethodBoth:
		return true
	}
	return false
}

// IncludesLive reports whether the method covers immediate websocket delivery.
func (m DeliveryMethod) IncludesLive() bool {
	return m == MethodWebsocket || m == MethodBoth
}

// IncludesEmail reports whether the method covers the email transport.
func (m DeliveryMethod) IncludesEmail() bool {
	return m == MethodEmail || m == MethodBoth
}

// IncludesPush reports whether the method covers the mobile push transport.
func (m DeliveryMethod) IncludesPush() bool {
	return m == MethodPush
}

// NotificationPreference holds one user's per-type gates and delivery method.
// A row is materialised lazily with every gate enabled the first time the
// user's preferences are consulted.
type NotificationPreference struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	JobPosted                bool `gorm:"not null;default:true" json:"job_posted"`
	ApplicationReceived      bool `gorm:"not null;default:true" json:"application_received"`
	ApplicationStatusChanged bool `gorm:"not null;default:true" json:"application_status_changed"`
	MatchScoreCalculated     bool `gorm:"not null;default:true" json:"match_score_calculated"`
	InterviewScheduled       bool `gorm:"not null;default:true" json:"interview_scheduled"`
	MessageReceived          bool `gorm:"not null;default:true" json:"message_received"`
	SystemUpdate             bool `gorm:"not null;default:true" json:"system_update"`

	DefaultMethod DeliveryMethod `gorm:"type:varchar(16);not null;default:'websocket'" json:"default_method"`

	// MethodOverrides maps a notification type to a method that takes
	// precedence over DefaultMethod for that type.
	MethodOverrides datatypes.JSONMap `json:"method_overrides,omitempty"`
}

// DefaultNotificationPreference returns the all-enabled preference row for a user.
func DefaultNotificationPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                   userID,
		JobPosted:                true,
		ApplicationReceived:      true,
		ApplicationStatusChanged: true,
		MatchScoreCalculated:     true,
		InterviewScheduled:       true,
		MessageReceived:          true,
		SystemUpdate:             true,
		DefaultMethod:            MethodWebsocket,
	}
}

// Enabled reports whether notifications of the supplied type may be created
// for this user. Types outside the known set are enabled; the gate columns
// only cover the platform's catalogued notification types.
func (p *NotificationPreference) Enabled(notificationType string) bool {
	switch notificationType {
	case TypeJobPosted:
		return p.JobPosted
	case TypeApplicationReceived:
		return p.ApplicationReceived
	case TypeApplicationStatusChanged:
		return p.ApplicationStatusChanged
	case TypeMatchScoreCalculated:
		return p.MatchScoreCalculated
	case TypeInterviewScheduled:
		return p.InterviewScheduled
	case TypeMessageReceived:
		return p.MessageReceived
	case TypeSystemUpdate:
		return p.SystemUpdate
	default:
		return true
	}
}

// MethodFor resolves the effective delivery method for a notification type,
// honouring a per-type override when one is present and valid.
func (p *NotificationPreference) MethodFor(notificationType string) DeliveryMethod {
	if raw, ok := p.MethodOverrides[notificationType]; ok {
		if s, ok := raw.(string); ok {
			method := DeliveryMethod(strings.ToLower(strings.TrimSpace(s)))
			if method.Valid() {
				return method
			}
		}
	}
	if p.DefaultMethod.Valid() {
		return p.DefaultMethod
	}
	return MethodWebsocket
}
