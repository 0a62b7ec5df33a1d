package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Payload is the typed counterpart of a notification's data column. Each
// notification type carries its own shape; consumers switch on the concrete
// variant instead of probing an untyped map.
type Payload interface {
	PayloadKind() string
}

// JobPostedPayload accompanies job_posted notifications.
type JobPostedPayload struct {
	JobID       string `json:"job_id"`
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name,omitempty"`
}

func (JobPostedPayload) PayloadKind() string { return TypeJobPosted }

// ApplicationReceivedPayload accompanies application_received notifications.
type ApplicationReceivedPayload struct {
	ApplicationID string `json:"application_id"`
	JobID         string `json:"job_id"`
	ApplicantName string `json:"applicant_name,omitempty"`
}

func (ApplicationReceivedPayload) PayloadKind() string { return TypeApplicationReceived }

// ApplicationStatusPayload accompanies application_status_changed notifications.
type ApplicationStatusPayload struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
}

func (ApplicationStatusPayload) PayloadKind() string { return TypeApplicationStatusChanged }

// MatchScorePayload accompanies match_score_calculated notifications.
type MatchScorePayload struct {
	ApplicationID string  `json:"application_id"`
	Score         float64 `json:"score"`
}

func (MatchScorePayload) PayloadKind() string { return TypeMatchScoreCalculated }

// InterviewScheduledPayload accompanies interview_scheduled notifications.
type InterviewScheduledPayload struct {
	InterviewID string    `json:"interview_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (InterviewScheduledPayload) PayloadKind() string { return TypeInterviewScheduled }

// MessageReceivedPayload accompanies message_received notifications.
type MessageReceivedPayload struct {
	ConversationID string `json:"conversation_id"`
	SenderName     string `json:"sender_name,omitempty"`
}

func (MessageReceivedPayload) PayloadKind() string { return TypeMessageReceived }

// SystemUpdatePayload accompanies system_update notifications.
type SystemUpdatePayload struct {
	Component string `json:"component,omitempty"`
}

func (SystemUpdatePayload) PayloadKind() string { return TypeSystemUpdate }

// RawPayload preserves data for notification types outside the known set.
type RawPayload struct {
	Type   string
	Fields map[string]any
}

func (p RawPayload) PayloadKind() string { return p.Type }

// MarshalJSON renders only the fields; the type travels on the notification row.
func (p RawPayload) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

// EncodePayload serialises a typed payload into the JSON column representation.
func EncodePayload(p Payload) (datatypes.JSON, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.PayloadKind(), err)
	}
	return datatypes.JSON(data), nil
}

// DecodePayload reconstructs the typed payload for a notification row. Unknown
// notification types round-trip through RawPayload so no data is lost.
func DecodePayload(notificationType string, raw datatypes.JSON) (Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	decode := func(target Payload) (Payload, error) {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", notificationType, err)
		}
		return target, nil
	}

	switch notificationType {
	case TypeJobPosted:
		p, err := decode(&JobPostedPayload{})
		return deref(p), err
	case TypeApplicationReceived:
		p, err := decode(&ApplicationReceivedPayload{})
		return deref(p), err
	case TypeApplicationStatusChanged:
		p, err := decode(&ApplicationStatusPayload{})
		return deref(p), err
	case TypeMatchScoreCalculated:
		p, err := decode(&MatchScorePayload{})
		return deref(p), err
	case TypeInterviewScheduled:
		p, err := decode(&InterviewScheduledPayload{})
		return deref(p), err
	case TypeMessageReceived:
		p, err := decode(&MessageReceivedPayload{})
		return deref(p), err
	case TypeSystemUpdate:
		p, err := decode(&SystemUpdatePayload{})
		return deref(p), err
	default:
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", notificationType, err)
		}
		return RawPayload{Type: notificationType, Fields: fields}, nil
	}
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *JobPostedPayload:
		return *v
	case *ApplicationReceivedPayload:
		return *v
	case *ApplicationStatusPayload:
		return *v
	case *MatchScorePayload:
		return *v
	case *InterviewScheduledPayload:
		return *v
	case *MessageReceivedPayload:
		return *v
	case *SystemUpdatePayload:
		return *v
	default:
		return p
	}
}
