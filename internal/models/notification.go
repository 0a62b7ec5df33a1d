package models

import (
	"time"

	"gorm.io/datatypes"
)

// Known notification types. The column is open-ended; unknown types are
// accepted and gate-checked against the catch-all preference default.
const (
	TypeJobPosted                = "job_posted"
	TypeApplicationReceived      = "application_received"
	TypeApplicationStatusChanged = "application_status_changed"
	TypeMatchScoreCalculated     = "match_score_calculated"
	TypeInterviewScheduled       = "interview_scheduled"
	TypeMessageReceived          = "message_received"
	TypeSystemUpdate             = "system_update"
)

// Priority orders notifications in user-facing listings. Urgent items
// surface before recent ones regardless of creation time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the sort weight of the priority, higher meaning more visible.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification represents a persisted notification addressed to one recipient.
//
// Invariants: ReadAt is non-nil exactly when IsRead is true, and IsRead never
// reverts to false once set. Rows are removed either by the expiry sweep once
// ExpiresAt has passed or by an explicit recipient-initiated delete.
type Notification struct {
	BaseModel

	RecipientID string         `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Type        string         `gorm:"type:varchar(64);index;not null" json:"notification_type"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Message     string         `gorm:"type:text" json:"message"`
	Data        datatypes.JSON `json:"data,omitempty"`
	Priority    Priority       `gorm:"type:varchar(16);default:'normal';index" json:"priority"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	IsSent bool       `gorm:"default:false" json:"is_sent"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
}
