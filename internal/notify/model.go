package notify

import (
	"errors"
	"time"
)

// Type classifies a notification.
type Type string

const (
	TypeAttendance Type = "attendance"
	TypeSession    Type = "session"
	TypeCourse     Type = "course"
	TypeSystem     Type = "system"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	switch t {
	case TypeAttendance, TypeSession, TypeCourse, TypeSystem:
		return true
	}
	return false
}

var (
	ErrNotFound             = errors.New("Notification not found")
	ErrRegistrationRequired = errors.New("registration_id is required")
	ErrInvalidType          = errors.New("invalid notification type")
)

// Notification is a message addressed to one user, optionally pushed to their devices.
type Notification struct {
	ID           string    `json:"id"`
	RecipientID  string    `json:"-"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Type         Type      `json:"notification_type"`
	CreatedAt    time.Time `json:"created_at"`
	Read         bool      `json:"read"`
	RelatedID    string    `json:"related_object_id,omitempty"`
	RelatedType  string    `json:"related_content_type,omitempty"`
	SentToDevice bool      `json:"-"`
}

// Device is a push registration for a user.
type Device struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	RegistrationID string    `json:"registration_id"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Filter narrows a notification listing. Zero values match everything.
type Filter struct {
	Read *bool
	Type Type
}
