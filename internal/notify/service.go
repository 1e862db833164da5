package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/attendance"
	"campusattend/internal/queue"
)

// Store is the persistence the notification service needs.
type Store interface {
	RegisterDevice(ctx context.Context, d Device) error
	DeactivateDevice(ctx context.Context, userID, registrationID string) error
	Create(ctx context.Context, n Notification) error
	List(ctx context.Context, recipientID string, f Filter) ([]Notification, error)
	Get(ctx context.Context, id string) (Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// Service records notifications and hands them to the delivery queue.
type Service struct {
	store Store
	queue queue.Queue
	now   func() time.Time
}

// NewService creates a service. A nil queue disables push delivery.
func NewService(store Store, q queue.Queue) *Service {
	return &Service{store: store, queue: q, now: time.Now}
}

// Notify stores n and enqueues it for push delivery. The stored notification is
// returned even when enqueueing fails.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	if !n.Type.Valid() {
		return Notification{}, ErrInvalidType
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now().UTC()
	n.Read = false
	n.SentToDevice = false
	if err := s.store.Create(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	if s.queue == nil {
		return n, nil
	}
	msg := queue.Message{Type: queue.TypeNotification, Body: []byte(n.ID)}
	if err := s.queue.Publish(ctx, msg); err != nil {
		return n, fmt.Errorf("enqueue notification %s: %w", n.ID, err)
	}
	return n, nil
}

// CheckedIn tells a student their attendance was recorded.
func (s *Service) CheckedIn(ctx context.Context, rec attendance.Record) (Notification, error) {
	return s.Notify(ctx, Notification{
		RecipientID: rec.StudentID,
		Title:       "Attendance recorded",
		Message:     fmt.Sprintf("Your attendance was recorded at %s.", rec.CreatedAt.UTC().Format("2006-01-02 15:04")),
		Type:        TypeAttendance,
		RelatedID:   rec.ID,
		RelatedType: "attendance_record",
	})
}

// RegisterDevice adds or reactivates a push registration for a user.
func (s *Service) RegisterDevice(ctx context.Context, userID, registrationID string) (Device, error) {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return Device{}, ErrRegistrationRequired
	}
	d := Device{
		ID:             uuid.NewString(),
		UserID:         userID,
		RegistrationID: registrationID,
		Active:         true,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.RegisterDevice(ctx, d); err != nil {
		return Device{}, fmt.Errorf("register device: %w", err)
	}
	return d, nil
}

// UnregisterDevice deactivates a user's registration.
func (s *Service) UnregisterDevice(ctx context.Context, userID, registrationID string) error {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return ErrRegistrationRequired
	}
	return s.store.DeactivateDevice(ctx, userID, registrationID)
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, f Filter) ([]Notification, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, ErrInvalidType
	}
	return s.store.List(ctx, userID, f)
}

// MarkRead flags one of the user's notifications as read and returns it.
func (s *Service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	if err := s.store.MarkRead(ctx, userID, id); err != nil {
		return Notification{}, err
	}
	return s.store.Get(ctx, id)
}

// MarkAllRead flags every unread notification of the user.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
