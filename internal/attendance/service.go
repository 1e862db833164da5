package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/metrics"
)

// SessionRegistry resolves sessions. The pipeline never mutates them.
type SessionRegistry interface {
	GetSession(ctx context.Context, id string) (Session, error)
}

// Ledger stores accepted records. Insert must reject a second record for the
// same (student, session) pair atomically, returning ErrDuplicate.
type Ledger interface {
	Exists(ctx context.Context, studentID, sessionID string) (bool, error)
	Insert(ctx context.Context, rec Record) error
}

// Service runs the check-in admission pipeline. It holds no per-request state.
type Service struct {
	registry SessionRegistry
	ledger   Ledger
	verifier Verifier
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithVerifier replaces the default presence-only proof check.
func WithVerifier(v Verifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifier = v
		}
	}
}

// NewService creates a pipeline over a registry and a ledger.
func NewService(registry SessionRegistry, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		ledger:   ledger,
		verifier: PresenceVerifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckIn validates a submission and, when every check passes, writes exactly
// one present+verified record. Nothing is written on any failure path.
func (s *Service) CheckIn(ctx context.Context, actor Actor, sub Submission) (rec Record, err error) {
	defer func() {
		metrics.CheckIns.WithLabelValues(Outcome(err)).Inc()
	}()

	if actor.Role != RoleStudent {
		return Record{}, ErrForbidden
	}

	sess, err := s.registry.GetSession(ctx, sub.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("load session: %w", err)
	}

	now := s.now().UTC()
	if err := sess.Eligible(now); err != nil {
		return Record{}, err
	}

	// Fast path only; Insert below is the authority on uniqueness.
	exists, err := s.ledger.Exists(ctx, actor.ID, sess.ID)
	if err != nil {
		return Record{}, fmt.Errorf("check existing attendance: %w", err)
	}
	if exists {
		return Record{}, ErrAlreadySubmitted
	}

	inside, distance := sess.Within(sub.Latitude, sub.Longitude)
	metrics.CheckInDistance.Observe(distance)
	if !inside {
		return Record{}, ErrOutOfRange
	}

	if strings.TrimSpace(sub.BiometricData) == "" {
		return Record{}, ErrProofRejected
	}
	ok, err := s.verifier.Verify(ctx, sub.BiometricData, actor.ID)
	if err != nil {
		return Record{}, fmt.Errorf("verify proof: %w", err)
	}
	if !ok {
		return Record{}, ErrProofRejected
	}

	rec = Record{
		ID:            uuid.NewString(),
		StudentID:     actor.ID,
		SessionID:     sess.ID,
		Status:        StatusPresent,
		CreatedAt:     now,
		Latitude:      sub.Latitude,
		Longitude:     sub.Longitude,
		BiometricData: sub.BiometricData,
		Verified:      true,
	}
	if err := s.ledger.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Record{}, ErrAlreadySubmitted
		}
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	return rec, nil
}
