package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	student = Actor{ID: "student-1", Role: RoleStudent}
)

func scenarioSession() Session {
	return Session{
		ID:        "sess-1",
		CourseID:  "course-1",
		Title:     "Test Session",
		Start:     testNow.Add(-10 * time.Minute),
		End:       testNow.Add(50 * time.Minute),
		Latitude:  12.34,
		Longitude: 56.78,
		Radius:    100,
		Active:    true,
	}
}

func atCenter() Submission {
	return Submission{SessionID: "sess-1", Latitude: 12.34, Longitude: 56.78, BiometricData: "test_biometric_data"}
}

func newTestService(sess Session, ledger *fakeLedger, opts ...Option) *Service {
	reg := &fakeRegistry{sessions: map[string]Session{sess.ID: sess}}
	opts = append([]Option{WithClock(fixedClock(testNow))}, opts...)
	return NewService(reg, ledger, opts...)
}

func TestCheckIn_AdmitsAtCenter(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(scenarioSession(), ledger)

	rec, err := svc.CheckIn(context.Background(), student, atCenter())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "student-1", rec.StudentID)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, StatusPresent, rec.Status)
	assert.True(t, rec.Verified)
	assert.Equal(t, testNow, rec.CreatedAt)
	assert.Equal(t, 12.34, rec.Latitude)
	assert.Equal(t, 56.78, rec.Longitude)
	assert.Equal(t, "test_biometric_data", rec.BiometricData)
	assert.Equal(t, 1, ledger.count())
}

func TestCheckIn_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		mutate func(*Session)
		sub    func(*Submission)
		want   error
	}{
		{name: "staff caller", actor: Actor{ID: "i-1", Role: RoleStaff}, want: ErrForbidden},
		{name: "no role", actor: Actor{ID: "x"}, want: ErrForbidden},
		{name: "unknown session", actor: student, sub: func(s *Submission) { s.SessionID = "nope" }, want: ErrNotFound},
		{name: "inactive", actor: student, mutate: func(s *Session) { s.Active = false }, want: ErrSessionInactive},
		{name: "not started", actor: student, mutate: func(s *Session) { s.Start = testNow.Add(time.Second) }, want: ErrSessionNotStarted},
		{name: "ended", actor: student, mutate: func(s *Session) { s.End = testNow.Add(-time.Second) }, want: ErrSessionEnded},
		{name: "far away", actor: student, sub: func(s *Submission) { s.Latitude, s.Longitude = 13.34, 57.78 }, want: ErrOutOfRange},
		{name: "empty proof", actor: student, sub: func(s *Submission) { s.BiometricData = "" }, want: ErrProofRejected},
		{name: "whitespace proof", actor: student, sub: func(s *Submission) { s.BiometricData = " \t\n " }, want: ErrProofRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := scenarioSession()
			if tt.mutate != nil {
				tt.mutate(&sess)
			}
			sub := atCenter()
			if tt.sub != nil {
				tt.sub(&sub)
			}
			ledger := &fakeLedger{}
			svc := newTestService(sess, ledger)

			_, err := svc.CheckIn(context.Background(), tt.actor, sub)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsRejection(err))
			assert.Zero(t, ledger.count(), "nothing may be written on a rejection")
		})
	}
}

func TestCheckIn_InactiveWinsOverEverythingElse(t *testing.T) {
	sess := scenarioSession()
	sess.Active = false
	sess.Start = testNow.Add(time.Hour)
	sess.End = testNow.Add(2 * time.Hour)
	svc := newTestService(sess, &fakeLedger{})

	subs := []Submission{
		atCenter(),
		{SessionID: "sess-1", Latitude: -80, Longitude: 10},
		{SessionID: "sess-1", Latitude: 13.34, Longitude: 57.78, BiometricData: "x"},
	}
	for _, sub := range subs {
		_, err := svc.CheckIn(context.Background(), student, sub)
		assert.ErrorIs(t, err, ErrSessionInactive)
	}
}

func TestCheckIn_WindowBoundsAreInclusive(t *testing.T) {
	for _, sess := range []Session{
		func() Session { s := scenarioSession(); s.Start = testNow; return s }(),
		func() Session { s := scenarioSession(); s.End = testNow; return s }(),
	} {
		_, err := newTestService(sess, &fakeLedger{}).CheckIn(context.Background(), student, atCenter())
		assert.NoError(t, err)
	}
}

func TestCheckIn_SecondSubmissionIsAlreadySubmitted(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(scenarioSession(), ledger)

	_, err := svc.CheckIn(context.Background(), student, atCenter())
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), student, atCenter())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, ledger.count())
}

func TestCheckIn_AlreadySubmittedCheckedBeforeGeofence(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(scenarioSession(), ledger)
	_, err := svc.CheckIn(context.Background(), student, atCenter())
	require.NoError(t, err)

	far := atCenter()
	far.Latitude, far.Longitude = 13.34, 57.78
	_, err = svc.CheckIn(context.Background(), student, far)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestCheckIn_LedgerConflictTranslated(t *testing.T) {
	ledger := &fakeLedger{blindExists: true}
	svc := newTestService(scenarioSession(), ledger)

	_, err := svc.CheckIn(context.Background(), student, atCenter())
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), student, atCenter())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestCheckIn_ConcurrentIdenticalSubmissions(t *testing.T) {
	const n = 32
	ledger := &fakeLedger{blindExists: true}
	svc := newTestService(scenarioSession(), ledger)

	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.CheckIn(context.Background(), student, atCenter())
		}(i)
	}
	close(start)
	wg.Wait()

	ok, dup := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadySubmitted):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
	assert.Equal(t, int32(1), ledger.inserts.Load())
}

func TestCheckIn_CustomVerifier(t *testing.T) {
	var gotToken, gotStudent string
	deny := VerifierFunc(func(_ context.Context, token, studentID string) (bool, error) {
		gotToken, gotStudent = token, studentID
		return false, nil
	})
	ledger := &fakeLedger{}
	svc := newTestService(scenarioSession(), ledger, WithVerifier(deny))

	_, err := svc.CheckIn(context.Background(), student, atCenter())
	assert.ErrorIs(t, err, ErrProofRejected)
	assert.Equal(t, "test_biometric_data", gotToken)
	assert.Equal(t, "student-1", gotStudent)
	assert.Zero(t, ledger.count())
}

func TestCheckIn_InfrastructureErrorsAreWrapped(t *testing.T) {
	t.Run("registry", func(t *testing.T) {
		svc := NewService(&fakeRegistry{err: errStoreDown}, &fakeLedger{}, WithClock(fixedClock(testNow)))
		_, err := svc.CheckIn(context.Background(), student, atCenter())
		assert.ErrorIs(t, err, errStoreDown)
		assert.False(t, IsRejection(err))
	})
	t.Run("ledger", func(t *testing.T) {
		svc := newTestService(scenarioSession(), &fakeLedger{existsErr: errStoreDown})
		_, err := svc.CheckIn(context.Background(), student, atCenter())
		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, "error", Outcome(err))
	})
	t.Run("verifier", func(t *testing.T) {
		broken := VerifierFunc(func(context.Context, string, string) (bool, error) { return false, errStoreDown })
		svc := newTestService(scenarioSession(), &fakeLedger{}, WithVerifier(broken))
		_, err := svc.CheckIn(context.Background(), student, atCenter())
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "admitted", Outcome(nil))
	assert.Equal(t, "out_of_range", Outcome(ErrOutOfRange))
	assert.Equal(t, "already_submitted", Outcome(ErrAlreadySubmitted))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestPresenceVerifier(t *testing.T) {
	ok, err := PresenceVerifier{}.Verify(context.Background(), "  ", "s")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = PresenceVerifier{}.Verify(context.Background(), "abc", "s")
	assert.True(t, ok)
}
