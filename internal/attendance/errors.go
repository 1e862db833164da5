package attendance

import "errors"

// Admission errors. All are terminal for one submission; the caller may retry
// after correcting input.
var (
	ErrForbidden         = errors.New("Only students can submit attendance")
	ErrNotFound          = errors.New("Session not found")
	ErrSessionInactive   = errors.New("Session is not active")
	ErrSessionNotStarted = errors.New("Session has not started yet")
	ErrSessionEnded      = errors.New("Session has ended")
	ErrAlreadySubmitted  = errors.New("Attendance already submitted for this session")
	ErrOutOfRange        = errors.New("You are not within the allowed attendance radius")
	ErrProofRejected     = errors.New("Biometric verification failed")
)

// Store-level errors.
var (
	// ErrDuplicate is returned by Ledger.Insert when the (student, session) pair already has a record.
	ErrDuplicate       = errors.New("attendance record already exists")
	ErrCourseNotFound  = errors.New("Course not found")
	ErrCourseExists    = errors.New("Course code already exists")
	ErrInvalidSchedule = errors.New("Session end time must not precede start time")
	ErrInvalidRadius   = errors.New("Session radius must not be negative")
	ErrCourseFields    = errors.New("Course code and title are required")
	ErrStudentRequired = errors.New("Student ID is required")
	ErrNotEnrolled     = errors.New("Student is not enrolled in this course")

	// ErrSessionAlreadyActive is returned when starting a session that is open.
	ErrSessionAlreadyActive = errors.New("Session is already active")

	// ErrPermissionDenied is returned when a caller manages a course it does not own.
	ErrPermissionDenied = errors.New("permission denied")
)

var outcomes = []struct {
	err  error
	name string
}{
	{ErrForbidden, "forbidden"},
	{ErrNotFound, "not_found"},
	{ErrSessionInactive, "session_inactive"},
	{ErrSessionNotStarted, "session_not_started"},
	{ErrSessionEnded, "session_ended"},
	{ErrAlreadySubmitted, "already_submitted"},
	{ErrOutOfRange, "out_of_range"},
	{ErrProofRejected, "proof_rejected"},
}

// Outcome names the result of a check-in for metrics labels.
func Outcome(err error) string {
	if err == nil {
		return "admitted"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.name
		}
	}
	return "error"
}

// IsRejection reports whether err is an expected validation outcome rather than a failure.
func IsRejection(err error) bool {
	o := Outcome(err)
	return o != "admitted" && o != "error"
}
