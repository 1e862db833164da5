package attendance

import "time"

// Roles carried by the identity token.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Status of an attendance record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

// Course groups sessions under one instructor.
type Course struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID string    `json:"instructor"`
	CreatedAt    time.Time `json:"created_at"`
}

// CourseUpdate carries the course fields a PATCH may change.
type CourseUpdate struct {
	Code        *string
	Title       *string
	Description *string
}

// Enrollment ties a student to a course.
type Enrollment struct {
	CourseID   string    `json:"course"`
	StudentID  string    `json:"student"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// CourseFilter narrows a course listing. Empty fields match everything.
type CourseFilter struct {
	InstructorID string
	StudentID    string
}

// SessionFilter narrows a session listing. Empty fields match everything.
type SessionFilter struct {
	CourseID     string
	InstructorID string
	StudentID    string
}

// Session is a scheduled meeting with a time window and a circular geofence.
type Session struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      float64   `json:"radius"`
	Active      bool      `json:"is_active"`
}

// Eligible reports why a check-in at now would be refused, or nil.
// Checks run in a fixed order: activation, start, end.
func (s Session) Eligible(now time.Time) error {
	if !s.Active {
		return ErrSessionInactive
	}
	if now.Before(s.Start) {
		return ErrSessionNotStarted
	}
	if now.After(s.End) {
		return ErrSessionEnded
	}
	return nil
}

// SessionUpdate carries the session fields a PATCH may change.
type SessionUpdate struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Latitude    *float64
	Longitude   *float64
	Radius      *float64
	Active      *bool
}

// Record is one accepted check-in. BiometricData is never serialized.
type Record struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student"`
	SessionID     string    `json:"session"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"timestamp"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	BiometricData string    `json:"-"`
	Verified      bool      `json:"verified"`
}

// Submission is the raw check-in request from a student.
type Submission struct {
	SessionID     string
	Latitude      float64
	Longitude     float64
	BiometricData string
}

// ReportRow is a record joined with its session and course for reporting.
type ReportRow struct {
	Record
	SessionTitle string `json:"session_title"`
	CourseCode   string `json:"course_code"`
}
