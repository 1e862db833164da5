package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CatalogStore is the persistence the course/session administration needs.
type CatalogStore interface {
	InsertCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, f CourseFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, c Course) error
	DeleteCourse(ctx context.Context, id string) error

	Enroll(ctx context.Context, e Enrollment) error
	Unenroll(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	Enrollments(ctx context.Context, courseID string) ([]Enrollment, error)

	InsertSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]Session, error)
	UpdateSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, id string) error
	SetSessionActive(ctx context.Context, id string, active bool) error
}

// DefaultRadius is the geofence radius in meters when a session omits one.
const DefaultRadius = 100.0

// Catalog manages courses, their enrollments and their sessions.
//
// Visibility follows the caller's role: admins see every course, staff see the
// courses they teach and students see the courses they are enrolled in. A
// course outside the caller's view reads as ErrCourseNotFound. Changes are
// limited to the course's instructor and admins.
type Catalog struct {
	store CatalogStore
	now   func() time.Time
}

// NewCatalog creates a catalog over a store.
func NewCatalog(store CatalogStore) *Catalog {
	return &Catalog{store: store, now: time.Now}
}

func canManage(actor Actor) bool {
	return actor.Role == RoleStaff || actor.Role == RoleAdmin
}

func courseScope(actor Actor) (CourseFilter, error) {
	switch actor.Role {
	case RoleAdmin:
		return CourseFilter{}, nil
	case RoleStaff:
		return CourseFilter{InstructorID: actor.ID}, nil
	case RoleStudent:
		return CourseFilter{StudentID: actor.ID}, nil
	}
	return CourseFilter{}, ErrPermissionDenied
}

func (c *Catalog) visibleCourse(ctx context.Context, actor Actor, id string) (Course, error) {
	course, err := c.store.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	switch actor.Role {
	case RoleAdmin:
		return course, nil
	case RoleStaff:
		if course.InstructorID == actor.ID {
			return course, nil
		}
	case RoleStudent:
		ok, err := c.store.IsEnrolled(ctx, id, actor.ID)
		if err != nil {
			return Course{}, fmt.Errorf("check enrollment: %w", err)
		}
		if ok {
			return course, nil
		}
	}
	return Course{}, ErrCourseNotFound
}

func (c *Catalog) ownedCourse(ctx context.Context, actor Actor, id string) (Course, error) {
	if !canManage(actor) {
		return Course{}, ErrPermissionDenied
	}
	course, err := c.store.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if actor.Role != RoleAdmin && course.InstructorID != actor.ID {
		return Course{}, ErrPermissionDenied
	}
	return course, nil
}

// CreateCourse registers a course owned by the calling instructor.
func (c *Catalog) CreateCourse(ctx context.Context, actor Actor, course Course) (Course, error) {
	if !canManage(actor) {
		return Course{}, ErrPermissionDenied
	}
	course.ID = uuid.NewString()
	course.Code = strings.TrimSpace(course.Code)
	course.InstructorID = actor.ID
	course.CreatedAt = c.now().UTC()
	if err := c.store.InsertCourse(ctx, course); err != nil {
		return Course{}, err
	}
	return course, nil
}

// Courses lists the courses visible to actor.
func (c *Catalog) Courses(ctx context.Context, actor Actor) ([]Course, error) {
	f, err := courseScope(actor)
	if err != nil {
		return nil, err
	}
	return c.store.ListCourses(ctx, f)
}

// Course returns one course visible to actor.
func (c *Catalog) Course(ctx context.Context, actor Actor, id string) (Course, error) {
	return c.visibleCourse(ctx, actor, id)
}

// UpdateCourse applies the non-nil fields of u.
func (c *Catalog) UpdateCourse(ctx context.Context, actor Actor, id string, u CourseUpdate) (Course, error) {
	course, err := c.ownedCourse(ctx, actor, id)
	if err != nil {
		return Course{}, err
	}
	if u.Code != nil {
		course.Code = strings.TrimSpace(*u.Code)
	}
	if u.Title != nil {
		course.Title = *u.Title
	}
	if u.Description != nil {
		course.Description = *u.Description
	}
	if course.Code == "" || strings.TrimSpace(course.Title) == "" {
		return Course{}, ErrCourseFields
	}
	if err := c.store.UpdateCourse(ctx, course); err != nil {
		return Course{}, err
	}
	return course, nil
}

// DeleteCourse removes a course with everything scheduled under it.
func (c *Catalog) DeleteCourse(ctx context.Context, actor Actor, id string) error {
	if _, err := c.ownedCourse(ctx, actor, id); err != nil {
		return err
	}
	return c.store.DeleteCourse(ctx, id)
}

// Enroll adds a student to a course. Enrolling an enrolled student is a no-op.
func (c *Catalog) Enroll(ctx context.Context, actor Actor, courseID, studentID string) (Enrollment, error) {
	if _, err := c.ownedCourse(ctx, actor, courseID); err != nil {
		return Enrollment{}, err
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return Enrollment{}, ErrStudentRequired
	}
	e := Enrollment{CourseID: courseID, StudentID: studentID, EnrolledAt: c.now().UTC()}
	if err := c.store.Enroll(ctx, e); err != nil {
		return Enrollment{}, fmt.Errorf("enroll %s: %w", studentID, err)
	}
	return e, nil
}

// Unenroll removes a student from a course.
func (c *Catalog) Unenroll(ctx context.Context, actor Actor, courseID, studentID string) error {
	if _, err := c.ownedCourse(ctx, actor, courseID); err != nil {
		return err
	}
	return c.store.Unenroll(ctx, courseID, studentID)
}

// Students lists a course's enrollments.
func (c *Catalog) Students(ctx context.Context, actor Actor, courseID string) ([]Enrollment, error) {
	if _, err := c.ownedCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return c.store.Enrollments(ctx, courseID)
}

// CreateSession schedules a session under a course the caller owns. A zero
// radius falls back to DefaultRadius.
func (c *Catalog) CreateSession(ctx context.Context, actor Actor, s Session) (Session, error) {
	if _, err := c.ownedCourse(ctx, actor, s.CourseID); err != nil {
		return Session{}, err
	}
	if s.Radius == 0 {
		s.Radius = DefaultRadius
	}
	if err := validSession(s); err != nil {
		return Session{}, err
	}
	s.ID = uuid.NewString()
	s.Start = s.Start.UTC()
	s.End = s.End.UTC()
	if err := c.store.InsertSession(ctx, s); err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

func validSession(s Session) error {
	if s.End.Before(s.Start) {
		return ErrInvalidSchedule
	}
	if s.Radius < 0 {
		return ErrInvalidRadius
	}
	return nil
}

// Sessions lists sessions by start time. With a course id it lists that
// course's sessions; otherwise every session in the caller's courses.
func (c *Catalog) Sessions(ctx context.Context, actor Actor, courseID string) ([]Session, error) {
	if courseID != "" {
		if _, err := c.visibleCourse(ctx, actor, courseID); err != nil {
			return nil, err
		}
		return c.store.ListSessions(ctx, SessionFilter{CourseID: courseID})
	}
	scope, err := courseScope(actor)
	if err != nil {
		return nil, err
	}
	return c.store.ListSessions(ctx, SessionFilter{InstructorID: scope.InstructorID, StudentID: scope.StudentID})
}

// Session returns one session whose course is visible to actor.
func (c *Catalog) Session(ctx context.Context, actor Actor, id string) (Session, error) {
	s, err := c.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if _, err := c.visibleCourse(ctx, actor, s.CourseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

func (c *Catalog) ownedSession(ctx context.Context, actor Actor, id string) (Session, error) {
	if !canManage(actor) {
		return Session{}, ErrPermissionDenied
	}
	s, err := c.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if _, err := c.ownedCourse(ctx, actor, s.CourseID); err != nil {
		return Session{}, err
	}
	return s, nil
}

// UpdateSession applies the non-nil fields of u.
func (c *Catalog) UpdateSession(ctx context.Context, actor Actor, id string, u SessionUpdate) (Session, error) {
	s, err := c.ownedSession(ctx, actor, id)
	if err != nil {
		return Session{}, err
	}
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Start != nil {
		s.Start = u.Start.UTC()
	}
	if u.End != nil {
		s.End = u.End.UTC()
	}
	if u.Latitude != nil {
		s.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		s.Longitude = *u.Longitude
	}
	if u.Radius != nil {
		s.Radius = *u.Radius
	}
	if u.Active != nil {
		s.Active = *u.Active
	}
	if err := validSession(s); err != nil {
		return Session{}, err
	}
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// DeleteSession removes a session and its attendance records.
func (c *Catalog) DeleteSession(ctx context.Context, actor Actor, id string) error {
	if _, err := c.ownedSession(ctx, actor, id); err != nil {
		return err
	}
	return c.store.DeleteSession(ctx, id)
}

// SetActive opens or closes a session for check-in. Starting an open session
// yields ErrSessionAlreadyActive; closing a closed one yields ErrSessionInactive.
func (c *Catalog) SetActive(ctx context.Context, actor Actor, sessionID string, active bool) (Session, error) {
	s, err := c.ownedSession(ctx, actor, sessionID)
	if err != nil {
		return Session{}, err
	}
	switch {
	case active && s.Active:
		return Session{}, ErrSessionAlreadyActive
	case !active && !s.Active:
		return Session{}, ErrSessionInactive
	}
	if err := c.store.SetSessionActive(ctx, sessionID, active); err != nil {
		return Session{}, err
	}
	s.Active = active
	return s, nil
}
