package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists courses, sessions and attendance records. Queries are
// written to run unchanged on Postgres (pgx) and SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var (
	_ SessionRegistry = (*Repository)(nil)
	_ Ledger          = (*Repository)(nil)
	_ CatalogStore    = (*Repository)(nil)
)

const (
	sessionColumns       = `id, course_id, title, description, start_time, end_time, latitude, longitude, radius, is_active`
	joinedSessionColumns = `s.id, s.course_id, s.title, s.description, s.start_time, s.end_time, s.latitude, s.longitude, s.radius, s.is_active`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.CourseID, &s.Title, &s.Description, &s.Start, &s.End,
		&s.Latitude, &s.Longitude, &s.Radius, &s.Active)
	s.Start = s.Start.UTC()
	s.End = s.End.UTC()
	return s, err
}

// GetSession returns a single session by id, or ErrNotFound.
func (r *Repository) GetSession(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// Exists reports whether the student already has a record for the session.
func (r *Repository) Exists(ctx context.Context, studentID, sessionID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_records
		WHERE student_id = $1 AND session_id = $2
	`, studentID, sessionID).Scan(&n)
	return n > 0, err
}

// Insert writes a record. The UNIQUE (student_id, session_id) constraint makes
// this a single conditional write: a conflicting row leaves zero rows affected.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records
			(id, student_id, session_id, status, latitude, longitude, biometric_data, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, session_id) DO NOTHING
	`, rec.ID, rec.StudentID, rec.SessionID, string(rec.Status), rec.Latitude, rec.Longitude,
		rec.BiometricData, rec.Verified, rec.CreatedAt.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

const recordColumns = `a.id, a.student_id, a.session_id, a.status, a.created_at, a.latitude, a.longitude, a.verified`

func scanRecord(row scanner, extra ...any) (Record, error) {
	var rec Record
	var status string
	dest := append([]any{&rec.ID, &rec.StudentID, &rec.SessionID, &status, &rec.CreatedAt,
		&rec.Latitude, &rec.Longitude, &rec.Verified}, extra...)
	err := row.Scan(dest...)
	rec.Status = Status(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, err
}

// ListByStudent returns a student's attendance history, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records a
		WHERE a.student_id = $1
		ORDER BY a.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// ListByCourse returns every record of a course joined with its session, in
// session order then submission order.
func (r *Repository) ListByCourse(ctx context.Context, courseID string) ([]ReportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`, s.title, c.code
		FROM attendance_records a
		JOIN sessions s ON s.id = a.session_id
		JOIN courses c ON c.id = s.course_id
		WHERE s.course_id = $1
		ORDER BY s.start_time, a.created_at
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ReportRow
	for rows.Next() {
		var row ReportRow
		rec, err := scanRecord(rows, &row.SessionTitle, &row.CourseCode)
		if err != nil {
			return nil, err
		}
		row.Record = rec
		res = append(res, row)
	}
	return res, rows.Err()
}

// InsertCourse creates a course; a taken code yields ErrCourseExists.
func (r *Repository) InsertCourse(ctx context.Context, c Course) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, code, title, description, instructor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING
	`, c.ID, c.Code, c.Title, c.Description, c.InstructorID, c.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrCourseExists
	}
	return nil
}

// GetCourse returns a course by id, or ErrCourseNotFound.
func (r *Repository) GetCourse(ctx context.Context, id string) (Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

const courseColumns = `c.id, c.code, c.title, c.description, c.instructor_id, c.created_at`

func scanCourse(row scanner) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.InstructorID, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

// ListCourses returns the courses matching f ordered by code.
func (r *Repository) ListCourses(ctx context.Context, f CourseFilter) ([]Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE 1 = 1`
	var args []any
	if f.InstructorID != "" {
		args = append(args, f.InstructorID)
		query += fmt.Sprintf(" AND c.instructor_id = $%d", len(args))
	}
	if f.StudentID != "" {
		args = append(args, f.StudentID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM course_students e WHERE e.course_id = c.id AND e.student_id = $%d)", len(args))
	}
	query += " ORDER BY c.code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// UpdateCourse rewrites a course's code, title and description. A code held by
// another course yields ErrCourseExists.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) error {
	var taken int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM courses WHERE code = $1 AND id <> $2
	`, c.Code, c.ID).Scan(&taken); err != nil {
		return err
	}
	if taken > 0 {
		return ErrCourseExists
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses SET code = $1, title = $2, description = $3 WHERE id = $4
	`, c.Code, c.Title, c.Description, c.ID)
	if err != nil {
		return err
	}
	return expectRow(res, ErrCourseNotFound)
}

// DeleteCourse removes a course with its sessions, enrollments and records.
func (r *Repository) DeleteCourse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrCourseNotFound)
}

// Enroll adds a student to a course. Enrolling twice keeps the first row.
func (r *Repository) Enroll(ctx context.Context, e Enrollment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO course_students (course_id, student_id, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id, student_id) DO NOTHING
	`, e.CourseID, e.StudentID, e.EnrolledAt.UTC())
	return err
}

// Unenroll removes a student from a course, or returns ErrNotEnrolled.
func (r *Repository) Unenroll(ctx context.Context, courseID, studentID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM course_students WHERE course_id = $1 AND student_id = $2
	`, courseID, studentID)
	if err != nil {
		return err
	}
	return expectRow(res, ErrNotEnrolled)
}

// IsEnrolled reports whether the student belongs to the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM course_students WHERE course_id = $1 AND student_id = $2
	`, courseID, studentID).Scan(&n)
	return n > 0, err
}

// Enrollments lists a course's students in enrollment order.
func (r *Repository) Enrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course_id, student_id, enrolled_at FROM course_students
		WHERE course_id = $1
		ORDER BY enrolled_at, student_id
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.CourseID, &e.StudentID, &e.EnrolledAt); err != nil {
			return nil, err
		}
		e.EnrolledAt = e.EnrolledAt.UTC()
		res = append(res, e)
	}
	return res, rows.Err()
}

// InsertSession writes a new session.
func (r *Repository) InsertSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.CourseID, s.Title, s.Description, s.Start.UTC(), s.End.UTC(),
		s.Latitude, s.Longitude, s.Radius, s.Active)
	return err
}

// ListSessions returns the sessions matching f ordered by start time.
func (r *Repository) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	query := `SELECT ` + joinedSessionColumns + `
		FROM sessions s JOIN courses c ON c.id = s.course_id WHERE 1 = 1`
	var args []any
	if f.CourseID != "" {
		args = append(args, f.CourseID)
		query += fmt.Sprintf(" AND s.course_id = $%d", len(args))
	}
	if f.InstructorID != "" {
		args = append(args, f.InstructorID)
		query += fmt.Sprintf(" AND c.instructor_id = $%d", len(args))
	}
	if f.StudentID != "" {
		args = append(args, f.StudentID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM course_students e WHERE e.course_id = c.id AND e.student_id = $%d)", len(args))
	}
	query += " ORDER BY s.start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpdateSession rewrites every mutable field of a session.
func (r *Repository) UpdateSession(ctx context.Context, s Session) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET title = $1, description = $2, start_time = $3, end_time = $4,
			latitude = $5, longitude = $6, radius = $7, is_active = $8
		WHERE id = $9
	`, s.Title, s.Description, s.Start.UTC(), s.End.UTC(), s.Latitude, s.Longitude, s.Radius, s.Active, s.ID)
	if err != nil {
		return err
	}
	return expectRow(res, ErrNotFound)
}

// DeleteSession removes a session and its attendance records.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrNotFound)
}

// SetSessionActive flips the activation flag without touching the time window.
func (r *Repository) SetSessionActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrNotFound)
}

// expectRow maps a write that touched nothing to missing.
func expectRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
