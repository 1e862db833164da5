package store

import (
	"context"
	"fmt"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS courses (
	id            TEXT PRIMARY KEY,
	code          TEXT UNIQUE NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	instructor_id TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS course_students (
	course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	student_id  TEXT NOT NULL,
	enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (course_id, student_id)
);

CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	radius      DOUBLE PRECISION NOT NULL DEFAULT 100,
	is_active   BOOLEAN NOT NULL DEFAULT FALSE,
	CHECK (start_time <= end_time)
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id             TEXT PRIMARY KEY,
	student_id     TEXT NOT NULL,
	session_id     TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	status         TEXT NOT NULL,
	latitude       DOUBLE PRECISION NOT NULL,
	longitude      DOUBLE PRECISION NOT NULL,
	biometric_data TEXT NOT NULL DEFAULT '',
	verified       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, session_id)
);

CREATE TABLE IF NOT EXISTS devices (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	registration_id TEXT NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, registration_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	recipient_id   TEXT NOT NULL,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	type           TEXT NOT NULL,
	related_id     TEXT NOT NULL DEFAULT '',
	related_type   TEXT NOT NULL DEFAULT '',
	read           BOOLEAN NOT NULL DEFAULT FALSE,
	sent_to_device BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_course      ON sessions(course_id, start_time);
CREATE INDEX IF NOT EXISTS idx_attendance_student   ON attendance_records(student_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_owner  ON notifications(recipient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_course_students      ON course_students(student_id);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS courses (
	id            TEXT PRIMARY KEY,
	code          TEXT UNIQUE NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	instructor_id TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS course_students (
	course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	student_id  TEXT NOT NULL,
	enrolled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (course_id, student_id)
);

CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time  DATETIME NOT NULL,
	end_time    DATETIME NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	radius      REAL NOT NULL DEFAULT 100,
	is_active   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id             TEXT PRIMARY KEY,
	student_id     TEXT NOT NULL,
	session_id     TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	status         TEXT NOT NULL,
	latitude       REAL NOT NULL,
	longitude      REAL NOT NULL,
	biometric_data TEXT NOT NULL DEFAULT '',
	verified       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (student_id, session_id)
);

CREATE TABLE IF NOT EXISTS devices (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	registration_id TEXT NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, registration_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	recipient_id   TEXT NOT NULL,
	title          TEXT NOT NULL,
	message        TEXT NOT NULL,
	type           TEXT NOT NULL,
	related_id     TEXT NOT NULL DEFAULT '',
	related_type   TEXT NOT NULL DEFAULT '',
	read           BOOLEAN NOT NULL DEFAULT FALSE,
	sent_to_device BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_course      ON sessions(course_id, start_time);
CREATE INDEX IF NOT EXISTS idx_attendance_student   ON attendance_records(student_id, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_owner  ON notifications(recipient_id, created_at);
CREATE INDEX IF NOT EXISTS idx_course_students      ON course_students(student_id);
`

// Migrate creates every table the service needs. It is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if d.Dialect == SQLite {
		schema = sqliteSchema
	}
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s: %w", d.Dialect, err)
	}
	return nil
}
