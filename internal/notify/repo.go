package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists devices and notifications. Queries run unchanged on
// Postgres and SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RegisterDevice stores a registration, reactivating it when it already exists.
func (r *Repository) RegisterDevice(ctx context.Context, d Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, user_id, registration_id, active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (user_id, registration_id) DO UPDATE SET active = TRUE
	`, d.ID, d.UserID, d.RegistrationID, d.CreatedAt.UTC())
	return err
}

// DeactivateDevice marks a user's registration inactive. Unknown registrations are ignored.
func (r *Repository) DeactivateDevice(ctx context.Context, userID, registrationID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices SET active = FALSE WHERE user_id = $1 AND registration_id = $2
	`, userID, registrationID)
	return err
}

// ActiveDevices lists the registrations a push should go to.
func (r *Repository) ActiveDevices(ctx context.Context, userID string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, registration_id, active, created_at
		FROM devices WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.RegistrationID, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.CreatedAt = d.CreatedAt.UTC()
		res = append(res, d)
	}
	return res, rows.Err()
}

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications
			(id, recipient_id, title, message, type, related_id, related_type, read, sent_to_device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.ID, n.RecipientID, n.Title, n.Message, string(n.Type), n.RelatedID, n.RelatedType,
		n.Read, n.SentToDevice, n.CreatedAt.UTC())
	return err
}

const notificationColumns = `id, recipient_id, title, message, type, related_id, related_type, read, sent_to_device, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (Notification, error) {
	var n Notification
	var typ string
	err := row.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &typ, &n.RelatedID, &n.RelatedType,
		&n.Read, &n.SentToDevice, &n.CreatedAt)
	n.Type = Type(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	return n, err
}

// Get returns a notification by id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, err
	}
	return n, nil
}

// List returns a recipient's notifications, newest first.
func (r *Repository) List(ctx context.Context, recipientID string, f Filter) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = $1`
	args := []any{recipientID}
	if f.Read != nil {
		args = append(args, *f.Read)
		query += fmt.Sprintf(" AND read = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// MarkRead flags one of the recipient's notifications as read. Notifications
// of other users yield ErrNotFound.
func (r *Repository) MarkRead(ctx context.Context, recipientID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient and returns how many changed.
func (r *Repository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE
	`, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkSent records that at least one device received the push.
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET sent_to_device = TRUE WHERE id = $1`, id)
	return err
}
