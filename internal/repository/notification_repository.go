package repository

import (
	"context"
	"database/sql"
	"time"
)

// Notification mirrors the `notifications` table: an in-app message for
// one user, written by the workflow-event consumer. ReferenceID points
// at the visit or onboarding request the message is about.
type Notification struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	ReferenceID uint64    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationRepo provides data access to the notifications table.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification row. Called from the queue consumer, not
// from request handlers; delivery failures there are logged and dropped,
// never surfaced to the user whose action produced the event.
func (r *NotificationRepo) Create(ctx context.Context, n *Notification) error {
	const q = `INSERT INTO notifications (user_id, title, message, type, reference_id) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, n.UserID, n.Title, n.Message, n.Type, n.ReferenceID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's notifications, newest first, capped at
// the given limit (a zero or negative limit means 50).
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, user_id, title, message, type, reference_id, created_at
	           FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.ReferenceID, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
