package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/watertracker/internal/model"
)

// notificationRow mirrors a notifications row before conversion.
type notificationRow struct {
	ID         string `db:"id"`
	Kind       string `db:"kind"`
	ReminderID string `db:"reminder_id"`
	Title      string `db:"title"`
	Message    string `db:"message"`
	Read       int    `db:"read"`
	CreatedAt  string `db:"created_at"`
}

const notificationColumns = "id, kind, reminder_id, title, message, read, created_at"

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, reminder_id, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), n.ReminderID, n.Title, n.Message,
		boolToInt(n.Read), formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetNotifications returns the most recent notifications, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	limit int,
) ([]model.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.selectNotifications(ctx, "querying notifications", query)
}

// GetUnreadNotifications retrieves all notifications that have not been read,
// ordered by creation time descending.
func (s *SQLiteStore) GetUnreadNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	return s.selectNotifications(ctx, "querying unread notifications",
		"SELECT "+notificationColumns+" FROM notifications WHERE read = 0 ORDER BY created_at DESC",
	)
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead clears the unread flag on every notification.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking notifications as read: %w", err)
	}
	return nil
}

func (s *SQLiteStore) selectNotifications(
	ctx context.Context,
	op string,
	query string,
	args ...interface{},
) ([]model.Notification, error) {
	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		createdAt, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning notification %s: %w", r.ID, err)
		}
		notifications = append(notifications, model.Notification{
			ID:         r.ID,
			Kind:       model.NotificationKind(r.Kind),
			ReminderID: r.ReminderID,
			Title:      r.Title,
			Message:    r.Message,
			Read:       r.Read != 0,
			CreatedAt:  createdAt,
		})
	}
	return notifications, nil
}
