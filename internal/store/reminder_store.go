package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/watertracker/internal/model"
)

// reminderRow mirrors a scheduled_reminders row before timestamp parsing.
type reminderRow struct {
	ID          string         `db:"id"`
	FiresAt     string         `db:"fires_at"`
	Title       string         `db:"title"`
	Body        string         `db:"body"`
	Sound       string         `db:"sound"`
	DeliveredAt sql.NullString `db:"delivered_at"`
	CreatedAt   string         `db:"created_at"`
}

func (r reminderRow) toModel() (model.ScheduledReminder, error) {
	firesAt, err := parseTime(r.FiresAt)
	if err != nil {
		return model.ScheduledReminder{}, fmt.Errorf("scanning reminder %s: %w", r.ID, err)
	}
	rem := model.ScheduledReminder{
		ID:      r.ID,
		FiresAt: firesAt,
		Title:   r.Title,
		Body:    r.Body,
		Sound:   r.Sound,
	}
	if r.DeliveredAt.Valid {
		at, err := parseTime(r.DeliveredAt.String)
		if err != nil {
			return model.ScheduledReminder{}, fmt.Errorf("scanning reminder %s: %w", r.ID, err)
		}
		rem.DeliveredAt = &at
	}
	return rem, nil
}

const reminderColumns = "id, fires_at, title, body, sound, delivered_at, created_at"

// InsertReminders queues a batch of reminders in one transaction.
// Reminders without an ID get a new UUID.
func (s *SQLiteStore) InsertReminders(
	ctx context.Context,
	reminders []model.ScheduledReminder,
) error {
	if len(reminders) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO scheduled_reminders (id, fires_at, title, body, sound, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing reminder insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, r := range reminders {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, formatTime(r.FiresAt), r.Title, r.Body, r.Sound, now,
		)
		if err != nil {
			return fmt.Errorf("queueing reminder %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// DeletePendingReminders removes every reminder that has not been
// delivered yet and returns how many were removed.
func (s *SQLiteStore) DeletePendingReminders(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM scheduled_reminders WHERE delivered_at IS NULL",
	)
	if err != nil {
		return 0, fmt.Errorf("cancelling pending reminders: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// GetPendingReminders returns undelivered reminders in firing order.
func (s *SQLiteStore) GetPendingReminders(
	ctx context.Context,
	limit int,
) ([]model.ScheduledReminder, error) {
	query := "SELECT " + reminderColumns + " FROM scheduled_reminders" +
		" WHERE delivered_at IS NULL ORDER BY fires_at ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.selectReminders(ctx, "querying pending reminders", query)
}

// GetDueReminders returns undelivered reminders whose firing time is at or
// before now, oldest first.
func (s *SQLiteStore) GetDueReminders(
	ctx context.Context,
	now time.Time,
) ([]model.ScheduledReminder, error) {
	query := "SELECT " + reminderColumns + " FROM scheduled_reminders" +
		" WHERE delivered_at IS NULL AND fires_at <= ? ORDER BY fires_at ASC"
	return s.selectReminders(ctx, "querying due reminders", query, formatTime(now))
}

// MarkReminderDelivered stamps a queued reminder as delivered.
func (s *SQLiteStore) MarkReminderDelivered(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_reminders SET delivered_at = ? WHERE id = ?",
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("marking reminder %s delivered: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("reminder %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) selectReminders(
	ctx context.Context,
	op string,
	query string,
	args ...interface{},
) ([]model.ScheduledReminder, error) {
	var rows []reminderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reminders := make([]model.ScheduledReminder, 0, len(rows))
	for _, r := range rows {
		rem, err := r.toModel()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}
