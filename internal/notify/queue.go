// Package notify owns the local reminder queue and delivers due reminders.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/watertracker/internal/model"
)

// QueueStore is the persistence a Queue needs.
type QueueStore interface {
	InsertReminders(ctx context.Context, reminders []model.ScheduledReminder) error
	DeletePendingReminders(ctx context.Context) (int64, error)
	GetPendingReminders(ctx context.Context, limit int) ([]model.ScheduledReminder, error)
}

// Queue is the store-backed notification service the reminder scheduler
// hands instants to. It grants permission only while notifications are
// enabled.
type Queue struct {
	store   QueueStore
	logger  *slog.Logger
	mu      gosync.Mutex
	enabled bool
}

// NewQueue creates a queue over s.
func NewQueue(s QueueStore, enabled bool, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{store: s, enabled: enabled, logger: logger}
}

// SetEnabled turns permission on or off.
func (q *Queue) SetEnabled(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = enabled
}

// Enabled reports whether notifications are permitted.
func (q *Queue) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// RequestPermission returns model.ErrPermissionDenied while notifications
// are disabled.
func (q *Queue) RequestPermission(ctx context.Context) error {
	if !q.Enabled() {
		return fmt.Errorf("notifications disabled in config: %w", model.ErrPermissionDenied)
	}
	return nil
}

// ScheduleAt queues r and returns its ID as the handle.
func (q *Queue) ScheduleAt(ctx context.Context, r model.ScheduledReminder) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := q.store.InsertReminders(ctx, []model.ScheduledReminder{r}); err != nil {
		return "", fmt.Errorf("%w: queueing reminder: %w", model.ErrStorage, err)
	}
	return r.ID, nil
}

// CancelAll drops every reminder that has not been delivered yet.
func (q *Queue) CancelAll(ctx context.Context) error {
	n, err := q.store.DeletePendingReminders(ctx)
	if err != nil {
		return fmt.Errorf("%w: cancelling reminders: %w", model.ErrStorage, err)
	}
	q.logger.Debug("pending reminders cancelled", "count", n)
	return nil
}

// Pending lists up to limit undelivered reminders, soonest first.
func (q *Queue) Pending(ctx context.Context, limit int) ([]model.ScheduledReminder, error) {
	rs, err := q.store.GetPendingReminders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: loading pending reminders: %w", model.ErrStorage, err)
	}
	return rs, nil
}

// Next returns the soonest pending reminder after now, if any.
func (q *Queue) Next(ctx context.Context, now time.Time) (model.ScheduledReminder, bool, error) {
	rs, err := q.Pending(ctx, 0)
	if err != nil {
		return model.ScheduledReminder{}, false, err
	}
	for _, r := range rs {
		if r.FiresAt.After(now) {
			return r, true, nil
		}
	}
	return model.ScheduledReminder{}, false, nil
}
