package store

import (
	"context"
	"time"

	"github.com/nhle/watertracker/internal/model"
)

// EntryFilter bounds an intake query. Zero times leave that side open;
// From is inclusive and To exclusive.
type EntryFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Store defines the persistence interface for intake entries, settings,
// the reminder queue, and the notifications log.
type Store interface {
	// === Intake entries ===

	InsertEntry(ctx context.Context, e model.WaterEntry) (model.WaterEntry, error)
	GetEntries(ctx context.Context, filter EntryFilter) ([]model.WaterEntry, error)
	SumEntries(ctx context.Context, from, to time.Time) (int, error)

	// === Settings (JSON key-value) ===

	GetSetting(ctx context.Context, key string, dst any) (bool, error)
	SetSetting(ctx context.Context, key string, value any) error

	// === Reminder queue ===

	InsertReminders(ctx context.Context, reminders []model.ScheduledReminder) error
	DeletePendingReminders(ctx context.Context) (int64, error)
	GetPendingReminders(ctx context.Context, limit int) ([]model.ScheduledReminder, error)
	GetDueReminders(ctx context.Context, now time.Time) ([]model.ScheduledReminder, error)
	MarkReminderDelivered(ctx context.Context, id string, at time.Time) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}
