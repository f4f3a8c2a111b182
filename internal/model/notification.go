package model

import "time"

// NotificationKind identifies what produced a notification.
type NotificationKind string

const (
	NotificationReminder     NotificationKind = "reminder"
	NotificationGoalAchieved NotificationKind = "goal"
)

// Notification is a delivered alert kept for the notifications log.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Kind tells reminders apart from goal events.
	Kind NotificationKind `json:"kind"`

	// ReminderID links a delivered reminder to its queue entry, if any.
	ReminderID string `json:"reminder_id"`

	// Title and Message are the human-readable notification text.
	Title   string `json:"title"`
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
