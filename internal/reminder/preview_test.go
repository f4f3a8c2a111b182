package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/watertracker/internal/model"
)

func TestPreviewNext(t *testing.T) {
	// 2026-03-02 is a Monday.
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
	}
	weekdaysOnly := model.DefaultReminderPlan()
	weekdaysOnly.ActiveDays = model.NewWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

	disabled := model.DefaultReminderPlan()
	disabled.Enabled = false

	tests := []struct {
		name string
		plan model.ReminderPlan
		now  time.Time
		want string
	}{
		{"disabled", disabled, at(2, 12, 0), "Reminders off"},
		{"before start", model.DefaultReminderPlan(), at(2, 6, 30), "Today at 08:00"},
		{"at start", model.DefaultReminderPlan(), at(2, 8, 0), "Next: 09:00"},
		{"inside window", model.DefaultReminderPlan(), at(2, 9, 20), "Next: 10:00"},
		{"on a boundary", model.DefaultReminderPlan(), at(2, 10, 0), "Next: 11:00"},
		{"last boundary", model.DefaultReminderPlan(), at(2, 21, 30), "Next: 22:00"},
		{"at end", model.DefaultReminderPlan(), at(2, 22, 0), "Tomorrow at 08:00"},
		{"after end", model.DefaultReminderPlan(), at(2, 23, 0), "Tomorrow at 08:00"},
		{"inactive today", weekdaysOnly, at(1, 9, 0), "Tomorrow at 08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreviewNext(tt.plan, tt.now).String())
		})
	}
}

func TestPreviewNextRollsOverWhenBoundaryPassesEnd(t *testing.T) {
	plan := model.DefaultReminderPlan()
	plan.IntervalMinutes = 90 // 08:00 ... 21:30, next would be 23:00
	now := time.Date(2026, 3, 2, 21, 45, 0, 0, time.UTC)

	p := PreviewNext(plan, now)
	assert.Equal(t, PreviewTomorrow, p.Kind)
	assert.Equal(t, time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), p.At)
}

func TestPreviewNextInsideWindowIsUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC)

	p := PreviewNext(model.DefaultReminderPlan(), now)
	assert.Equal(t, PreviewUpcoming, p.Kind)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), p.At)
}
