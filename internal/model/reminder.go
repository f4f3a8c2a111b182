package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Reminder sound identifiers.
const (
	SoundGentle    = "gentle"
	SoundWaterDrop = "water-drop"
	SoundChime     = "chime"
	SoundBubble    = "bubble"
)

// SoundOption is a selectable notification sound.
type SoundOption struct {
	Value string
	Label string
}

// SoundOptions lists the sounds offered in the reminder settings.
var SoundOptions = []SoundOption{
	{Value: SoundGentle, Label: "Gentle Bell"},
	{Value: SoundWaterDrop, Label: "Water Drop"},
	{Value: SoundChime, Label: "Soft Chime"},
	{Value: SoundBubble, Label: "Bubble Pop"},
}

// IntervalOptions are the reminder intervals, in minutes, offered in the UI.
var IntervalOptions = []int{15, 30, 45, 60, 90, 120, 180}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay returns the time of day for the given hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant at this time of day on the calendar date of day,
// interpreted in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalJSON encodes the time as a "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// weekdayNames are the short names used for persistence and display,
// indexed by time.Weekday.
var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekOrder is the display order of weekdays, starting on Monday.
var WeekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayName returns the short name ("Mon") of a weekday.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d%7]
}

// ParseWeekday resolves a short or long weekday name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		full := strings.ToLower(time.Weekday(i).String())
		if s == strings.ToLower(name) || s == full {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Weekdays is a set of weekdays stored as a bitmask.
type Weekdays uint8

// AllWeekdays contains every day of the week.
const AllWeekdays Weekdays = 1<<7 - 1

// NewWeekdays builds a set from the given days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w = w.With(d)
	}
	return w
}

// Has reports whether d is in the set.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d%7)) != 0
}

// With returns the set with d added.
func (w Weekdays) With(d time.Weekday) Weekdays {
	return w | 1<<uint(d%7)
}

// Without returns the set with d removed.
func (w Weekdays) Without(d time.Weekday) Weekdays {
	return w &^ (1 << uint(d%7))
}

// Empty reports whether no day is selected.
func (w Weekdays) Empty() bool {
	return w&AllWeekdays == 0
}

// Names returns the short names of the selected days, Monday first.
func (w Weekdays) Names() []string {
	names := make([]string, 0, 7)
	for _, d := range WeekOrder {
		if w.Has(d) {
			names = append(names, WeekdayName(d))
		}
	}
	return names
}

// String joins the selected day names with commas.
func (w Weekdays) String() string {
	if w&AllWeekdays == AllWeekdays {
		return "every day"
	}
	if w.Empty() {
		return "no days"
	}
	return strings.Join(w.Names(), ", ")
}

// MarshalJSON encodes the set as a list of short day names.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Names())
}

// UnmarshalJSON decodes a list of day names.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set Weekdays
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return err
		}
		set = set.With(d)
	}
	*w = set
	return nil
}

// ReminderPlan is the user's reminder configuration.
type ReminderPlan struct {
	Enabled         bool      `json:"enabled"`
	ActiveStart     TimeOfDay `json:"activeStart"`
	ActiveEnd       TimeOfDay `json:"activeEnd"`
	IntervalMinutes int       `json:"intervalMinutes"`
	ActiveDays      Weekdays  `json:"activeDays"`
	Sound           string    `json:"sound"`
}

// DefaultReminderPlan returns the plan used before the user saves one:
// enabled, 08:00 to 22:00, hourly, every day.
func DefaultReminderPlan() ReminderPlan {
	return ReminderPlan{
		Enabled:         true,
		ActiveStart:     NewTimeOfDay(8, 0),
		ActiveEnd:       NewTimeOfDay(22, 0),
		IntervalMinutes: 60,
		ActiveDays:      AllWeekdays,
		Sound:           SoundGentle,
	}
}

// Validate checks the fields the scheduler relies on. A disabled plan is
// always valid.
func (p ReminderPlan) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidPlan, p.IntervalMinutes)
	}
	if p.ActiveDays.Empty() {
		return fmt.Errorf("%w: no active days selected", ErrInvalidPlan)
	}
	for _, t := range []TimeOfDay{p.ActiveStart, p.ActiveEnd} {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("%w: time %s out of range", ErrInvalidPlan, t)
		}
	}
	return nil
}

// ScheduledReminder is one concrete notification instant derived from a plan.
type ScheduledReminder struct {
	ID          string     `json:"id" db:"id"`
	FiresAt     time.Time  `json:"fires_at" db:"fires_at"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Sound       string     `json:"sound" db:"sound"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}
