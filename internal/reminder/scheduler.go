// Package reminder turns a ReminderPlan into concrete reminder instants and
// keeps the notifier's queue in step with the latest plan.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/watertracker/internal/model"
)

// PlanKey is the settings key the plan is saved under.
const PlanKey = "reminderPlan"

// DefaultHorizonDays is how many calendar days Apply schedules ahead.
const DefaultHorizonDays = 7

// Reminder text.
const (
	Title = "Time to hydrate"
	Body  = "Have a glass of water and keep your streak going."
)

// Notifier is the host notification service.
type Notifier interface {
	RequestPermission(ctx context.Context) error
	// ScheduleAt queues r and returns a handle for it.
	ScheduleAt(ctx context.Context, r model.ScheduledReminder) (string, error)
	CancelAll(ctx context.Context) error
}

// SettingsStore persists the plan.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string, dst any) (bool, error)
	SetSetting(ctx context.Context, key string, value any) error
}

// Schedule is the result of applying a plan.
type Schedule struct {
	Reminders []model.ScheduledReminder
	// Handles holds the notifier handle of each reminder, in order. It is
	// empty when nothing was handed to the notifier.
	Handles []string
	// Delivering is false when the notifier refused permission.
	Delivering bool
}

// Scheduler applies reminder plans. Construct one per process and share it.
type Scheduler struct {
	notifier Notifier
	settings SettingsStore
	horizon  int
	loc      *time.Location
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHorizon sets how many days ahead Apply schedules.
func WithHorizon(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithLocation sets the time zone plan times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler that hands reminders to n and keeps the plan in
// settings.
func New(n Notifier, settings SettingsStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier: n,
		settings: settings,
		horizon:  DefaultHorizonDays,
		loc:      time.Local,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Horizon returns the number of days Apply schedules ahead.
func (s *Scheduler) Horizon() int {
	return s.horizon
}

// Apply replaces everything queued on the notifier with the instants plan
// produces over the horizon starting at now.
//
// The queue is cleared even when plan is disabled. A refused permission
// still returns the computed schedule, with Delivering unset.
func (s *Scheduler) Apply(ctx context.Context, plan model.ReminderPlan, now time.Time) (Schedule, error) {
	if err := plan.Validate(); err != nil {
		return Schedule{}, err
	}

	if err := s.notifier.CancelAll(ctx); err != nil {
		return Schedule{}, fmt.Errorf("cancelling reminders: %w", err)
	}

	sched := Schedule{
		Reminders: Enumerate(plan, s.horizon, now.In(s.loc)),
		Handles:   []string{},
	}
	if len(sched.Reminders) == 0 {
		s.logger.Info("reminders cleared", "enabled", plan.Enabled)
		return sched, nil
	}

	if err := s.notifier.RequestPermission(ctx); err != nil {
		if errors.Is(err, model.ErrPermissionDenied) {
			s.logger.Warn("notification permission denied", "reminders", len(sched.Reminders))
			return sched, nil
		}
		return sched, fmt.Errorf("requesting permission: %w", err)
	}
	sched.Delivering = true

	for _, r := range sched.Reminders {
		handle, err := s.notifier.ScheduleAt(ctx, r)
		if err != nil {
			err = fmt.Errorf("scheduling reminder at %s: %w", r.FiresAt.Format(time.RFC3339), err)
			// Drop the partial batch so the queue is empty rather than half
			// scheduled.
			if cerr := s.notifier.CancelAll(ctx); cerr != nil {
				err = errors.Join(err, fmt.Errorf("cancelling partial schedule: %w", cerr))
			}
			sched.Handles = []string{}
			sched.Delivering = false
			return sched, err
		}
		sched.Handles = append(sched.Handles, handle)
	}

	s.logger.Info("reminders scheduled",
		"count", len(sched.Reminders),
		"first", sched.Reminders[0].FiresAt,
		"horizon_days", s.horizon,
	)
	return sched, nil
}

// LoadPlan returns the saved plan, or the default plan if none is saved.
func (s *Scheduler) LoadPlan(ctx context.Context) (model.ReminderPlan, error) {
	plan := model.DefaultReminderPlan()
	if _, err := s.settings.GetSetting(ctx, PlanKey, &plan); err != nil {
		return model.DefaultReminderPlan(), fmt.Errorf("%w: loading reminder plan: %w", model.ErrStorage, err)
	}
	return plan, nil
}

// SavePlan validates and persists plan without touching the queue.
func (s *Scheduler) SavePlan(ctx context.Context, plan model.ReminderPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if err := s.settings.SetSetting(ctx, PlanKey, plan); err != nil {
		return fmt.Errorf("%w: saving reminder plan: %w", model.ErrStorage, err)
	}
	return nil
}

// Save persists plan and applies it.
func (s *Scheduler) Save(ctx context.Context, plan model.ReminderPlan, now time.Time) (Schedule, error) {
	if err := s.SavePlan(ctx, plan); err != nil {
		return Schedule{}, err
	}
	return s.Apply(ctx, plan, now)
}

// Refresh re-applies the saved plan, rolling the horizon forward to now.
func (s *Scheduler) Refresh(ctx context.Context, now time.Time) (Schedule, error) {
	plan, err := s.LoadPlan(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return s.Apply(ctx, plan, now)
}

// Enumerate lists the reminder instants plan produces over horizonDays
// calendar days starting with now's date, in now's location. Only instants
// strictly after now are included, in chronological order.
//
// Instants follow wall-clock minutes, so a repeated or skipped DST hour
// never changes the per-day count beyond the skipped instants themselves.
// A window whose end is not after its start produces nothing, matching
// EstimateCount.
func Enumerate(plan model.ReminderPlan, horizonDays int, now time.Time) []model.ScheduledReminder {
	out := []model.ScheduledReminder{}
	if !plan.Enabled || plan.IntervalMinutes <= 0 || horizonDays <= 0 {
		return out
	}
	startMin, endMin := plan.ActiveStart.Minutes(), plan.ActiveEnd.Minutes()
	if endMin <= startMin {
		return out
	}

	y, m, d := now.Date()
	loc := now.Location()
	for i := 0; i < horizonDays; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !plan.ActiveDays.Has(day.Weekday()) {
			continue
		}
		var last time.Time
		for k := startMin; k <= endMin; k += plan.IntervalMinutes {
			t := time.Date(y, m, d+i, 0, k, 0, 0, loc)
			// A minute inside a spring-forward gap normalizes onto a later
			// instant that may already be listed.
			if !t.After(now) || (!last.IsZero() && !t.After(last)) {
				continue
			}
			last = t
			out = append(out, model.ScheduledReminder{
				FiresAt: t,
				Title:   Title,
				Body:    Body,
				Sound:   plan.Sound,
			})
		}
	}
	return out
}

// EstimateCount returns how many reminders plan fires on one active day.
func EstimateCount(plan model.ReminderPlan) int {
	span := plan.ActiveEnd.Minutes() - plan.ActiveStart.Minutes()
	if plan.IntervalMinutes <= 0 || span <= 0 {
		return 0
	}
	return span/plan.IntervalMinutes + 1
}
