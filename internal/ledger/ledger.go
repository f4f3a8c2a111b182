// Package ledger records water intake and derives progress views from the
// persisted entry log. Totals are always recomputed from the log; nothing
// caches a running sum.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/store"
)

// Settings keys owned by the ledger.
const (
	GoalKey  = "dailyGoal"
	UnitsKey = "units"
)

// Store is the persistence the ledger needs.
type Store interface {
	InsertEntry(ctx context.Context, e model.WaterEntry) (model.WaterEntry, error)
	GetEntries(ctx context.Context, filter store.EntryFilter) ([]model.WaterEntry, error)
	SumEntries(ctx context.Context, from, to time.Time) (int, error)
	GetSetting(ctx context.Context, key string, dst any) (bool, error)
	SetSetting(ctx context.Context, key string, value any) error
}

// Receipt describes the outcome of a successful AddEntry.
type Receipt struct {
	Entry model.WaterEntry
	// Total is the day's total including Entry.
	Total int
	Goal  int
	// GoalReached is set only on the add that moved the total from below
	// the goal to at or above it.
	GoalReached bool
}

// GoalListener is called once for every add that reaches the daily goal.
type GoalListener func(ctx context.Context, r Receipt)

// Ledger is the intake ledger service. Construct one per process and share it.
type Ledger struct {
	store       Store
	now         func() time.Time
	loc         *time.Location
	logger      *slog.Logger
	defaultGoal int
	units       model.Units
	onGoal      GoalListener
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDefaultGoal sets the goal reported before one is saved.
func WithDefaultGoal(ml int) Option {
	return func(l *Ledger) {
		if ml > 0 {
			l.defaultGoal = ml
		}
	}
}

// WithDefaultUnits sets the units reported before a preference is saved.
func WithDefaultUnits(u model.Units) Option {
	return func(l *Ledger) {
		l.units = model.ParseUnits(string(u))
	}
}

// WithGoalListener registers the goal-reached callback.
func WithGoalListener(fn GoalListener) Option {
	return func(l *Ledger) {
		l.onGoal = fn
	}
}

// New creates a ledger over the given store.
func New(s Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       s,
		now:         time.Now,
		loc:         time.Local,
		logger:      slog.New(slog.DiscardHandler),
		defaultGoal: model.DefaultDailyGoal,
		units:       model.UnitsMetric,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the time zone calendar days are computed in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// AddEntry records amount milliliters of beverage at the current time.
func (l *Ledger) AddEntry(ctx context.Context, amount int, beverage string) (Receipt, error) {
	if amount <= 0 {
		return Receipt{}, fmt.Errorf("adding entry of %d ml: %w", amount, model.ErrInvalidAmount)
	}
	beverage = strings.ToLower(strings.TrimSpace(beverage))
	if beverage == "" {
		beverage = model.DefaultBeverage
	}

	now := l.now()
	goal, err := l.DailyGoal(ctx)
	if err != nil {
		return Receipt{}, err
	}

	from, to := l.dayBounds(now)
	before, err := l.store.SumEntries(ctx, from, to)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: reading today's total: %w", model.ErrStorage, err)
	}

	entry, err := l.store.InsertEntry(ctx, model.WaterEntry{
		Amount:    amount,
		Beverage:  beverage,
		Timestamp: now,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: adding entry: %w", model.ErrStorage, err)
	}
	entry.Timestamp = entry.Timestamp.In(l.loc)

	after := before + amount
	r := Receipt{
		Entry:       entry,
		Total:       after,
		Goal:        goal,
		GoalReached: before < goal && after >= goal,
	}

	l.logger.Debug("entry added", "id", entry.ID, "amount", amount, "type", beverage, "total", after)
	if r.GoalReached {
		l.logger.Info("daily goal reached", "total", after, "goal", goal)
		if l.onGoal != nil {
			l.onGoal(ctx, r)
		}
	}

	return r, nil
}

// CurrentDailyTotal returns the sum of today's entries.
func (l *Ledger) CurrentDailyTotal(ctx context.Context) (int, error) {
	from, to := l.dayBounds(l.now())
	total, err := l.store.SumEntries(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: reading today's total: %w", model.ErrStorage, err)
	}
	return total, nil
}

// TodayEntries returns today's entries, newest first.
func (l *Ledger) TodayEntries(ctx context.Context) ([]model.WaterEntry, error) {
	from, to := l.dayBounds(l.now())
	entries, err := l.store.GetEntries(ctx, store.EntryFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("%w: loading today's entries: %w", model.ErrStorage, err)
	}
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.In(l.loc)
	}
	return entries, nil
}

// Remaining returns how much is left to reach the goal, never below zero.
func (l *Ledger) Remaining(ctx context.Context) (int, error) {
	p, err := l.Progress(ctx)
	if err != nil {
		return 0, err
	}
	return p.Remaining, nil
}

// Percentage returns today's total as a share of the goal, capped at 100.
func (l *Ledger) Percentage(ctx context.Context) (float64, error) {
	p, err := l.Progress(ctx)
	if err != nil {
		return 0, err
	}
	return p.Percentage, nil
}

// DailyGoal returns the saved goal, or the default when none is saved.
func (l *Ledger) DailyGoal(ctx context.Context) (int, error) {
	goal := l.defaultGoal
	if _, err := l.store.GetSetting(ctx, GoalKey, &goal); err != nil {
		return 0, fmt.Errorf("%w: loading daily goal: %w", model.ErrStorage, err)
	}
	return goal, nil
}

// SetDailyGoal saves a new goal. Later progress queries use it immediately.
func (l *Ledger) SetDailyGoal(ctx context.Context, ml int) error {
	if ml <= 0 {
		return fmt.Errorf("setting goal to %d ml: %w", ml, model.ErrInvalidGoal)
	}
	if err := l.store.SetSetting(ctx, GoalKey, ml); err != nil {
		return fmt.Errorf("%w: saving daily goal: %w", model.ErrStorage, err)
	}
	l.logger.Info("daily goal updated", "goal", ml)
	return nil
}

// Units returns the saved display units, or the default when none is saved.
func (l *Ledger) Units(ctx context.Context) (model.Units, error) {
	raw := string(l.units)
	if _, err := l.store.GetSetting(ctx, UnitsKey, &raw); err != nil {
		return l.units, fmt.Errorf("%w: loading units: %w", model.ErrStorage, err)
	}
	return model.ParseUnits(raw), nil
}

// SetUnits saves the display units preference.
func (l *Ledger) SetUnits(ctx context.Context, u model.Units) error {
	if err := l.store.SetSetting(ctx, UnitsKey, string(model.ParseUnits(string(u)))); err != nil {
		return fmt.Errorf("%w: saving units: %w", model.ErrStorage, err)
	}
	return nil
}

// dayBounds returns the start of t's calendar day and the start of the next.
func (l *Ledger) dayBounds(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t.In(l.loc))
	return start, start.AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
