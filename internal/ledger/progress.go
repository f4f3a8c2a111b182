package ledger

import (
	"context"
	"fmt"

	"github.com/nhle/watertracker/internal/model"
)

// Progress is today's standing against the goal.
type Progress struct {
	Total      int
	Goal       int
	Remaining  int
	Percentage float64
	Entries    []model.WaterEntry
}

// Message returns the encouragement line for the current percentage.
func (p Progress) Message() string {
	return Motivation(p.Percentage)
}

// Reached reports whether the goal has been met today.
func (p Progress) Reached() bool {
	return p.Total >= p.Goal
}

// Progress loads today's entries and derives the progress figures from
// them, so Total always equals the sum of Entries.
func (l *Ledger) Progress(ctx context.Context) (Progress, error) {
	goal, err := l.DailyGoal(ctx)
	if err != nil {
		return Progress{}, err
	}
	if goal <= 0 {
		return Progress{}, fmt.Errorf("stored goal %d ml: %w", goal, model.ErrInvalidGoal)
	}

	entries, err := l.TodayEntries(ctx)
	if err != nil {
		return Progress{}, err
	}

	total := 0
	for _, e := range entries {
		total += e.Amount
	}

	return Progress{
		Total:      total,
		Goal:       goal,
		Remaining:  RemainingOf(total, goal),
		Percentage: PercentageOf(total, goal),
		Entries:    entries,
	}, nil
}

// RemainingOf returns max(goal-total, 0).
func RemainingOf(total, goal int) int {
	if r := goal - total; r > 0 {
		return r
	}
	return 0
}

// PercentageOf returns min(total/goal*100, 100). A non-positive goal
// yields 0; callers validate goals before getting here.
func PercentageOf(total, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	pct := float64(total) / float64(goal) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Motivation picks the encouragement line for a percentage.
func Motivation(pct float64) string {
	switch {
	case pct >= 100:
		return "Goal achieved! You're well hydrated!"
	case pct >= 75:
		return "Almost there! Keep it up!"
	case pct >= 50:
		return "Great progress! You're halfway there!"
	case pct >= 25:
		return "Good start! Keep drinking!"
	default:
		return "Let's start hydrating! Your body will thank you!"
	}
}
