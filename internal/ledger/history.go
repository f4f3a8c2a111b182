package ledger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/store"
)

// History returns every entry grouped by calendar day, most recent day
// first. Within a day entries keep the store's newest-first order.
//
// A storage failure never escapes as a nil result: the returned slice is
// empty and the error wraps model.ErrStorage, so a view can render the
// empty state and report the error.
func (l *Ledger) History(ctx context.Context) ([]model.DayHistory, error) {
	return l.HistoryRange(ctx, time.Time{}, time.Time{})
}

// HistoryRange is History limited to the calendar days from..to inclusive.
// Zero bounds leave that side open.
func (l *Ledger) HistoryRange(ctx context.Context, from, to time.Time) ([]model.DayHistory, error) {
	filter := store.EntryFilter{}
	if !from.IsZero() {
		filter.From, _ = l.dayBounds(from)
	}
	if !to.IsZero() {
		_, filter.To = l.dayBounds(to)
	}

	entries, err := l.store.GetEntries(ctx, filter)
	if err != nil {
		l.logger.Error("loading history", "error", err)
		return []model.DayHistory{}, fmt.Errorf("%w: loading history: %w", model.ErrStorage, err)
	}
	return GroupByDay(entries, l.loc), nil
}

// DailyTotals returns one total per day for the last n days, oldest first,
// including days with nothing recorded.
func (l *Ledger) DailyTotals(ctx context.Context, n int) ([]model.DayTotal, error) {
	if n <= 0 {
		return []model.DayTotal{}, nil
	}
	today, _ := l.dayBounds(l.now())
	first := today.AddDate(0, 0, -(n - 1))

	days, err := l.HistoryRange(ctx, first, today)
	if err != nil {
		return []model.DayTotal{}, err
	}

	byDate := make(map[string]int, len(days))
	for _, d := range days {
		byDate[dayKey(d.Date)] = d.Total()
	}

	totals := make([]model.DayTotal, 0, n)
	for i := 0; i < n; i++ {
		day := first.AddDate(0, 0, i)
		totals = append(totals, model.DayTotal{Date: day, Total: byDate[dayKey(day)]})
	}
	return totals, nil
}

// GroupByDay partitions entries by their calendar date in loc. Days are
// ordered newest first; entries within a day keep their input order.
func GroupByDay(entries []model.WaterEntry, loc *time.Location) []model.DayHistory {
	if loc == nil {
		loc = time.Local
	}

	days := []model.DayHistory{}
	index := make(map[string]int)
	for _, e := range entries {
		e.Timestamp = e.Timestamp.In(loc)
		date := startOfDay(e.Timestamp)
		i, ok := index[dayKey(date)]
		if !ok {
			i = len(days)
			index[dayKey(date)] = i
			days = append(days, model.DayHistory{Date: date})
		}
		days[i].Entries = append(days[i].Entries, e)
	}

	slices.SortStableFunc(days, func(a, b model.DayHistory) int {
		return b.Date.Compare(a.Date)
	})
	return days
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
