package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/store"
	"github.com/nhle/watertracker/tests/testutil"
)

var zone = time.FixedZone("UTC+2", 2*60*60)

func newLedger(t *testing.T, now time.Time, opts ...ledger.Option) (*ledger.Ledger, *testutil.Clock, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	clock := testutil.NewClock(now)
	opts = append([]ledger.Option{ledger.WithClock(clock.Now), ledger.WithLocation(zone)}, opts...)
	return ledger.New(s, opts...), clock, s
}

func TestAddEntryTotalEqualsSum(t *testing.T) {
	ctx := context.Background()
	l, clock, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	amounts := []int{250, 100, 500, 330}
	want := 0
	for _, a := range amounts {
		r, err := l.AddEntry(ctx, a, "water")
		require.NoError(t, err)
		want += a
		assert.Equal(t, want, r.Total)
		clock.Advance(15 * time.Minute)
	}

	total, err := l.CurrentDailyTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, total)
}

func TestAddEntryRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	for _, amount := range []int{0, -1, -250} {
		_, err := l.AddEntry(ctx, amount, "water")
		assert.ErrorIs(t, err, model.ErrInvalidAmount)
	}

	total, err := l.CurrentDailyTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	days, err := l.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestAddEntryDefaultsBeverage(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	r, err := l.AddEntry(ctx, 200, "  ")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBeverage, r.Entry.Beverage)
	assert.NotZero(t, r.Entry.ID)

	r, err = l.AddEntry(ctx, 200, "Tea")
	require.NoError(t, err)
	assert.Equal(t, "tea", r.Entry.Beverage)
}

func TestHistoryGroupsByDayNewestFirst(t *testing.T) {
	ctx := context.Background()
	d1 := time.Date(2026, 3, 2, 8, 0, 0, 0, zone)
	d2 := d1.AddDate(0, 0, -1)
	l, clock, _ := newLedger(t, d2.Add(2*time.Hour))

	_, err := l.AddEntry(ctx, 50, "water")
	require.NoError(t, err)

	clock.Set(d1)
	_, err = l.AddEntry(ctx, 100, "water")
	require.NoError(t, err)
	clock.Set(d1.Add(time.Hour))
	_, err = l.AddEntry(ctx, 200, "tea")
	require.NoError(t, err)

	days, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.True(t, days[0].Date.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, zone)))
	assert.True(t, days[1].Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, zone)))
	assert.Equal(t, 300, days[0].Total())
	assert.Equal(t, 50, days[1].Total())

	require.Len(t, days[0].Entries, 2)
	assert.Equal(t, 200, days[0].Entries[0].Amount, "newest entry first within a day")
	assert.Equal(t, 100, days[0].Entries[1].Amount)

	for _, d := range days {
		for _, e := range d.Entries {
			y, m, dd := e.Timestamp.In(zone).Date()
			assert.True(t, time.Date(y, m, dd, 0, 0, 0, 0, zone).Equal(d.Date))
		}
	}
}

func TestHistoryRangeLimitsDays(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, zone)
	l, clock, _ := newLedger(t, start)

	for i := 0; i < 4; i++ {
		clock.Set(start.AddDate(0, 0, i))
		_, err := l.AddEntry(ctx, 100*(i+1), "water")
		require.NoError(t, err)
	}

	days, err := l.HistoryRange(ctx, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 300, days[0].Total())
	assert.Equal(t, 200, days[1].Total())
}

func TestCurrentDailyTotalUsesLocalCalendarDay(t *testing.T) {
	ctx := context.Background()
	lateYesterday := time.Date(2026, 3, 1, 23, 30, 0, 0, zone)
	l, clock, _ := newLedger(t, lateYesterday)

	_, err := l.AddEntry(ctx, 400, "water")
	require.NoError(t, err)

	clock.Set(time.Date(2026, 3, 2, 0, 15, 0, 0, zone))
	_, err = l.AddEntry(ctx, 150, "water")
	require.NoError(t, err)

	total, err := l.CurrentDailyTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, total)
}

func TestRemainingNeverNegative(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))
	require.NoError(t, l.SetDailyGoal(ctx, 2000))

	_, err := l.AddEntry(ctx, 2500, "water")
	require.NoError(t, err)

	remaining, err := l.Remaining(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	pct, err := l.Percentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)
}

func TestRemainingPlusTotalEqualsGoalBelowGoal(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	_, err := l.AddEntry(ctx, 750, "water")
	require.NoError(t, err)

	p, err := l.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDailyGoal, p.Goal)
	assert.Equal(t, p.Goal-p.Remaining, p.Total)
	assert.InDelta(t, 37.5, p.Percentage, 0.0001)
	assert.Equal(t, "Good start! Keep drinking!", p.Message())
}

func TestGoalReachedFiresOnce(t *testing.T) {
	ctx := context.Background()
	var fired []ledger.Receipt
	listener := func(_ context.Context, r ledger.Receipt) { fired = append(fired, r) }
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone), ledger.WithGoalListener(listener))
	require.NoError(t, l.SetDailyGoal(ctx, 2000))

	r, err := l.AddEntry(ctx, 1900, "water")
	require.NoError(t, err)
	assert.False(t, r.GoalReached)

	r, err = l.AddEntry(ctx, 150, "water")
	require.NoError(t, err)
	assert.True(t, r.GoalReached)
	assert.Equal(t, 2050, r.Total)

	r, err = l.AddEntry(ctx, 50, "water")
	require.NoError(t, err)
	assert.False(t, r.GoalReached)

	require.Len(t, fired, 1)
	assert.Equal(t, 2050, fired[0].Total)
}

func TestGoalReachedOnExactHit(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))
	require.NoError(t, l.SetDailyGoal(ctx, 500))

	r, err := l.AddEntry(ctx, 500, "water")
	require.NoError(t, err)
	assert.True(t, r.GoalReached)
}

func TestSetDailyGoalRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	assert.ErrorIs(t, l.SetDailyGoal(ctx, 0), model.ErrInvalidGoal)
	assert.ErrorIs(t, l.SetDailyGoal(ctx, -100), model.ErrInvalidGoal)

	goal, err := l.DailyGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDailyGoal, goal)
}

func TestSetDailyGoalAppliesImmediately(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	_, err := l.AddEntry(ctx, 500, "water")
	require.NoError(t, err)
	require.NoError(t, l.SetDailyGoal(ctx, 1000))

	pct, err := l.Percentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, pct)

	remaining, err := l.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, remaining)
}

func TestPercentageRejectsStoredNonPositiveGoal(t *testing.T) {
	ctx := context.Background()
	l, _, s := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))
	require.NoError(t, s.SetSetting(ctx, ledger.GoalKey, 0))

	_, err := l.Percentage(ctx)
	assert.ErrorIs(t, err, model.ErrInvalidGoal)
}

func TestWithDefaultGoal(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone), ledger.WithDefaultGoal(2500))

	goal, err := l.DailyGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2500, goal)
}

func TestDailyTotalsIncludesEmptyDays(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 3, 5, 12, 0, 0, 0, zone)
	l, clock, _ := newLedger(t, today.AddDate(0, 0, -2))

	_, err := l.AddEntry(ctx, 300, "water")
	require.NoError(t, err)
	clock.Set(today)
	_, err = l.AddEntry(ctx, 450, "water")
	require.NoError(t, err)

	totals, err := l.DailyTotals(ctx, 4)
	require.NoError(t, err)
	require.Len(t, totals, 4)

	got := make([]int, len(totals))
	for i, d := range totals {
		got[i] = d.Total
	}
	assert.Equal(t, []int{0, 300, 0, 450}, got)
	assert.True(t, totals[3].Date.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, zone)))
}

func TestUnitsRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLedger(t, time.Date(2026, 3, 2, 8, 0, 0, 0, zone))

	u, err := l.Units(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.UnitsMetric, u)

	require.NoError(t, l.SetUnits(ctx, model.UnitsImperial))
	u, err = l.Units(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.UnitsImperial, u)
}

// brokenStore fails every call.
type brokenStore struct{}

var errDisk = errors.New("disk I/O error")

func (brokenStore) InsertEntry(context.Context, model.WaterEntry) (model.WaterEntry, error) {
	return model.WaterEntry{}, errDisk
}

func (brokenStore) GetEntries(context.Context, store.EntryFilter) ([]model.WaterEntry, error) {
	return nil, errDisk
}

func (brokenStore) SumEntries(context.Context, time.Time, time.Time) (int, error) {
	return 0, errDisk
}

func (brokenStore) GetSetting(context.Context, string, any) (bool, error) {
	return false, nil
}

func (brokenStore) SetSetting(context.Context, string, any) error {
	return errDisk
}

func TestHistoryDegradesToEmptyOnStorageFailure(t *testing.T) {
	l := ledger.New(brokenStore{})

	days, err := l.History(context.Background())
	require.NotNil(t, days)
	assert.Empty(t, days)
	assert.ErrorIs(t, err, model.ErrStorage)
	assert.ErrorIs(t, err, errDisk)
}

func TestWriteFailuresSurfaceAsStorageErrors(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(brokenStore{})

	_, err := l.AddEntry(ctx, 100, "water")
	assert.ErrorIs(t, err, model.ErrStorage)

	err = l.SetDailyGoal(ctx, 1500)
	assert.ErrorIs(t, err, model.ErrStorage)
}
