package reminder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/reminder"
	"github.com/nhle/watertracker/tests/testutil"
)

// monday is 2026-03-02, a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func mondayPlan() model.ReminderPlan {
	return model.ReminderPlan{
		Enabled:         true,
		ActiveStart:     model.NewTimeOfDay(8, 0),
		ActiveEnd:       model.NewTimeOfDay(10, 0),
		IntervalMinutes: 60,
		ActiveDays:      model.NewWeekdays(time.Monday),
		Sound:           model.SoundChime,
	}
}

type fakeNotifier struct {
	calls         []string
	scheduled     []model.ScheduledReminder
	permissionErr error
	scheduleErr   error
	// scheduleOK is how many ScheduleAt calls succeed before scheduleErr
	// is returned.
	scheduleOK int
}

func (f *fakeNotifier) RequestPermission(context.Context) error {
	f.calls = append(f.calls, "permission")
	return f.permissionErr
}

func (f *fakeNotifier) ScheduleAt(_ context.Context, r model.ScheduledReminder) (string, error) {
	f.calls = append(f.calls, "schedule")
	if f.scheduleErr != nil && len(f.scheduled) >= f.scheduleOK {
		return "", f.scheduleErr
	}
	f.scheduled = append(f.scheduled, r)
	return fmt.Sprintf("h%d", len(f.scheduled)), nil
}

func (f *fakeNotifier) CancelAll(context.Context) error {
	f.calls = append(f.calls, "cancel")
	f.scheduled = nil
	return nil
}

func firesAt(rs []model.ScheduledReminder) []time.Time {
	out := make([]time.Time, len(rs))
	for i, r := range rs {
		out[i] = r.FiresAt
	}
	return out
}

func TestEnumerateBeforeWindow(t *testing.T) {
	got := reminder.Enumerate(mondayPlan(), 1, monday(7, 0))

	require.Len(t, got, 3)
	assert.Equal(t, []time.Time{monday(8, 0), monday(9, 0), monday(10, 0)}, firesAt(got))
	for _, r := range got {
		assert.Equal(t, reminder.Title, r.Title)
		assert.Equal(t, model.SoundChime, r.Sound)
	}
}

func TestEnumerateSkipsPastInstants(t *testing.T) {
	got := reminder.Enumerate(mondayPlan(), 1, monday(8, 30))
	assert.Equal(t, []time.Time{monday(9, 0), monday(10, 0)}, firesAt(got))
}

func TestEnumerateExcludesNow(t *testing.T) {
	got := reminder.Enumerate(mondayPlan(), 1, monday(9, 0))
	assert.Equal(t, []time.Time{monday(10, 0)}, firesAt(got))
}

func TestEnumerateSkipsInactiveDays(t *testing.T) {
	// A week from Monday 07:00 covers exactly one Monday.
	got := reminder.Enumerate(mondayPlan(), 7, monday(7, 0))
	assert.Len(t, got, 3)

	// Starting on Tuesday, the next Monday is day seven.
	tuesday := monday(7, 0).AddDate(0, 0, 1)
	got = reminder.Enumerate(mondayPlan(), 7, tuesday)
	require.Len(t, got, 3)
	assert.Equal(t, monday(8, 0).AddDate(0, 0, 7), got[0].FiresAt)
}

func TestEnumerateChronologicalAndFuture(t *testing.T) {
	plan := model.DefaultReminderPlan()
	plan.IntervalMinutes = 45
	now := monday(13, 10)

	got := reminder.Enumerate(plan, 7, now)
	require.NotEmpty(t, got)
	for i, r := range got {
		assert.True(t, r.FiresAt.After(now))
		if i > 0 {
			assert.True(t, r.FiresAt.After(got[i-1].FiresAt))
		}
	}
}

func TestEnumerateMatchesEstimateForOneDay(t *testing.T) {
	for _, interval := range model.IntervalOptions {
		plan := model.DefaultReminderPlan()
		plan.IntervalMinutes = interval
		got := reminder.Enumerate(plan, 1, monday(0, 0))
		assert.Len(t, got, reminder.EstimateCount(plan), "interval %d", interval)
	}

	zeroWidth := mondayPlan()
	zeroWidth.ActiveEnd = zeroWidth.ActiveStart
	got := reminder.Enumerate(zeroWidth, 1, monday(7, 0))
	assert.Len(t, got, reminder.EstimateCount(zeroWidth))
	assert.Empty(t, got)

	inverted := mondayPlan()
	inverted.ActiveStart, inverted.ActiveEnd = inverted.ActiveEnd, inverted.ActiveStart
	assert.Empty(t, reminder.Enumerate(inverted, 1, monday(7, 0)))
}

func TestEnumerateFollowsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	plan := model.DefaultReminderPlan()
	plan.ActiveStart = model.NewTimeOfDay(0, 0)
	plan.ActiveEnd = model.NewTimeOfDay(23, 0)

	// 2026-11-01 repeats 01:00 when clocks fall back.
	fallBack := time.Date(2026, 10, 31, 23, 30, 0, 0, ny)
	got := reminder.Enumerate(plan, 2, fallBack)
	require.Len(t, got, reminder.EstimateCount(plan))
	for i, r := range got {
		assert.Equal(t, i, r.FiresAt.Hour(), "instant %d", i)
	}

	// 2026-03-08 skips 02:00 when clocks spring forward.
	springForward := time.Date(2026, 3, 7, 23, 30, 0, 0, ny)
	got = reminder.Enumerate(plan, 2, springForward)
	assert.Len(t, got, reminder.EstimateCount(plan)-1)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].FiresAt.After(got[i-1].FiresAt))
	}
}

func TestEnumerateDisabled(t *testing.T) {
	plan := mondayPlan()
	plan.Enabled = false
	got := reminder.Enumerate(plan, 7, monday(7, 0))
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEstimateCount(t *testing.T) {
	plan := model.DefaultReminderPlan()
	assert.Equal(t, 15, reminder.EstimateCount(plan))

	plan.IntervalMinutes = 90
	assert.Equal(t, 10, reminder.EstimateCount(plan))

	plan.ActiveEnd = plan.ActiveStart
	assert.Equal(t, 0, reminder.EstimateCount(plan))

	plan = model.DefaultReminderPlan()
	plan.IntervalMinutes = 0
	assert.Equal(t, 0, reminder.EstimateCount(plan))
}

func TestApplyDisabledCancelsEverything(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithLocation(time.UTC))

	_, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	require.NoError(t, err)
	require.Len(t, n.scheduled, 3)

	plan := mondayPlan()
	plan.Enabled = false
	sched, err := s.Apply(ctx, plan, monday(7, 0))
	require.NoError(t, err)

	assert.Empty(t, sched.Reminders)
	assert.Empty(t, n.scheduled)
	assert.Equal(t, "cancel", n.calls[len(n.calls)-1])
}

func TestApplyReplacesPreviousSchedule(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithHorizon(1), reminder.WithLocation(time.UTC))

	first, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	require.NoError(t, err)
	second, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	require.NoError(t, err)

	assert.Equal(t, firesAt(first.Reminders), firesAt(second.Reminders))
	assert.Len(t, n.scheduled, 3)
	assert.Equal(t, []string{"h1", "h2", "h3"}, second.Handles)
	assert.True(t, second.Delivering)
	assert.Equal(t, "cancel", n.calls[0])
}

func TestApplyPermissionDeniedStillReturnsSchedule(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{permissionErr: fmt.Errorf("host said no: %w", model.ErrPermissionDenied)}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithHorizon(1), reminder.WithLocation(time.UTC))

	sched, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	require.NoError(t, err)

	assert.Len(t, sched.Reminders, 3)
	assert.False(t, sched.Delivering)
	assert.Empty(t, sched.Handles)
	assert.Empty(t, n.scheduled)
	assert.Equal(t, []string{"cancel", "permission"}, n.calls)
}

func TestApplyRejectsInvalidPlan(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s := reminder.New(n, testutil.NewTestStore(t))

	plan := mondayPlan()
	plan.IntervalMinutes = 0
	_, err := s.Apply(ctx, plan, monday(7, 0))
	assert.ErrorIs(t, err, model.ErrInvalidPlan)

	plan = mondayPlan()
	plan.ActiveDays = 0
	_, err = s.Apply(ctx, plan, monday(7, 0))
	assert.ErrorIs(t, err, model.ErrInvalidPlan)

	assert.Empty(t, n.calls)
}

func TestApplySurfacesNotifierFailure(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{scheduleErr: fmt.Errorf("%w: disk full", model.ErrStorage)}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithHorizon(1), reminder.WithLocation(time.UTC))

	_, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	assert.ErrorIs(t, err, model.ErrStorage)
}

func TestApplyClearsPartialScheduleOnFailure(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{scheduleErr: fmt.Errorf("%w: disk full", model.ErrStorage), scheduleOK: 2}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithHorizon(1), reminder.WithLocation(time.UTC))

	sched, err := s.Apply(ctx, mondayPlan(), monday(7, 0))
	require.ErrorIs(t, err, model.ErrStorage)

	assert.Empty(t, n.scheduled)
	assert.Empty(t, sched.Handles)
	assert.False(t, sched.Delivering)
	assert.Equal(t, "cancel", n.calls[len(n.calls)-1])
}

func TestPlanPersistence(t *testing.T) {
	ctx := context.Background()
	s := reminder.New(&fakeNotifier{}, testutil.NewTestStore(t))

	plan, err := s.LoadPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultReminderPlan(), plan)

	require.NoError(t, s.SavePlan(ctx, mondayPlan()))
	plan, err = s.LoadPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, mondayPlan(), plan)

	bad := mondayPlan()
	bad.IntervalMinutes = -5
	assert.ErrorIs(t, s.SavePlan(ctx, bad), model.ErrInvalidPlan)
}

func TestRefreshAppliesSavedPlan(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s := reminder.New(n, testutil.NewTestStore(t), reminder.WithHorizon(1), reminder.WithLocation(time.UTC))
	require.NoError(t, s.SavePlan(ctx, mondayPlan()))

	sched, err := s.Refresh(ctx, monday(8, 30))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{monday(9, 0), monday(10, 0)}, firesAt(sched.Reminders))
}

type failingSettings struct{}

func (failingSettings) GetSetting(context.Context, string, any) (bool, error) {
	return false, errors.New("database is locked")
}

func (failingSettings) SetSetting(context.Context, string, any) error {
	return errors.New("database is locked")
}

func TestPlanPersistenceFailures(t *testing.T) {
	ctx := context.Background()
	s := reminder.New(&fakeNotifier{}, failingSettings{})

	plan, err := s.LoadPlan(ctx)
	assert.ErrorIs(t, err, model.ErrStorage)
	assert.Equal(t, model.DefaultReminderPlan(), plan)

	assert.ErrorIs(t, s.SavePlan(ctx, mondayPlan()), model.ErrStorage)
}
