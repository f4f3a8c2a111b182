package reminder

import (
	"time"

	"github.com/nhle/watertracker/internal/model"
)

// PreviewKind says how a Preview is phrased.
type PreviewKind int

const (
	PreviewOff PreviewKind = iota
	PreviewToday
	PreviewTomorrow
	PreviewUpcoming
)

// Preview is a hint about the next reminder, for display only. It may not
// match the first instant Apply schedules.
type Preview struct {
	Kind PreviewKind
	At   time.Time
}

func (p Preview) String() string {
	clock := p.At.Format("15:04")
	switch p.Kind {
	case PreviewToday:
		return "Today at " + clock
	case PreviewTomorrow:
		return "Tomorrow at " + clock
	case PreviewUpcoming:
		return "Next: " + clock
	default:
		return "Reminders off"
	}
}

// PreviewNext describes when the next reminder should fire relative to now.
// Inside the active window it reports the next interval boundary strictly
// after now, rolling over to tomorrow's start when that boundary falls past
// the end of the window.
func PreviewNext(plan model.ReminderPlan, now time.Time) Preview {
	if !plan.Enabled || plan.Validate() != nil {
		return Preview{Kind: PreviewOff}
	}

	start := plan.ActiveStart.On(now)
	end := plan.ActiveEnd.On(now)
	tomorrow := Preview{Kind: PreviewTomorrow, At: plan.ActiveStart.On(now.AddDate(0, 0, 1))}

	switch {
	case !plan.ActiveDays.Has(now.Weekday()):
		return tomorrow
	case now.Before(start):
		return Preview{Kind: PreviewToday, At: start}
	case now.Before(end):
		step := time.Duration(plan.IntervalMinutes) * time.Minute
		next := start.Add((now.Sub(start)/step + 1) * step)
		if next.After(end) {
			return tomorrow
		}
		return Preview{Kind: PreviewUpcoming, At: next}
	default:
		return tomorrow
	}
}
