package notify

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/nhle/watertracker/internal/model"
)

// DeliveredMsg is a tea.Msg sent after a dispatch pass that delivered
// something or failed.
type DeliveredMsg struct {
	Reminders []model.ScheduledReminder
	// Skipped counts overdue reminders marked delivered without being sent
	// because a newer one was due in the same pass.
	Skipped int
	Error   error
}

// RefreshedMsg is a tea.Msg sent after the scheduled plan refresh runs.
type RefreshedMsg struct {
	Error error
}

// DispatchStore is the persistence a Dispatcher needs.
type DispatchStore interface {
	GetDueReminders(ctx context.Context, now time.Time) ([]model.ScheduledReminder, error)
	MarkReminderDelivered(ctx context.Context, id string, at time.Time) error
	CreateNotification(ctx context.Context, n model.Notification) error
}

// dispatchTimeout bounds one dispatch pass, sends included.
const dispatchTimeout = 30 * time.Second

// Dispatcher polls the reminder queue in the background and delivers due
// reminders. An optional cron job keeps the queue's horizon rolling forward.
type Dispatcher struct {
	store     DispatchStore
	sender    Sender
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
	cron      *cron.Cron
	resultCh  chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithInterval sets how often the queue is polled.
func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithDispatchLogger sets the logger.
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher delivering through sender.
func NewDispatcher(s DispatchStore, sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:     s,
		sender:    sender,
		interval:  30 * time.Second,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cron = cron.New(cron.WithLocation(d.now().Location()))
	return d
}

// ScheduleRefresh registers fn to run on the standard cron spec. Call it
// before Start.
func (d *Dispatcher) ScheduleRefresh(spec string, fn func(ctx context.Context) error) error {
	_, err := d.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			d.logger.Error("refreshing reminder schedule", "error", err)
		} else {
			d.logger.Info("reminder schedule refreshed")
		}
		d.send(RefreshedMsg{Error: err})
	})
	if err != nil {
		return fmt.Errorf("scheduling refresh %q: %w", spec, err)
	}
	return nil
}

// Start launches the polling goroutine and the cron scheduler, and returns
// a tea.Cmd that waits for the first result. It returns nil if already
// running.
func (d *Dispatcher) Start() tea.Cmd {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()

	d.cron.Start()
	go d.loop()

	return d.waitForResult()
}

// Stop halts polling and the cron scheduler, waiting for a running refresh
// to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	close(d.stopCh)
	d.running = false
	d.mu.Unlock()

	<-d.cron.Stop().Done()
}

// Trigger asks the polling goroutine for an immediate pass.
func (d *Dispatcher) Trigger() {
	select {
	case d.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call it after handling each DeliveredMsg or RefreshedMsg to keep
// listening.
func (d *Dispatcher) WaitForNextResult() tea.Cmd {
	return d.waitForResult()
}

func (d *Dispatcher) loop() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.tick()
	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.tick()
		case <-d.triggerCh:
			d.tick()
		}
	}
}

func (d *Dispatcher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	msg, err := d.Dispatch(ctx)
	if err != nil {
		d.logger.Error("dispatching reminders", "error", err)
		d.send(DeliveredMsg{Error: err})
		return
	}
	if len(msg.Reminders) > 0 || msg.Error != nil {
		d.send(msg)
	}
}

// Dispatch runs one pass: every due reminder is marked delivered, and the
// newest one is sent and logged as a notification. Older due reminders are
// counted as skipped so a long gap does not produce a burst.
//
// Send failures are reported in the message; the reminder stays delivered
// since a late retry is of no use.
func (d *Dispatcher) Dispatch(ctx context.Context) (DeliveredMsg, error) {
	now := d.now()
	due, err := d.store.GetDueReminders(ctx, now)
	if err != nil {
		return DeliveredMsg{}, fmt.Errorf("%w: loading due reminders: %w", model.ErrStorage, err)
	}
	if len(due) == 0 {
		return DeliveredMsg{}, nil
	}

	msg := DeliveredMsg{Skipped: len(due) - 1}
	for _, r := range due[:len(due)-1] {
		if err := d.store.MarkReminderDelivered(ctx, r.ID, now); err != nil {
			return msg, fmt.Errorf("%w: %w", model.ErrStorage, err)
		}
	}

	r := due[len(due)-1]
	if d.sender != nil {
		if err := d.sender.Send(ctx, r); err != nil {
			d.logger.Warn("sending reminder", "id", r.ID, "error", err)
			msg.Error = fmt.Errorf("sending reminder: %w", err)
		}
	}
	if err := d.store.MarkReminderDelivered(ctx, r.ID, now); err != nil {
		return msg, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	delivered := now
	r.DeliveredAt = &delivered

	err = d.store.CreateNotification(ctx, model.Notification{
		Kind:       model.NotificationReminder,
		ReminderID: r.ID,
		Title:      r.Title,
		Message:    r.Body,
		CreatedAt:  now,
	})
	if err != nil {
		return msg, fmt.Errorf("%w: recording notification: %w", model.ErrStorage, err)
	}

	msg.Reminders = []model.ScheduledReminder{r}
	d.logger.Info("reminder delivered", "id", r.ID, "fires_at", r.FiresAt, "skipped", msg.Skipped)
	return msg, nil
}

// send posts a result without blocking the dispatcher.
func (d *Dispatcher) send(msg tea.Msg) {
	select {
	case d.resultCh <- msg:
	default:
	}
}

func (d *Dispatcher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-d.resultCh
	}
}
