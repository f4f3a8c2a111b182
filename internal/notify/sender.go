package notify

import (
	"context"
	"errors"

	"github.com/nhle/watertracker/internal/model"
)

// Sender delivers one due reminder somewhere the user will see it.
type Sender interface {
	Send(ctx context.Context, r model.ScheduledReminder) error
}

// SenderFunc adapts a function to a Sender.
type SenderFunc func(ctx context.Context, r model.ScheduledReminder) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, r model.ScheduledReminder) error {
	return f(ctx, r)
}

// MultiSender fans a reminder out to every sender and joins their errors.
type MultiSender []Sender

// Send delivers r through each sender, continuing past failures.
func (m MultiSender) Send(ctx context.Context, r model.ScheduledReminder) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
