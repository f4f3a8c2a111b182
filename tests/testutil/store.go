package testutil

import (
	"testing"
	"time"

	"github.com/nhle/watertracker/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Clock is a settable time source for tests.
type Clock struct {
	now time.Time
}

// NewClock returns a clock frozen at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
