package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/model"
)

func TestPercentageOf(t *testing.T) {
	tests := []struct {
		total, goal int
		want        float64
	}{
		{0, 2000, 0},
		{500, 2000, 25},
		{2000, 2000, 100},
		{2500, 2000, 100},
		{100, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentageOf(tt.total, tt.goal), "total=%d goal=%d", tt.total, tt.goal)
	}
}

func TestRemainingOf(t *testing.T) {
	assert.Equal(t, 1500, RemainingOf(500, 2000))
	assert.Equal(t, 0, RemainingOf(2000, 2000))
	assert.Equal(t, 0, RemainingOf(2500, 2000))
}

func TestMotivationTiers(t *testing.T) {
	assert.Equal(t, "Let's start hydrating! Your body will thank you!", Motivation(0))
	assert.Equal(t, "Good start! Keep drinking!", Motivation(25))
	assert.Equal(t, "Great progress! You're halfway there!", Motivation(60))
	assert.Equal(t, "Almost there! Keep it up!", Motivation(75))
	assert.Equal(t, "Goal achieved! You're well hydrated!", Motivation(100))
}

func TestGroupByDayIsStableAndPartitions(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 22:30 UTC on the 1st is 00:30 on the 2nd in loc.
	entries := []model.WaterEntry{
		{ID: 4, Amount: 200, Timestamp: time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)},
		{ID: 3, Amount: 100, Timestamp: time.Date(2026, 3, 1, 21, 30, 0, 0, time.UTC)},
		{ID: 2, Amount: 50, Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		{ID: 1, Amount: 25, Timestamp: time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)},
	}

	days := GroupByDay(entries, loc)
	require.Len(t, days, 3)

	assert.Equal(t, "2026-03-02", days[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-03-01", days[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-02-27", days[2].Date.Format("2006-01-02"))

	require.Len(t, days[1].Entries, 2)
	assert.Equal(t, int64(3), days[1].Entries[0].ID)
	assert.Equal(t, int64(2), days[1].Entries[1].ID)

	sum := 0
	count := 0
	for _, d := range days {
		sum += d.Total()
		count += len(d.Entries)
	}
	assert.Equal(t, 375, sum)
	assert.Equal(t, len(entries), count)

	assert.Equal(t, days, GroupByDay(entries, loc))
}

func TestGroupByDayEmpty(t *testing.T) {
	days := GroupByDay(nil, time.UTC)
	require.NotNil(t, days)
	assert.Empty(t, days)
}
