package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"add 250", Command{Kind: KindAdd, Amount: 250, Beverage: model.DefaultBeverage}},
		{"ADD 300ml Green Tea", Command{Kind: KindAdd, Amount: 300, Beverage: "green tea"}},
		{"goal 2500", Command{Kind: KindGoal, Amount: 2500}},
		{"units imperial", Command{Kind: KindUnits, Units: model.UnitsImperial}},
		{"reminders off", Command{Kind: KindReminders, Enabled: false}},
		{"reminders on", Command{Kind: KindReminders, Enabled: true}},
		{"reminders", Command{Kind: KindGoto, Tab: "reminders"}},
		{"history", Command{Kind: KindGoto, Tab: "history"}},
		{"sync", Command{Kind: KindRefresh}},
		{"read", Command{Kind: KindReadAll}},
		{"q", Command{Kind: KindQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{"", "add", "add lots", "goal", "units furlongs", "reminders maybe", "dance"} {
		_, err := Parse(line)
		assert.Error(t, err, "line %q", line)
	}
}
