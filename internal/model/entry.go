package model

import "time"

// DefaultBeverage is recorded when an entry is added without a type.
const DefaultBeverage = "water"

// DefaultDailyGoal is the daily intake target in milliliters used until
// the user sets one.
const DefaultDailyGoal = 2000

// WaterEntry is a single logged intake event.
type WaterEntry struct {
	ID        int64     `json:"id" db:"id"`
	Amount    int       `json:"amount" db:"amount"`
	Beverage  string    `json:"type" db:"type"`
	Timestamp time.Time `json:"date" db:"date"`
}

// DayHistory pairs a calendar day with the entries recorded on it.
// Date is midnight of that day in the location the history was grouped in.
type DayHistory struct {
	Date    time.Time    `json:"date"`
	Entries []WaterEntry `json:"entries"`
}

// Total returns the summed amount of all entries for the day.
func (d DayHistory) Total() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Amount
	}
	return total
}

// DayTotal is the intake sum for one calendar day.
type DayTotal struct {
	Date  time.Time `json:"date"`
	Total int       `json:"total"`
}
