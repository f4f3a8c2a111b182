package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/watertracker/internal/model"
)

// entryRow mirrors a water_intake row before timestamp parsing.
type entryRow struct {
	ID     int64  `db:"id"`
	Amount int    `db:"amount"`
	Date   string `db:"date"`
	Type   string `db:"type"`
}

func (r entryRow) toModel() (model.WaterEntry, error) {
	ts, err := parseTime(r.Date)
	if err != nil {
		return model.WaterEntry{}, fmt.Errorf("scanning entry %d: %w", r.ID, err)
	}
	return model.WaterEntry{
		ID:        r.ID,
		Amount:    r.Amount,
		Beverage:  r.Type,
		Timestamp: ts,
	}, nil
}

// InsertEntry appends an intake entry and returns it with its assigned ID.
// The timestamp is stored at millisecond precision in UTC.
func (s *SQLiteStore) InsertEntry(
	ctx context.Context,
	e model.WaterEntry,
) (model.WaterEntry, error) {
	if e.Amount <= 0 {
		return model.WaterEntry{}, fmt.Errorf("inserting entry: %w", model.ErrInvalidAmount)
	}
	if strings.TrimSpace(e.Beverage) == "" {
		e.Beverage = model.DefaultBeverage
	}

	date := formatTime(e.Timestamp)
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO water_intake (amount, date, type) VALUES (?, ?, ?)",
		e.Amount, date, e.Beverage,
	)
	if err != nil {
		return model.WaterEntry{}, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.WaterEntry{}, fmt.Errorf("reading entry id: %w", err)
	}

	ts, err := parseTime(date)
	if err != nil {
		return model.WaterEntry{}, err
	}
	e.ID = id
	e.Timestamp = ts
	return e, nil
}

// GetEntries returns entries matching the filter, newest first. Entries
// sharing a timestamp are ordered by descending ID.
func (s *SQLiteStore) GetEntries(
	ctx context.Context,
	filter EntryFilter,
) ([]model.WaterEntry, error) {
	var conditions []string
	var args []interface{}

	if !filter.From.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "date < ?")
		args = append(args, formatTime(filter.To))
	}

	query := "SELECT id, amount, date, type FROM water_intake"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}

	entries := make([]model.WaterEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SumEntries returns the total amount recorded in [from, to).
func (s *SQLiteStore) SumEntries(ctx context.Context, from, to time.Time) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(amount), 0) FROM water_intake WHERE date >= ? AND date < ?",
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return 0, fmt.Errorf("summing entries: %w", err)
	}
	return total, nil
}
