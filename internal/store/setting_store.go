package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetSetting decodes the JSON value stored under key into dst. It reports
// false, with dst untouched, when the key has never been set.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading setting %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return true, nil
}

// SetSetting stores value as JSON under key, replacing any previous value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}
	return nil
}
