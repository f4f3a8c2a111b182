package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS water_intake (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	amount INTEGER NOT NULL CHECK(amount > 0),
	date   TEXT NOT NULL,
	type   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_water_intake_date ON water_intake(date);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS scheduled_reminders (
	id           TEXT PRIMARY KEY,
	fires_at     TEXT NOT NULL,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL DEFAULT '',
	sound        TEXT NOT NULL DEFAULT '',
	delivered_at TEXT,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scheduled_reminders_fires_at
	ON scheduled_reminders(fires_at);
CREATE INDEX IF NOT EXISTS idx_scheduled_reminders_pending
	ON scheduled_reminders(delivered_at, fires_at);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL CHECK(kind IN ('reminder', 'goal')),
	reminder_id TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	read        INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
