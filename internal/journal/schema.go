package journal

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
// Timestamps are stored as Unix nanoseconds.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		task_id INTEGER NOT NULL,
		status INTEGER NOT NULL,
		observed_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_observations_session_task
		ON observations(session_id, task_id, id);

	CREATE TABLE IF NOT EXISTS outcomes (
		session_id TEXT NOT NULL,
		task_id INTEGER NOT NULL,
		success INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		settled_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, task_id),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
