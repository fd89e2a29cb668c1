package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// StartSession registers a new watch session and returns its ID.
func (s *SQLiteStore) StartSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

// ListSessions returns session IDs, most recent first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return ids, nil
}

// RecordObservation appends a status observation for a task.
func (s *SQLiteStore) RecordObservation(ctx context.Context, sessionID string, taskID future.TaskID, st status.Status, at time.Time) error {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (session_id, task_id, status, observed_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, int64(taskID), st.Raw(), at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert observation for task %d: %w", taskID, err)
	}
	return nil
}

// History returns a task's observations in the order they were recorded.
func (s *SQLiteStore) History(ctx context.Context, sessionID string, taskID future.TaskID) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, status, observed_at
		FROM observations
		WHERE session_id = ? AND task_id = ?
		ORDER BY id ASC
	`, sessionID, int64(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := []Observation{}
	for rows.Next() {
		var (
			id       int64
			raw      int32
			observed int64
		)
		if err := rows.Scan(&id, &raw, &observed); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		st, err := status.FromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt observation for task %d: %w", id, err)
		}
		history = append(history, Observation{
			TaskID:     future.TaskID(id),
			Status:     st,
			ObservedAt: time.Unix(0, observed),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return history, nil
}

// RecordOutcome stores a task's terminal result. Recording twice for the
// same session and task keeps the latest.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, o Outcome) error {
	if err := s.requireSession(ctx, o.SessionID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (session_id, task_id, success, elapsed_ns, settled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, task_id) DO UPDATE SET
			success = excluded.success,
			elapsed_ns = excluded.elapsed_ns,
			settled_at = excluded.settled_at
	`, o.SessionID, int64(o.TaskID), boolToInt(o.Success), int64(o.Elapsed), o.SettledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert outcome for task %d: %w", o.TaskID, err)
	}
	return nil
}

// Outcome retrieves the terminal result of one task.
func (s *SQLiteStore) Outcome(ctx context.Context, sessionID string, taskID future.TaskID) (*Outcome, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, task_id, success, elapsed_ns, settled_at
		FROM outcomes
		WHERE session_id = ? AND task_id = ?
	`, sessionID, int64(taskID))

	o, err := scanOutcome(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("outcome not found: session %s task %d", sessionID, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome: %w", err)
	}
	return o, nil
}

// ListOutcomes returns outcomes for a session, or for all sessions if
// sessionID is empty, ordered by settlement time.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, sessionID string) ([]Outcome, error) {
	query := `SELECT session_id, task_id, success, elapsed_ns, settled_at FROM outcomes`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY settled_at ASC, task_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []Outcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}
	return outcomes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row scanner) (*Outcome, error) {
	var (
		o       Outcome
		taskID  int64
		success int
		elapsed int64
		settled int64
	)
	if err := row.Scan(&o.SessionID, &taskID, &success, &elapsed, &settled); err != nil {
		return nil, err
	}
	o.TaskID = future.TaskID(taskID)
	o.Success = success != 0
	o.Elapsed = time.Duration(elapsed)
	o.SettledAt = time.Unix(0, settled)
	return &o, nil
}

// requireSession gives a readable error instead of a bare FK violation.
func (s *SQLiteStore) requireSession(ctx context.Context, sessionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
