package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// Observation is one status seen for a task during a watch session.
type Observation struct {
	TaskID     future.TaskID
	Status     status.Status
	ObservedAt time.Time
}

// Outcome is a task's terminal result within a watch session.
type Outcome struct {
	SessionID string
	TaskID    future.TaskID
	Success   bool
	Elapsed   time.Duration
	SettledAt time.Time
}

// Store defines the journal of watch sessions, observations, and outcomes.
type Store interface {
	// Sessions
	StartSession(ctx context.Context) (string, error)
	ListSessions(ctx context.Context) ([]string, error)

	// Observations
	RecordObservation(ctx context.Context, sessionID string, taskID future.TaskID, s status.Status, at time.Time) error
	History(ctx context.Context, sessionID string, taskID future.TaskID) ([]Observation, error)

	// Outcomes
	RecordOutcome(ctx context.Context, o Outcome) error
	Outcome(ctx context.Context, sessionID string, taskID future.TaskID) (*Outcome, error)
	ListOutcomes(ctx context.Context, sessionID string) ([]Outcome, error)

	// Lifecycle
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a journal at dbPath.
// Creates parent directories if needed. Every pooled connection runs in WAL
// mode with a 5s busy timeout and foreign keys on.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)", dbPath)
	return open(ctx, connStr)
}

// NewMemoryStore creates a private in-memory journal, mainly for tests.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	// Named shared cache so both pooled connections see one database
	connStr := fmt.Sprintf("file:journal-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	return open(ctx, connStr)
}

func open(ctx context.Context, connStr string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite only honors the _pragma=name(value) form, applied
	// to each new connection
	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
