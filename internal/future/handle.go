package future

import (
	"context"
	"log/slog"

	"github.com/aristath/taskfuture/internal/status"
)

// TaskID is the opaque identifier the engine assigns to a submitted task.
type TaskID int64

// StatusQuery reads a task's raw status code from the engine.
// Implementations must be side-effect free.
type StatusQuery interface {
	QueryStatus(id TaskID) (int32, error)
}

// QueryFunc adapts a plain function to StatusQuery.
type QueryFunc func(id TaskID) (int32, error)

// QueryStatus calls f(id).
func (f QueryFunc) QueryStatus(id TaskID) (int32, error) { return f(id) }

// Observer is notified of each distinct status a wait sees.
type Observer func(id TaskID, s status.Status)

// Option configures a Handle.
type Option func(*Handle)

// WithPollPolicy sets how Wait paces itself between status checks.
func WithPollPolicy(p PollPolicy) Option {
	return func(h *Handle) {
		if p != nil {
			h.policy = p
		}
	}
}

// WithObserver registers fn to be called on status changes during Wait.
func WithObserver(fn Observer) Option {
	return func(h *Handle) {
		h.observers = append(h.observers, fn)
	}
}

// Handle is a future over one engine task. It holds no resources and
// never caches: every query goes back to the engine.
type Handle struct {
	id        TaskID
	query     StatusQuery
	policy    PollPolicy
	observers []Observer
}

// New creates a handle for id. The query is borrowed, not owned.
func New(id TaskID, query StatusQuery, opts ...Option) *Handle {
	h := &Handle{
		id:     id,
		query:  query,
		policy: Yield(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ID returns the engine's identifier for the task.
func (h *Handle) ID() TaskID { return h.id }

// Status queries the engine once. Engine errors are returned as is;
// unknown codes fail with status.ErrInvalidStatus.
func (h *Handle) Status() (status.Status, error) {
	raw, err := h.query.QueryStatus(h.id)
	if err != nil {
		return 0, err
	}
	return status.FromRaw(raw)
}

// Done queries once and reports whether the task is terminal.
func (h *Handle) Done() (bool, error) {
	s, err := h.Status()
	return s.Done(), err
}

// Success queries once and reports whether the task succeeded.
func (h *Handle) Success() (bool, error) {
	s, err := h.Status()
	return s.Success(), err
}

// Failure queries once and reports whether the task failed.
func (h *Handle) Failure() (bool, error) {
	s, err := h.Status()
	return s.Failure(), err
}

// Pending queries once and reports whether the task is still queued.
func (h *Handle) Pending() (bool, error) {
	s, err := h.Status()
	return s.Pending(), err
}

// Running queries once and reports whether the task is executing.
func (h *Handle) Running() (bool, error) {
	s, err := h.Status()
	return s.Running(), err
}

// Wait polls until the task reaches a terminal status and reports whether
// it succeeded. The answer comes from the terminal observation, so a task
// that settles on the Nth query costs exactly N queries.
//
// There is no built-in timeout. Cancel ctx to abandon the wait; the result
// is then (false, ctx.Err()).
func (h *Handle) Wait(ctx context.Context) (bool, error) {
	pacer := h.policy()

	var last status.Status
	polls := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		s, err := h.Status()
		if err != nil {
			return false, err
		}
		polls++

		if s != last {
			for _, fn := range h.observers {
				fn(h.id, s)
			}
			last = s
		}

		if s.Done() {
			slog.Debug("task settled", "task_id", h.id, "status", s, "polls", polls)
			return s.Success(), nil
		}

		if err := pacer.Pause(ctx); err != nil {
			return false, err
		}
	}
}
