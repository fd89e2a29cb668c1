package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aristath/taskfuture/internal/status"
)

// scriptedQuery replays raw codes and repeats the last one forever.
type scriptedQuery struct {
	mu        sync.Mutex
	codes     []any // Each entry is either an int32 code or an error
	callCount int
	lastID    TaskID
}

func newScriptedQuery(codes ...any) *scriptedQuery {
	return &scriptedQuery{codes: codes}
}

func (q *scriptedQuery) QueryStatus(id TaskID) (int32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastID = id
	idx := q.callCount
	if idx >= len(q.codes) {
		idx = len(q.codes) - 1
	}
	q.callCount++

	switch v := q.codes[idx].(type) {
	case status.Status:
		return v.Raw(), nil
	case int32:
		return v, nil
	case error:
		return 0, v
	default:
		return 0, fmt.Errorf("invalid scripted entry: %T", v)
	}
}

func (q *scriptedQuery) CallCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.callCount
}

func TestHandle_StatusQueriesEveryCall(t *testing.T) {
	q := newScriptedQuery(status.Pending, status.Running, status.Success)
	h := New(42, q)

	want := []status.Status{status.Pending, status.Running, status.Success}
	for i, w := range want {
		s, err := h.Status()
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if s != w {
			t.Errorf("call %d: got %v, want %v", i+1, s, w)
		}
	}

	if q.CallCount() != 3 {
		t.Errorf("expected 3 queries, got %d", q.CallCount())
	}
	if q.lastID != 42 {
		t.Errorf("expected query for task 42, got %d", q.lastID)
	}
}

func TestHandle_PredicatesForward(t *testing.T) {
	tests := []struct {
		name  string
		code  status.Status
		check func(*Handle) (bool, error)
		want  bool
	}{
		{"done on success", status.Success, (*Handle).Done, true},
		{"done on failure", status.Failure, (*Handle).Done, true},
		{"not done on pending", status.Pending, (*Handle).Done, false},
		{"not done on running", status.Running, (*Handle).Done, false},
		{"success", status.Success, (*Handle).Success, true},
		{"failure", status.Failure, (*Handle).Failure, true},
		{"pending", status.Pending, (*Handle).Pending, true},
		{"running", status.Running, (*Handle).Running, true},
		{"running is not pending", status.Running, (*Handle).Pending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newScriptedQuery(tt.code)
			h := New(1, q)

			got, err := tt.check(h)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if q.CallCount() != 1 {
				t.Errorf("expected 1 query, got %d", q.CallCount())
			}
		})
	}
}

func TestHandle_QueryErrorPropagatesUnmodified(t *testing.T) {
	engineErr := errors.New("engine unavailable")
	h := New(1, newScriptedQuery(engineErr))

	if _, err := h.Status(); err != engineErr {
		t.Errorf("Status(): expected engine error as is, got %v", err)
	}
	if _, err := h.Done(); err != engineErr {
		t.Errorf("Done(): expected engine error as is, got %v", err)
	}
	if _, err := h.Wait(context.Background()); err != engineErr {
		t.Errorf("Wait(): expected engine error as is, got %v", err)
	}
}

func TestHandle_InvalidCode(t *testing.T) {
	h := New(1, newScriptedQuery(int32(99)))

	if _, err := h.Status(); !errors.Is(err, status.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := h.Wait(context.Background()); !errors.Is(err, status.ErrInvalidStatus) {
		t.Errorf("Wait(): expected ErrInvalidStatus, got %v", err)
	}
}

func TestWait_PendingPendingSuccess(t *testing.T) {
	q := newScriptedQuery(status.Pending, status.Pending, status.Success)
	h := New(7, q)

	ok, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected Wait to report success")
	}
	if q.CallCount() != 3 {
		t.Errorf("expected exactly 3 queries, got %d", q.CallCount())
	}
}

func TestWait_PendingFailure(t *testing.T) {
	q := newScriptedQuery(status.Pending, status.Failure)
	h := New(7, q)

	ok, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected Wait to report failure")
	}
	if q.CallCount() != 2 {
		t.Errorf("expected exactly 2 queries, got %d", q.CallCount())
	}
}

func TestWait_RunningForeverIsCancellable(t *testing.T) {
	q := newScriptedQuery(status.Running)
	h := New(7, q)

	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := h.Wait(ctx)
		done <- result{ok, err}
	}()

	// Let it spin for a while without resolving
	select {
	case r := <-done:
		t.Fatalf("Wait resolved early: ok=%v err=%v", r.ok, r.err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case r := <-done:
		if !errors.Is(r.err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", r.err)
		}
		if r.ok {
			t.Error("cancelled wait must not report success")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}

	if q.CallCount() < 2 {
		t.Errorf("expected repeated polling, got %d queries", q.CallCount())
	}
}

func TestWait_AlreadyCancelled(t *testing.T) {
	q := newScriptedQuery(status.Success)
	h := New(7, q)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if q.CallCount() != 0 {
		t.Errorf("expected no queries, got %d", q.CallCount())
	}
}

func TestWait_ObserverSeesDistinctStatuses(t *testing.T) {
	q := newScriptedQuery(status.Pending, status.Pending, status.Running, status.Running, status.Success)

	var seen []status.Status
	h := New(3, q, WithObserver(func(id TaskID, s status.Status) {
		if id != 3 {
			t.Errorf("observer got task %d, want 3", id)
		}
		seen = append(seen, s)
	}))

	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []status.Status{status.Pending, status.Running, status.Success}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d: got %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestQueryFunc(t *testing.T) {
	var got TaskID
	q := QueryFunc(func(id TaskID) (int32, error) {
		got = id
		return status.Running.Raw(), nil
	})

	running, err := New(11, q).Running()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !running {
		t.Error("expected running")
	}
	if got != 11 {
		t.Errorf("query called with %d, want 11", got)
	}
}
