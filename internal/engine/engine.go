package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// ErrUnknownTask is returned when queried for an ID that was never submitted.
var ErrUnknownTask = errors.New("unknown task")

// script is a task's remaining sequence of raw codes.
type script struct {
	codes []int32
	next  int
	polls int
}

// ScriptedEngine is an in-process stand-in for the native engine. Each task
// replays a fixed sequence of raw status codes, one per query, and then
// keeps reporting the last one.
type ScriptedEngine struct {
	mu     sync.Mutex
	tasks  map[future.TaskID]*script
	lastID future.TaskID
}

// NewScriptedEngine creates an engine with no tasks.
func NewScriptedEngine() *ScriptedEngine {
	return &ScriptedEngine{
		tasks: make(map[future.TaskID]*script),
	}
}

// Submit registers a task that will report codes in order. IDs start at 1
// and are never reused.
func (e *ScriptedEngine) Submit(codes ...int32) (future.TaskID, error) {
	if len(codes) == 0 {
		return 0, fmt.Errorf("empty status script")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastID++
	id := e.lastID
	e.tasks[id] = &script{codes: append([]int32(nil), codes...)}
	return id, nil
}

// QueryStatus returns the task's next scripted code.
func (e *ScriptedEngine) QueryStatus(id future.TaskID) (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.tasks[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}

	code := s.codes[s.next]
	if s.next < len(s.codes)-1 {
		s.next++
	}
	s.polls++
	return code, nil
}

// Polls reports how many times id has been queried.
func (e *ScriptedEngine) Polls(id future.TaskID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.tasks[id]; ok {
		return s.polls
	}
	return 0
}

// Handle submits codes and returns a future over the new task.
func (e *ScriptedEngine) Handle(codes []int32, opts ...future.Option) (*future.Handle, error) {
	id, err := e.Submit(codes...)
	if err != nil {
		return nil, err
	}
	return future.New(id, e, opts...), nil
}

// ParseScript turns "pending,running,success" into raw codes. Entries may
// also be raw integers, which are passed through unchecked so that scripts
// can exercise contract violations.
func ParseScript(spec string) ([]int32, error) {
	var codes []int32
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.ParseInt(part, 10, 32)
		if err == nil {
			codes = append(codes, int32(n))
			continue
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("parsing script %q: %w", spec, err)
		}

		s, err := status.ParseStatus(strings.ToLower(part))
		if err != nil {
			return nil, fmt.Errorf("parsing script %q: %w", spec, err)
		}
		codes = append(codes, s.Raw())
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("parsing script %q: no statuses", spec)
	}
	return codes, nil
}
