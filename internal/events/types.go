package events

import (
	"time"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// Topic names a stream of events on the bus.
type Topic string

const (
	TopicStatus  Topic = "status"  // Every observed status change
	TopicOutcome Topic = "outcome" // Terminal outcomes only
)

// Event is the base interface for all events.
type Event interface {
	Topic() Topic
	TaskID() future.TaskID
}

// StatusObservedEvent is published when a wait sees a task's status change.
type StatusObservedEvent struct {
	ID        future.TaskID
	Status    status.Status
	Timestamp time.Time
}

func (e StatusObservedEvent) Topic() Topic          { return TopicStatus }
func (e StatusObservedEvent) TaskID() future.TaskID { return e.ID }

// TaskSettledEvent is published once a task reaches Success or Failure.
type TaskSettledEvent struct {
	ID        future.TaskID
	Success   bool
	Elapsed   time.Duration // From first observation to settlement
	Timestamp time.Time
}

func (e TaskSettledEvent) Topic() Topic          { return TopicOutcome }
func (e TaskSettledEvent) TaskID() future.TaskID { return e.ID }
