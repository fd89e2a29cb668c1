package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

const defaultBufSize = 256

// Bus fans task events out to subscribers over buffered channels.
// Publishing never blocks: a full subscriber misses the event, except
// queued subscribers from SubscribeAllQueued, which miss nothing.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Topic][]chan Event
	allSubs []chan Event
	queues  []*queue
	closed  bool
	dropped atomic.Int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic][]chan Event),
	}
}

// Subscribe returns a channel receiving events on topic.
// bufSize defaults to 256 if <= 0.
func (b *Bus) Subscribe(topic Topic, bufSize int) <-chan Event {
	ch := newChan(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// SubscribeAll returns a channel receiving events on every topic.
func (b *Bus) SubscribeAll(bufSize int) <-chan Event {
	ch := newChan(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.allSubs = append(b.allSubs, ch)
	return ch
}

// SubscribeAllQueued returns a channel receiving every event with no loss.
// Events wait in an unbounded queue until read. The channel is closed
// after Close, once the queue is drained, so the reader must keep reading
// until then.
func (b *Bus) SubscribeAllQueued() <-chan Event {
	q := newQueue()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		q.close()
	} else {
		b.queues = append(b.queues, q)
	}
	go q.run()
	return q.out
}

func newChan(bufSize int) chan Event {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	return make(chan Event, bufSize)
}

// Publish delivers e to subscribers of e.Topic() and to SubscribeAll channels.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[e.Topic()] {
		b.send(ch, e)
	}
	for _, ch := range b.allSubs {
		b.send(ch, e)
	}
	for _, q := range b.queues {
		q.push(e)
	}
}

func (b *Bus) send(ch chan Event, e Event) {
	select {
	case ch <- e:
	default:
		b.dropped.Add(1)
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Close closes every subscriber channel. Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
	for _, q := range b.queues {
		q.close()
	}
}

// queue is an unbounded FIFO feeding out from its own goroutine.
type queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	wake   chan struct{}
	out    chan Event
}

func newQueue() *queue {
	return &queue{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
	}
}

func (q *queue) push(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.signal()
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) run() {
	defer close(q.out)
	for {
		q.mu.Lock()
		items, closed := q.items, q.closed
		q.items = nil
		q.mu.Unlock()

		for _, e := range items {
			q.out <- e
		}
		if len(items) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

// Publisher returns an observer that reports a handle's status changes on b.
// Pass it to future.WithObserver.
func Publisher(b *Bus) future.Observer {
	var mu sync.Mutex
	firstSeen := make(map[future.TaskID]time.Time)

	return func(id future.TaskID, s status.Status) {
		now := time.Now()

		mu.Lock()
		start, ok := firstSeen[id]
		if !ok {
			start = now
			firstSeen[id] = now
		}
		if s.Done() {
			delete(firstSeen, id)
		}
		mu.Unlock()

		b.Publish(StatusObservedEvent{ID: id, Status: s, Timestamp: now})
		if s.Done() {
			b.Publish(TaskSettledEvent{
				ID:        id,
				Success:   s.Success(),
				Elapsed:   now.Sub(start),
				Timestamp: now,
			})
		}
	}
}
