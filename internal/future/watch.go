package future

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Watcher runs a handle's wait in the background and signals when it ends.
type Watcher struct {
	id   TaskID
	done chan struct{}
	ok   bool
	err  error
}

// Watch starts waiting on h in its own goroutine.
func Watch(ctx context.Context, h *Handle) *Watcher {
	w := &Watcher{
		id:   h.ID(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		w.ok, w.err = h.Wait(ctx)
	}()
	return w
}

// ID returns the watched task's identifier.
func (w *Watcher) ID() TaskID { return w.id }

// Done is closed once the wait has ended for any reason.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Result blocks until Done and returns what Wait returned.
func (w *Watcher) Result() (bool, error) {
	<-w.done
	return w.ok, w.err
}

// WaitAll waits on every handle concurrently. Outcomes are returned in input
// order. The first failing wait cancels the rest and its error is returned.
func WaitAll(ctx context.Context, handles ...*Handle) ([]bool, error) {
	results := make([]bool, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	for i, h := range handles {
		g.Go(func() error {
			ok, err := h.Wait(gctx)
			if err != nil {
				return fmt.Errorf("waiting on task %d: %w", h.ID(), err)
			}
			results[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
