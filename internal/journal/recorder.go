package journal

import (
	"context"
	"log/slog"

	"github.com/aristath/taskfuture/internal/events"
)

// Record writes bus events into the journal under sessionID until ch is
// closed or ctx is done. Write failures are logged and skipped so a slow or
// broken journal never stalls a wait.
func Record(ctx context.Context, store Store, sessionID string, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := recordEvent(ctx, store, sessionID, ev); err != nil {
				slog.Warn("journal write failed", "session", sessionID, "task_id", ev.TaskID(), "error", err)
			}
		}
	}
}

func recordEvent(ctx context.Context, store Store, sessionID string, ev events.Event) error {
	switch e := ev.(type) {
	case events.StatusObservedEvent:
		return store.RecordObservation(ctx, sessionID, e.ID, e.Status, e.Timestamp)
	case events.TaskSettledEvent:
		return store.RecordOutcome(ctx, Outcome{
			SessionID: sessionID,
			TaskID:    e.ID,
			Success:   e.Success,
			Elapsed:   e.Elapsed,
			SettledAt: e.Timestamp,
		})
	default:
		return nil
	}
}
