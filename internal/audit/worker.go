package audit

import (
	"context"
	"errors"
	"log/slog"
)

// Worker drains audit events from a channel into a store. It decouples slow
// sinks from the mutation path for deployments that prefer asynchronous
// auditing; a failed append is logged and the worker keeps draining, since
// losing one trail entry must not wedge the queue behind it.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"entity", event.Entity, "key", event.Key, "error", err)
			}
		}
	}
}

// AsyncPublisher buffers events through a Worker so slow stores never sit on
// the mutation path. Run must be started for events to drain.
type AsyncPublisher struct {
	inbox  chan Event
	worker *Worker
}

func NewAsyncPublisher(store Store, buffer int, logger *slog.Logger) *AsyncPublisher {
	inbox := make(chan Event, buffer)
	return &AsyncPublisher{
		inbox:  inbox,
		worker: NewWorker(store, inbox, logger),
	}
}

// Emit enqueues the event. A full queue rejects the event rather than block a
// directory write; callers already treat audit failures as fail-open.
func (p *AsyncPublisher) Emit(_ context.Context, event Event) error {
	select {
	case p.inbox <- stamp(event):
		return nil
	default:
		return errQueueFull
	}
}

func (p *AsyncPublisher) Run(ctx context.Context) error {
	return p.worker.Run(ctx)
}

var errQueueFull = errors.New("audit queue full")
