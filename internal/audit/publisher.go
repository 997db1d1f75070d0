package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entity string) ([]Event, error)
}

// Publisher writes audit events to a Store. It fills in an event ID and
// timestamp when the caller leaves them zero.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	return p.store.Append(ctx, stamp(event))
}

// stamp fills the event identity fields the caller left zero.
func stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}

func (p *Publisher) List(ctx context.Context, entity string) ([]Event, error) {
	return p.store.ListByEntity(ctx, entity)
}
