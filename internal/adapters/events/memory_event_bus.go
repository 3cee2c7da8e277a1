package events

import (
	"context"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
)

// MemoryEventBus delivers events within a single process.
type MemoryEventBus struct {
	subs *fanout
}

// NewMemoryEventBus creates an in-process event bus.
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: newFanout()}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

func (b *MemoryEventBus) Publish(ctx context.Context, event *entities.SearchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.subs.broadcast(event)
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context) (<-chan *entities.SearchEvent, error) {
	return b.subs.add(ctx)
}

// Subscribers returns the number of live subscriptions.
func (b *MemoryEventBus) Subscribers() int {
	return b.subs.count()
}

func (b *MemoryEventBus) Close() error {
	b.subs.close()
	return nil
}
