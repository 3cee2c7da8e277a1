package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
)

const subscriberBuffer = 64

// fanout is the local subscriber registry shared by the bus implementations.
type fanout struct {
	mu     sync.Mutex
	subs   map[chan *entities.SearchEvent]struct{}
	done   chan struct{}
	closed bool
}

func newFanout() *fanout {
	return &fanout{
		subs: make(map[chan *entities.SearchEvent]struct{}),
		done: make(chan struct{}),
	}
}

func (f *fanout) add(ctx context.Context) (<-chan *entities.SearchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, providers.ErrEventBusClosed
	}

	ch := make(chan *entities.SearchEvent, subscriberBuffer)
	f.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			f.remove(ch)
		case <-f.done:
		}
	}()
	return ch, nil
}

func (f *fanout) remove(ch chan *entities.SearchEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; !ok {
		return
	}
	delete(f.subs, ch)
	close(ch)
}

// broadcast never blocks; a subscriber whose buffer is full misses the event.
func (f *fanout) broadcast(event *entities.SearchEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- event:
		default:
			log.Warn().Str("event_id", event.ID).Msg("subscriber channel full, skipping search event")
		}
	}
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
	for ch := range f.subs {
		close(ch)
	}
	f.subs = make(map[chan *entities.SearchEvent]struct{})
}
