package providers

import (
	"context"
	"errors"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// EventChannelSearchEvents is the pub/sub channel carrying logged search events.
const EventChannelSearchEvents = "tolu:search-events"

// ErrEventBusClosed is returned by Subscribe after Close.
var ErrEventBusClosed = errors.New("event bus closed")

// EventBus fans logged search events out to live subscribers.
type EventBus interface {
	// Publish delivers an event to every current subscriber
	Publish(ctx context.Context, event *entities.SearchEvent) error

	// Subscribe returns a channel of events published from now on. The
	// channel is closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan *entities.SearchEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}
