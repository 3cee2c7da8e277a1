package storage

import (
	"context"
	"sync"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// MemoryEventStore keeps events in process memory. It is used in tests and
// for ephemeral deployments.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []entities.SearchEvent
}

// NewMemoryEventStore creates a store seeded with the given events.
func NewMemoryEventStore(seed ...*entities.SearchEvent) *MemoryEventStore {
	s := &MemoryEventStore{}
	for _, e := range seed {
		s.events = append(s.events, *e)
	}
	return s
}

var _ repositories.SearchEventRepository = (*MemoryEventStore)(nil)

// Append stores a copy of the event.
func (s *MemoryEventStore) Append(ctx context.Context, event *entities.SearchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return apperrors.NewValidationError("search event is nil")
	}

	s.mu.Lock()
	s.events = append(s.events, *event)
	s.mu.Unlock()
	return nil
}

// List returns copies of all events in append order.
func (s *MemoryEventStore) List(ctx context.Context) ([]*entities.SearchEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.SearchEvent, len(s.events))
	for i := range s.events {
		e := s.events[i]
		out[i] = &e
	}
	return out, nil
}
