package services

import (
	"context"
	"strings"
	"time"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// RecordResult is the outcome of a search action.
type RecordResult struct {
	Logged       bool                  `json:"logged"`
	Event        *entities.SearchEvent `json:"event,omitempty"`
	ResultCount  int                   `json:"resultados"`
	LastSeenText string                `json:"last_seen_text"`
}

// SearchAnalyticsService appends search events and computes usage statistics.
type SearchAnalyticsService struct {
	repo    repositories.SearchEventRepository
	metrics *observability.Metrics
	bus     providers.EventBus
	now     func() time.Time
}

// NewSearchAnalyticsService creates a new search analytics service
func NewSearchAnalyticsService(repo repositories.SearchEventRepository, metrics *observability.Metrics) *SearchAnalyticsService {
	return &SearchAnalyticsService{
		repo:    repo,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock replaces the time source used to stamp events.
func (s *SearchAnalyticsService) WithClock(now func() time.Time) *SearchAnalyticsService {
	s.now = now
	return s
}

// WithEventBus publishes every logged event on bus.
func (s *SearchAnalyticsService) WithEventBus(bus providers.EventBus) *SearchAnalyticsService {
	s.bus = bus
	return s
}

// AppendEvent stores one event unconditionally.
func (s *SearchAnalyticsService) AppendEvent(ctx context.Context, kind entities.ActionKind, criteria entities.FilterCriteria, resultCount int) (*entities.SearchEvent, error) {
	ctx, span := observability.StartSpan(ctx, "SearchAnalyticsService.AppendEvent")
	defer span.End()

	event := entities.NewSearchEvent(s.now(), kind, criteria, resultCount)
	if err := s.repo.Append(ctx, event); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordSearchEvent(ctx, s.metrics, string(kind))
	if s.bus != nil {
		// The event is already durable; live viewers may miss it.
		if err := s.bus.Publish(ctx, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish search event")
		}
	}
	observability.LoggerFromContext(ctx).Debug().
		Str("action", kind.Name()).
		Int("resultados", event.ResultCount).
		Msg("search event logged")
	return event, nil
}

// ShouldLogTextChange reports whether a free-text change is a new search:
// the trimmed text is non-empty and differs from the last logged text.
func ShouldLogTextChange(text, lastSeen string) bool {
	text = strings.TrimSpace(text)
	return text != "" && text != strings.TrimSpace(lastSeen)
}

// Record applies the logging policy for a search action. The result count is
// recomputed over the catalog. Text changes are logged only when
// ShouldLogTextChange holds, and then become the new last seen text; the
// explicit actions are always logged.
func (s *SearchAnalyticsService) Record(ctx context.Context, catalog *entities.Catalog, kind entities.ActionKind, criteria entities.FilterCriteria, lastSeen string) (*RecordResult, error) {
	_, count := Filter(catalog, criteria)
	result := &RecordResult{ResultCount: count, LastSeenText: lastSeen}

	switch kind {
	case entities.ActionTextChange:
		if !ShouldLogTextChange(criteria.Text, lastSeen) {
			return result, nil
		}
		result.LastSeenText = strings.TrimSpace(criteria.Text)
	case entities.ActionFilterSubmit, entities.ActionManualLog:
	default:
		return nil, apperrors.NewValidationError("unknown action kind " + string(kind))
	}

	event, err := s.AppendEvent(ctx, kind, criteria, count)
	if err != nil {
		return nil, err
	}
	result.Logged = true
	result.Event = event
	return result, nil
}

// Events returns the raw log.
func (s *SearchAnalyticsService) Events(ctx context.Context) ([]*entities.SearchEvent, error) {
	return s.repo.List(ctx)
}

// Summary recomputes every statistics view from the full log.
func (s *SearchAnalyticsService) Summary(ctx context.Context) (*entities.StatsSummary, error) {
	ctx, span := observability.StartSpan(ctx, "SearchAnalyticsService.Summary")
	defer span.End()

	events, err := s.repo.List(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return Aggregate(events), nil
}

// Frequency counts one field over the log. A positive limit truncates to the
// top entries.
func (s *SearchAnalyticsService) Frequency(ctx context.Context, field entities.EventField, limit int) ([]entities.ValueCount, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		return TopN(events, field, limit), nil
	}
	return Frequency(events, field), nil
}
