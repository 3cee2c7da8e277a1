package services

import (
	"context"
	"time"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
)

// DefaultEnrichmentDelay is the pause between reverse geocoding calls.
const DefaultEnrichmentDelay = time.Second

const enrichmentProgressEvery = 25

// EnrichmentSummary reports the outcome of an enrichment run.
type EnrichmentSummary struct {
	TotalRows int
	LookedUp  int
	Succeeded int
	Failed    int
	Skipped   int
}

// EnrichmentService adds reverse geocoded OSM columns to a catalog table.
type EnrichmentService struct {
	provider providers.GeolocationProvider
	delay    time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

// NewEnrichmentService creates an enrichment service. A non-positive delay
// disables pacing.
func NewEnrichmentService(provider providers.GeolocationProvider, delay time.Duration) *EnrichmentService {
	return &EnrichmentService{
		provider: provider,
		delay:    delay,
		wait:     sleepContext,
	}
}

// Enrich looks up every row once, in order, pausing between calls. A failed
// lookup leaves the row's OSM cells empty and the run continues. Rows whose
// coordinates are not numeric are copied through without a lookup. The run
// stops when ctx is cancelled.
func (s *EnrichmentService) Enrich(ctx context.Context, table *entities.Table) (*entities.Table, *EnrichmentSummary, error) {
	logger := observability.LoggerFromContext(ctx)

	out := &entities.Table{Columns: append([]string(nil), table.Columns...)}
	for _, col := range entities.OSMColumns {
		if !table.Has(col) {
			out.Columns = append(out.Columns, col)
		}
	}

	summary := &EnrichmentSummary{TotalRows: len(table.Rows)}
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		enriched := make(map[string]string, len(out.Columns))
		for k, v := range row {
			enriched[k] = v
		}
		for _, col := range entities.OSMColumns {
			enriched[col] = ""
		}

		lat, okLat := entities.ParseCoordinate(row[entities.ColumnLatitude])
		lon, okLon := entities.ParseCoordinate(row[entities.ColumnLongitude])
		if !okLat || !okLon {
			summary.Skipped++
			out.Rows = append(out.Rows, enriched)
			continue
		}

		if summary.LookedUp > 0 && s.delay > 0 {
			if err := s.wait(ctx, s.delay); err != nil {
				return nil, summary, err
			}
		}

		summary.LookedUp++
		addr, err := s.provider.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			if ctx.Err() != nil {
				return nil, summary, ctx.Err()
			}
			summary.Failed++
			logger.Warn().Err(err).Int("row", i).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding failed")
		} else {
			summary.Succeeded++
			enriched[entities.ColumnNeighborhood] = addr.Neighborhood
			enriched[entities.ColumnMunicipality] = addr.Municipality
			enriched[entities.ColumnDepartment] = addr.Department
		}
		out.Rows = append(out.Rows, enriched)

		if (i+1)%enrichmentProgressEvery == 0 {
			logger.Info().Int("done", i+1).Int("total", summary.TotalRows).Msg("enrichment progress")
		}
	}

	return out, summary, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
