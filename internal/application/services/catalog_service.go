package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// NoticeDetailsMissing is returned with the detailed view when no simulated
// details are available.
const NoticeDetailsMissing = "No se encontraron detalles simulados; se muestran solo los datos del catálogo."

// CatalogView is a loaded catalog for one data source.
type CatalogView struct {
	Source  entities.DataSource `json:"source"`
	Catalog *entities.Catalog   `json:"-"`
	Notice  string              `json:"notice,omitempty"`
}

// SourceInfo describes a selectable data source.
type SourceInfo struct {
	Source    entities.DataSource `json:"source"`
	Label     string              `json:"label"`
	Available bool                `json:"available"`
}

// CatalogService loads catalogs per data source and keeps them in memory.
type CatalogService struct {
	repo repositories.CatalogRepository

	mu    sync.RWMutex
	views map[entities.DataSource]*CatalogView
	group singleflight.Group
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repositories.CatalogRepository) *CatalogService {
	return &CatalogService{
		repo:  repo,
		views: make(map[entities.DataSource]*CatalogView),
	}
}

// Load returns the catalog for a data source, reading the files on first use.
func (s *CatalogService) Load(ctx context.Context, source entities.DataSource) (*CatalogView, error) {
	s.mu.RLock()
	view, ok := s.views[source]
	s.mu.RUnlock()
	if ok {
		return view, nil
	}

	v, err, _ := s.group.Do(string(source), func() (interface{}, error) {
		view, err := s.build(ctx, source)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.views[source] = view
		s.mu.Unlock()

		observability.LoggerFromContext(ctx).Info().
			Str("source", string(source)).
			Int("facilities", view.Catalog.Len()).
			Msg("catalog loaded")
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CatalogView), nil
}

// Reload drops every cached catalog; the next Load reads the files again.
func (s *CatalogService) Reload() {
	s.mu.Lock()
	s.views = make(map[entities.DataSource]*CatalogView)
	s.mu.Unlock()
}

// Sources lists the data source modes and whether each can be loaded.
func (s *CatalogService) Sources(ctx context.Context) ([]SourceInfo, error) {
	enriched, err := s.repo.Enriched(ctx)
	if err != nil {
		return nil, err
	}
	return []SourceInfo{
		{Source: entities.SourceOriginal, Label: entities.SourceOriginal.Label(), Available: true},
		{Source: entities.SourceEnriched, Label: entities.SourceEnriched.Label(), Available: enriched != nil},
		{Source: entities.SourceDetailed, Label: entities.SourceDetailed.Label(), Available: true},
	}, nil
}

// Barrios returns the raw neighbourhood listing.
func (s *CatalogService) Barrios(ctx context.Context) (*entities.Table, error) {
	return s.repo.Barrios(ctx)
}

func (s *CatalogService) build(ctx context.Context, source entities.DataSource) (*CatalogView, error) {
	switch source {
	case entities.SourceOriginal:
		base, err := s.repo.Base(ctx)
		if err != nil {
			return nil, err
		}
		return &CatalogView{Source: source, Catalog: entities.NewCatalog(base)}, nil

	case entities.SourceEnriched:
		enriched, err := s.repo.Enriched(ctx)
		if err != nil {
			return nil, err
		}
		if enriched == nil {
			return nil, apperrors.NewValidationError("the enriched catalog is not available; run the enrichment batch first")
		}
		return &CatalogView{Source: source, Catalog: entities.NewCatalog(enriched)}, nil

	case entities.SourceDetailed:
		table, err := s.repo.Enriched(ctx)
		if err != nil {
			return nil, err
		}
		if table == nil {
			if table, err = s.repo.Base(ctx); err != nil {
				return nil, err
			}
		}
		details, err := s.repo.Details(ctx)
		if err != nil {
			return nil, err
		}
		view := &CatalogView{Source: source, Catalog: entities.NewCatalog(MergeDetails(table, details))}
		// Detail columns are always joined; they stay empty without detail rows.
		if len(details.Rows) == 0 {
			view.Notice = NoticeDetailsMissing
		}
		return view, nil
	}
	return nil, apperrors.NewValidationError("unknown data source " + string(source))
}

// MergeDetails left-joins the details onto the catalog by facility type. A
// row with several matching details is repeated once per match; a row with
// none keeps empty detail cells. Columns already in the catalog keep the
// catalog value.
func MergeDetails(base, details *entities.Table) *entities.Table {
	columns := append([]string(nil), base.Columns...)
	var added []string
	for _, col := range details.Columns {
		if col == entities.ColumnFacilityType || base.Has(col) {
			continue
		}
		added = append(added, col)
		columns = append(columns, col)
	}

	index := make(map[string][]map[string]string)
	for _, d := range details.Rows {
		key := d[entities.ColumnFacilityType]
		index[key] = append(index[key], d)
	}

	merged := &entities.Table{Columns: columns}
	for _, row := range base.Rows {
		matches := index[row[entities.ColumnFacilityType]]
		if len(matches) == 0 {
			merged.Rows = append(merged.Rows, withDetail(row, added, nil))
			continue
		}
		for _, d := range matches {
			merged.Rows = append(merged.Rows, withDetail(row, added, d))
		}
	}
	return merged
}

func withDetail(row map[string]string, added []string, detail map[string]string) map[string]string {
	out := make(map[string]string, len(row)+len(added))
	for k, v := range row {
		out[k] = v
	}
	for _, col := range added {
		out[col] = detail[col]
	}
	return out
}
