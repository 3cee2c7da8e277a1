package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// Paths locates the catalog files. Only Base is required.
type Paths struct {
	Base     string
	Enriched string
	Details  string
	Barrios  string
}

// CSVRepository reads catalog tables from CSV files.
type CSVRepository struct {
	paths Paths
}

// NewCSVRepository creates a catalog repository over the given files.
func NewCSVRepository(paths Paths) repositories.CatalogRepository {
	return &CSVRepository{paths: paths}
}

// Base reads the required base catalog.
func (r *CSVRepository) Base(ctx context.Context) (*entities.Table, error) {
	table, err := ReadTableFile(r.paths.Base)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("catalog file %s not found", r.paths.Base))
	}
	if err != nil {
		return nil, err
	}
	if err := requireColumns(table, r.paths.Base,
		entities.ColumnCategory, entities.ColumnFacilityType, entities.ColumnZone,
		entities.ColumnLatitude, entities.ColumnLongitude,
	); err != nil {
		return nil, err
	}
	return table, nil
}

// Enriched reads the enriched catalog, or returns nil when it is absent.
func (r *CSVRepository) Enriched(ctx context.Context) (*entities.Table, error) {
	table, err := r.optional(r.paths.Enriched)
	if err != nil || table == nil {
		return nil, err
	}
	if err := requireColumns(table, r.paths.Enriched, entities.ColumnLatitude, entities.ColumnLongitude); err != nil {
		return nil, err
	}
	return table, nil
}

// Details reads the simulated details; an absent file yields an empty table
// with the detail columns.
func (r *CSVRepository) Details(ctx context.Context) (*entities.Table, error) {
	table, err := r.optional(r.paths.Details)
	if err != nil {
		return nil, err
	}
	if table == nil {
		columns := append([]string{entities.ColumnFacilityType}, entities.DetailColumns...)
		return &entities.Table{Columns: columns}, nil
	}
	return table, nil
}

// Barrios reads the neighbourhood listing; empty when absent.
func (r *CSVRepository) Barrios(ctx context.Context) (*entities.Table, error) {
	table, err := r.optional(r.paths.Barrios)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return &entities.Table{}, nil
	}
	return table, nil
}

func (r *CSVRepository) optional(path string) (*entities.Table, error) {
	if path == "" {
		return nil, nil
	}
	table, err := ReadTableFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return table, err
}

func requireColumns(table *entities.Table, path string, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if !table.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError(fmt.Sprintf("%s is missing columns %s", path, strings.Join(missing, ", ")))
	}
	return nil
}

// ReadTableFile reads a CSV file into a table. A missing file returns an
// error wrapping os.ErrNotExist.
func ReadTableFile(path string) (*entities.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to open "+path, err)
	}
	defer f.Close()

	table, err := ReadTable(f)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is not a valid CSV table: %v", path, err))
	}
	return table, nil
}

// ReadTable parses CSV with a header row. Short rows are padded with empty
// cells; cells beyond the header are ignored.
func ReadTable(r io.Reader) (*entities.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &entities.Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &entities.Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// WriteTableFile writes the table to path atomically (temp file + rename).
func WriteTableFile(path string, table *entities.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewInternalError("failed to create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewInternalError("failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteTable(tmp, table); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write "+path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to sync "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to close "+path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperrors.NewInternalError("failed to replace "+path, err)
	}
	return nil
}

// WriteTable writes the header and rows as CSV.
func WriteTable(w io.Writer, table *entities.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
