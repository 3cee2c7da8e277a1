package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// EventLogHeader is the column layout of the event log file.
var EventLogHeader = []string{
	"timestamp",
	"tipo_accion",
	string(entities.FieldZone),
	string(entities.FieldCategory),
	string(entities.FieldFacilityType),
	string(entities.FieldSearchText),
	"resultados",
}

// CSVEventStore keeps the search event log in a CSV file. Appends are
// written in place and serialized within the process.
type CSVEventStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVEventStore creates a store backed by the file at path. The file and
// its directory are created on the first append.
func NewCSVEventStore(path string) repositories.SearchEventRepository {
	return &CSVEventStore{path: path}
}

// Append writes one event at the end of the file.
func (s *CSVEventStore) Append(ctx context.Context, event *entities.SearchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return apperrors.NewValidationError("search event is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.NewInternalError("failed to create event log directory", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.NewInternalError("failed to open event log", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apperrors.NewInternalError("failed to stat event log", err)
	}

	columns := EventLogHeader
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(EventLogHeader); err != nil {
			return apperrors.NewInternalError("failed to write event log header", err)
		}
	} else {
		columns, err = readHeader(io.NewSectionReader(f, 0, info.Size()))
		if err != nil {
			return err
		}
		if err := ensureTrailingNewline(f, info.Size()); err != nil {
			return apperrors.NewInternalError("failed to prepare event log for append", err)
		}
	}

	if err := w.Write(eventRecord(event, columns)); err != nil {
		return apperrors.NewInternalError("failed to write search event", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewInternalError("failed to flush search event", err)
	}
	if err := f.Sync(); err != nil {
		return apperrors.NewInternalError("failed to sync event log", err)
	}
	return nil
}

// List reads every event in file order.
func (s *CSVEventStore) List(ctx context.Context) ([]*entities.SearchEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*entities.SearchEvent{}, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open event log", err)
	}
	defer f.Close()

	return ReadEvents(f)
}

// ReadEvents parses an event log. Columns may appear in any order; extra
// columns are ignored. Any malformed record makes the whole log corrupt.
func ReadEvents(r io.Reader) ([]*entities.SearchEvent, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []*entities.SearchEvent{}, nil
	}
	if err != nil {
		return nil, apperrors.NewCorruptError("event log header is unreadable", err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	events := []*entities.SearchEvent{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewCorruptError("event log record is unreadable", err)
		}

		line, _ := reader.FieldPos(0)
		event, err := parseRecord(record, index)
		if err != nil {
			return nil, apperrors.NewCorruptError(fmt.Sprintf("event log line %d is invalid", line), err)
		}
		events = append(events, event)
	}
	return events, nil
}

// WriteEvents writes a complete event log, header included.
func WriteEvents(w io.Writer, events []*entities.SearchEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventLogHeader); err != nil {
		return err
	}
	for _, e := range events {
		if err := cw.Write(eventRecord(e, EventLogHeader)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readHeader(r io.Reader) ([]string, error) {
	header, err := csv.NewReader(r).Read()
	if err != nil {
		return nil, apperrors.NewCorruptError("event log header is unreadable", err)
	}
	if _, err := headerIndex(header); err != nil {
		return nil, err
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h, i)
	}
	return columns, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h, i)] = i
	}
	for _, col := range EventLogHeader {
		if _, ok := index[col]; !ok {
			return nil, apperrors.NewCorruptError(fmt.Sprintf("event log header is missing column %q", col), nil)
		}
	}
	return index, nil
}

func normalizeHeader(h string, pos int) string {
	if pos == 0 {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.TrimSpace(h)
}

func parseRecord(record []string, index map[string]int) (*entities.SearchEvent, error) {
	count, err := parseCount(record[index["resultados"]])
	if err != nil {
		return nil, err
	}
	return &entities.SearchEvent{
		Timestamp:    record[index["timestamp"]],
		ActionKind:   entities.ActionKind(record[index["tipo_accion"]]),
		Zone:         record[index[string(entities.FieldZone)]],
		Category:     record[index[string(entities.FieldCategory)]],
		FacilityType: record[index[string(entities.FieldFacilityType)]],
		SearchText:   record[index[string(entities.FieldSearchText)]],
		ResultCount:  count,
	}, nil
}

func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("resultados %q is not a non-negative integer", raw)
	}
	return int(f), nil
}

func eventRecord(e *entities.SearchEvent, columns []string) []string {
	values := map[string]string{
		"timestamp":                        e.Timestamp,
		"tipo_accion":                      string(e.ActionKind),
		string(entities.FieldZone):         e.Zone,
		string(entities.FieldCategory):     e.Category,
		string(entities.FieldFacilityType): e.FacilityType,
		string(entities.FieldSearchText):   e.SearchText,
		"resultados":                       strconv.Itoa(e.ResultCount),
	}
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = values[col]
	}
	return record
}

func ensureTrailingNewline(f *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err := f.Write([]byte("\n"))
	return err
}
