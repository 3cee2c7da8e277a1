package entities

import (
	"fmt"
	"strings"
)

// DataSource selects which catalog variant is browsed.
type DataSource string

const (
	// SourceOriginal is the open-data catalog as published.
	SourceOriginal DataSource = "original"
	// SourceEnriched is the catalog with reverse geocoded OSM columns.
	SourceEnriched DataSource = "enriched"
	// SourceDetailed is the catalog joined with the simulated details.
	SourceDetailed DataSource = "detailed"
)

// ParseDataSource resolves a source name; blank selects the original catalog.
func ParseDataSource(s string) (DataSource, error) {
	switch DataSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", SourceOriginal:
		return SourceOriginal, nil
	case SourceEnriched:
		return SourceEnriched, nil
	case SourceDetailed:
		return SourceDetailed, nil
	}
	return "", fmt.Errorf("unknown data source %q", s)
}

// Label is the human readable name of the source.
func (s DataSource) Label() string {
	switch s {
	case SourceOriginal:
		return "Catálogo original (datos abiertos)"
	case SourceEnriched:
		return "Catálogo enriquecido (OpenStreetMap)"
	case SourceDetailed:
		return "Catálogo + detalles simulados"
	}
	return string(s)
}
