package entities

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Catalog column names as they appear in the source files.
const (
	ColumnCategory     = "CATEGORIA"
	ColumnFacilityType = "INFRAESTRUCTURA"
	ColumnZone         = "ZONA"
	ColumnLatitude     = "LATITUD"
	ColumnLongitude    = "LONGITUD"

	ColumnDescription = "DESCRIPCION"
	ColumnServices    = "SERVICIOS"
	ColumnHours       = "HORARIO"
	ColumnContact     = "CONTACTO"
	ColumnImageURL    = "IMAGEN_URL"

	ColumnNeighborhood = "barrio_osm"
	ColumnMunicipality = "municipio_osm"
	ColumnDepartment   = "departamento_osm"
)

// AllValues is the filter value meaning "no constraint on this field".
const AllValues = "Todas"

// DetailColumns are the descriptive columns of the simulated details file.
var DetailColumns = []string{ColumnDescription, ColumnServices, ColumnHours, ColumnContact, ColumnImageURL}

// OSMColumns are the columns added by reverse geocoding enrichment.
var OSMColumns = []string{ColumnNeighborhood, ColumnMunicipality, ColumnDepartment}

var displayColumns = []string{
	ColumnCategory, ColumnFacilityType, ColumnZone, ColumnLatitude, ColumnLongitude,
	ColumnNeighborhood, ColumnMunicipality, ColumnDepartment,
	ColumnDescription, ColumnServices, ColumnHours,
}

// Table is raw tabular data read from a catalog file: a header and one
// column->value map per row.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Has reports whether the table carries the given column.
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Facility is one catalog row. Optional fields are empty when the column is
// absent from the catalog or the cell is blank; Catalog.Has tells them apart.
type Facility struct {
	Category     string  `json:"categoria"`
	FacilityType string  `json:"infraestructura"`
	Zone         string  `json:"zona"`
	Latitude     float64 `json:"latitud"`
	Longitude    float64 `json:"longitud"`

	Description string `json:"descripcion,omitempty"`
	Services    string `json:"servicios,omitempty"`
	Hours       string `json:"horario,omitempty"`
	Contact     string `json:"contacto,omitempty"`
	ImageURL    string `json:"imagen_url,omitempty"`

	Neighborhood string `json:"barrio_osm,omitempty"`
	Municipality string `json:"municipio_osm,omitempty"`
	Department   string `json:"departamento_osm,omitempty"`

	attributes map[string]string
}

// Value returns the raw cell text for a column.
func (f *Facility) Value(column string) string {
	switch column {
	case ColumnLatitude:
		return strconv.FormatFloat(f.Latitude, 'f', -1, 64)
	case ColumnLongitude:
		return strconv.FormatFloat(f.Longitude, 'f', -1, 64)
	case ColumnCategory:
		return f.Category
	case ColumnFacilityType:
		return f.FacilityType
	case ColumnZone:
		return f.Zone
	case ColumnDescription:
		return f.Description
	case ColumnServices:
		return f.Services
	case ColumnHours:
		return f.Hours
	case ColumnContact:
		return f.Contact
	case ColumnImageURL:
		return f.ImageURL
	case ColumnNeighborhood:
		return f.Neighborhood
	case ColumnMunicipality:
		return f.Municipality
	case ColumnDepartment:
		return f.Department
	}
	return f.attributes[column]
}

// Catalog is the validated, immutable facility table served to the filter
// engine. Column presence is fixed when the catalog is built.
type Catalog struct {
	columns    []string
	present    map[string]bool
	Facilities []Facility
}

// NewCatalog builds a catalog from a raw table. Rows whose coordinates are
// missing or not numeric are dropped.
func NewCatalog(table *Table) *Catalog {
	c := &Catalog{
		columns: append([]string(nil), table.Columns...),
		present: make(map[string]bool, len(table.Columns)),
	}
	for _, col := range table.Columns {
		c.present[col] = true
	}

	for _, row := range table.Rows {
		lat, ok := ParseCoordinate(row[ColumnLatitude])
		if !ok {
			continue
		}
		lon, ok := ParseCoordinate(row[ColumnLongitude])
		if !ok {
			continue
		}
		c.Facilities = append(c.Facilities, newFacility(row, lat, lon))
	}
	return c
}

func newFacility(row map[string]string, lat, lon float64) Facility {
	attrs := make(map[string]string, len(row))
	for k, v := range row {
		attrs[k] = v
	}
	return Facility{
		Category:     row[ColumnCategory],
		FacilityType: row[ColumnFacilityType],
		Zone:         row[ColumnZone],
		Latitude:     lat,
		Longitude:    lon,
		Description:  row[ColumnDescription],
		Services:     row[ColumnServices],
		Hours:        row[ColumnHours],
		Contact:      row[ColumnContact],
		ImageURL:     row[ColumnImageURL],
		Neighborhood: row[ColumnNeighborhood],
		Municipality: row[ColumnMunicipality],
		Department:   row[ColumnDepartment],
		attributes:   attrs,
	}
}

// ParseCoordinate coerces a cell to a finite float.
func ParseCoordinate(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Has reports whether the catalog has the given column.
func (c *Catalog) Has(column string) bool {
	return c.present[column]
}

// Columns returns the catalog header in source order.
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Len returns the number of facilities.
func (c *Catalog) Len() int {
	return len(c.Facilities)
}

// DisplayColumns returns the table view columns present in this catalog.
func (c *Catalog) DisplayColumns() []string {
	var cols []string
	for _, col := range displayColumns {
		if c.Has(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// Options returns the selectable values for a filter column: the sentinel
// followed by the sorted distinct non-empty values.
func (c *Catalog) Options(column string) []string {
	options := []string{AllValues}
	if !c.Has(column) {
		return options
	}

	seen := make(map[string]bool)
	var values []string
	for i := range c.Facilities {
		v := c.Facilities[i].Value(column)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return append(options, values...)
}

// Center returns the mean coordinate of the catalog.
func (c *Catalog) Center() (Coordinates, bool) {
	return MeanCoordinates(c.Facilities)
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// MeanCoordinates averages the facility coordinates; false when empty.
func MeanCoordinates(facilities []Facility) (Coordinates, bool) {
	if len(facilities) == 0 {
		return Coordinates{}, false
	}
	var lat, lon float64
	for i := range facilities {
		lat += facilities[i].Latitude
		lon += facilities[i].Longitude
	}
	n := float64(len(facilities))
	return Coordinates{Latitude: lat / n, Longitude: lon / n}, true
}
