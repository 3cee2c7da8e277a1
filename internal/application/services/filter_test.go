package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

var fullColumns = []string{
	entities.ColumnCategory, entities.ColumnFacilityType, entities.ColumnZone,
	entities.ColumnLatitude, entities.ColumnLongitude,
}

func row(category, facilityType, zone, lat, lon string) map[string]string {
	return map[string]string{
		entities.ColumnCategory:     category,
		entities.ColumnFacilityType: facilityType,
		entities.ColumnZone:         zone,
		entities.ColumnLatitude:     lat,
		entities.ColumnLongitude:    lon,
	}
}

func sampleCatalog() *entities.Catalog {
	return entities.NewCatalog(&entities.Table{
		Columns: fullColumns,
		Rows: []map[string]string{
			row("Salud", "Hospital", "Urbana", "9.52", "-75.58"),
			row("Recreación", "Parque", "Urbana", "9.53", "-75.57"),
			row("Salud", "Puesto de salud", "Rural", "9.40", "-75.60"),
			row("Educación", "Escuela", "Rural", "9.45", "-75.62"),
			row("Cultura", "Casa de la cultura", "Urbana", "9.51", "-75.59"),
		},
	})
}

func all(text string) entities.FilterCriteria {
	return entities.NewFilterCriteria("", "", "", text)
}

func facilityTypes(facilities []entities.Facility) []string {
	out := []string{}
	for _, f := range facilities {
		out = append(out, f.FacilityType)
	}
	return out
}

func TestFilter_EmptyCatalog(t *testing.T) {
	empty := entities.NewCatalog(&entities.Table{Columns: fullColumns})
	criteria := []entities.FilterCriteria{
		all(""),
		all("hospital"),
		entities.NewFilterCriteria("Urbana", "Salud", "Hospital", "x"),
	}
	for _, c := range criteria {
		rows, count := Filter(empty, c)
		assert.Empty(t, rows)
		assert.Equal(t, 0, count)
	}

	rows, count := Filter(nil, all(""))
	assert.Empty(t, rows)
	assert.Equal(t, 0, count)
}

func TestFilter_AllValuesIsIdentity(t *testing.T) {
	catalog := sampleCatalog()

	rows, count := Filter(catalog, all(""))

	assert.Equal(t, catalog.Len(), count)
	assert.Equal(t, catalog.Facilities, rows)
}

func TestFilter_ExactMatches(t *testing.T) {
	catalog := sampleCatalog()

	rows, count := Filter(catalog, entities.NewFilterCriteria("Urbana", "", "", ""))
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"Hospital", "Parque", "Casa de la cultura"}, facilityTypes(rows))

	rows, count = Filter(catalog, entities.NewFilterCriteria("Rural", "Salud", "", ""))
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Puesto de salud"}, facilityTypes(rows))

	_, count = Filter(catalog, entities.NewFilterCriteria("urbana", "", "", ""))
	assert.Equal(t, 0, count, "exact matches are case sensitive")
}

func TestFilter_FreeTextContainment(t *testing.T) {
	catalog := sampleCatalog()

	for _, text := range []string{"salud", "SALUD", "  Hosp ", "a", "cultura", "zzz"} {
		rows, count := Filter(catalog, all(text))
		require.Equal(t, len(rows), count)
		needle := strings.ToLower(strings.TrimSpace(text))
		for _, f := range rows {
			hit := strings.Contains(strings.ToLower(f.FacilityType), needle) ||
				strings.Contains(strings.ToLower(f.Category), needle)
			assert.True(t, hit, "%q does not match %+v", text, f)
		}
	}

	rows, _ := Filter(catalog, all("salud"))
	assert.Equal(t, []string{"Hospital", "Puesto de salud"}, facilityTypes(rows))
}

func TestFilter_TextIsAndedWithSelections(t *testing.T) {
	rows, count := Filter(sampleCatalog(), entities.NewFilterCriteria("Urbana", "", "", "salud"))
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Hospital"}, facilityTypes(rows))
}

func TestFilter_AbsentColumnsAreSkipped(t *testing.T) {
	catalog := entities.NewCatalog(&entities.Table{
		Columns: []string{entities.ColumnFacilityType, entities.ColumnLatitude, entities.ColumnLongitude},
		Rows: []map[string]string{
			{entities.ColumnFacilityType: "Hospital", entities.ColumnLatitude: "1", entities.ColumnLongitude: "2"},
			{entities.ColumnFacilityType: "Parque", entities.ColumnLatitude: "1", entities.ColumnLongitude: "2"},
		},
	})

	_, count := Filter(catalog, entities.NewFilterCriteria("Rural", "Salud", "", ""))
	assert.Equal(t, 2, count)

	rows, count := Filter(catalog, entities.NewFilterCriteria("Rural", "", "", "par"))
	assert.Equal(t, 1, count)
	assert.Equal(t, "Parque", rows[0].FacilityType)
}

func TestFilter_TextWithoutTargetColumns(t *testing.T) {
	catalog := entities.NewCatalog(&entities.Table{
		Columns: []string{entities.ColumnZone, entities.ColumnLatitude, entities.ColumnLongitude},
		Rows: []map[string]string{
			{entities.ColumnZone: "Urbana", entities.ColumnLatitude: "1", entities.ColumnLongitude: "2"},
			{entities.ColumnZone: "Rural", entities.ColumnLatitude: "1", entities.ColumnLongitude: "2"},
		},
	})

	_, count := Filter(catalog, entities.NewFilterCriteria("Urbana", "", "", "hospital"))
	assert.Equal(t, 1, count)
}

func TestFilter_DoesNotMutateCatalog(t *testing.T) {
	catalog := sampleCatalog()
	before := append([]entities.Facility(nil), catalog.Facilities...)

	Filter(catalog, entities.NewFilterCriteria("Rural", "", "", "e"))

	assert.Equal(t, before, catalog.Facilities)
}
