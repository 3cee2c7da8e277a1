package services

import (
	"strings"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// Filter returns the facilities matching the criteria, in catalog order, and
// their count.
//
// Zone, category and type match by exact equality unless they hold
// entities.AllValues or the column is absent. Free text, when non-blank,
// keeps rows whose facility type or category contains it, ignoring case.
func Filter(catalog *entities.Catalog, criteria entities.FilterCriteria) ([]entities.Facility, int) {
	matched := []entities.Facility{}
	if catalog == nil {
		return matched, 0
	}

	var exact []func(*entities.Facility) bool
	if criteria.Zone != entities.AllValues && catalog.Has(entities.ColumnZone) {
		exact = append(exact, func(f *entities.Facility) bool { return f.Zone == criteria.Zone })
	}
	if criteria.Category != entities.AllValues && catalog.Has(entities.ColumnCategory) {
		exact = append(exact, func(f *entities.Facility) bool { return f.Category == criteria.Category })
	}
	if criteria.FacilityType != entities.AllValues && catalog.Has(entities.ColumnFacilityType) {
		exact = append(exact, func(f *entities.Facility) bool { return f.FacilityType == criteria.FacilityType })
	}

	text := strings.ToLower(strings.TrimSpace(criteria.Text))
	searchType := text != "" && catalog.Has(entities.ColumnFacilityType)
	searchCategory := text != "" && catalog.Has(entities.ColumnCategory)

	for i := range catalog.Facilities {
		f := &catalog.Facilities[i]
		if !matchesAll(f, exact) {
			continue
		}
		if searchType || searchCategory {
			hit := (searchType && strings.Contains(strings.ToLower(f.FacilityType), text)) ||
				(searchCategory && strings.Contains(strings.ToLower(f.Category), text))
			if !hit {
				continue
			}
		}
		matched = append(matched, *f)
	}
	return matched, len(matched)
}

func matchesAll(f *entities.Facility, predicates []func(*entities.Facility) bool) bool {
	for _, p := range predicates {
		if !p(f) {
			return false
		}
	}
	return true
}
