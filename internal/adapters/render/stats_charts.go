package render

import (
	"errors"
	"io"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// Chart names served by the statistics API.
const (
	ChartTopFacilityTypes = "top-types"
	ChartCategories       = "categories"
	ChartFacilityTypes    = "types"
	ChartDaily            = "daily"
	ChartZones            = "zones"
)

// ErrUnknownChart is returned for a chart name that does not exist.
var ErrUnknownChart = errors.New("unknown chart")

// Charts lists every chart name.
var Charts = []string{ChartTopFacilityTypes, ChartCategories, ChartFacilityTypes, ChartDaily, ChartZones}

// StatsChart renders one of the statistics charts for summary as PNG.
func StatsChart(w io.Writer, chart string, summary *entities.StatsSummary) error {
	switch chart {
	case ChartTopFacilityTypes:
		return BarChart(w, "Top de infraestructuras mas consultadas", countBars(summary.TopFacilityTypes))
	case ChartCategories:
		return BarChart(w, "Categorias mas consultadas", countBars(summary.Categories))
	case ChartFacilityTypes:
		return BarChart(w, "Infraestructuras mas consultadas", countBars(summary.FacilityTypes))
	case ChartDaily:
		bars := make([]Bar, 0, len(summary.Daily))
		for _, d := range summary.Daily {
			bars = append(bars, Bar{Label: d.Date, Value: float64(d.Count)})
		}
		return BarChart(w, "Busquedas por dia", bars)
	case ChartZones:
		slices := make([]Slice, 0, len(summary.Zones))
		for _, z := range summary.Zones {
			slices = append(slices, Slice{Label: z.Value, Value: float64(z.Count)})
		}
		return PieChart(w, "Distribucion por zona", slices)
	}
	return ErrUnknownChart
}

func countBars(counts []entities.ValueCount) []Bar {
	bars := make([]Bar, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, Bar{Label: c.Value, Value: float64(c.Count)})
	}
	return bars
}
