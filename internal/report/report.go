package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39"))
)

const chartHeight = 8

// Write renders the statistics summary for a terminal of the given width.
func Write(w io.Writer, summary *entities.StatsSummary, width int) error {
	if width < 40 {
		width = 80
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, cyanStyle.Bold(true).Render("  Estadísticas de uso de Tolú Conecta"))
	lines = append(lines, dimStyle.Render("  "+strings.Repeat("─", 36)))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  Total de eventos registrados: %s", greenStyle.Render(fmt.Sprint(summary.TotalEvents))))

	if summary.TotalEvents == 0 {
		lines = append(lines, "")
		lines = append(lines, dimStyle.Render("  Aún no hay búsquedas registradas."))
		lines = append(lines, "")
		_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
		return err
	}

	lines = append(lines, section("Top de infraestructuras más consultadas")...)
	lines = append(lines, countRows(summary.TopFacilityTypes)...)

	lines = append(lines, section("Categorías más consultadas")...)
	lines = append(lines, countRows(summary.Categories)...)

	lines = append(lines, section("Búsquedas por día")...)
	lines = append(lines, dailyChart(summary.Daily, width-4))

	lines = append(lines, section("Distribución por zona")...)
	if len(summary.Zones) == 0 {
		lines = append(lines, dimStyle.Render("  Sin datos"))
	}
	for _, z := range summary.Zones {
		lines = append(lines, fmt.Sprintf("  %-28s %5d  %s", z.Value, z.Count, yellowStyle.Render(fmt.Sprintf("%5.1f%%", z.Percentage))))
	}

	lines = append(lines, section("Detalle de búsquedas recientes")...)
	for _, e := range summary.Recent {
		lines = append(lines, fmt.Sprintf("  %s  %-14s %-10s %-14s %-24s %-16q %d",
			dimStyle.Render(e.Timestamp), e.ActionKind, e.Zone, e.Category, e.FacilityType, e.SearchText, e.ResultCount))
	}
	lines = append(lines, "")

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func section(title string) []string {
	return []string{"", boldStyle.Render("  " + title), ""}
}

func countRows(counts []entities.ValueCount) []string {
	if len(counts) == 0 {
		return []string{dimStyle.Render("  Sin datos")}
	}
	rows := make([]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, fmt.Sprintf("  %-36s %s", c.Value, greenStyle.Render(fmt.Sprint(c.Count))))
	}
	return rows
}

func dailyChart(daily []entities.DailyCount, width int) string {
	if len(daily) == 0 {
		return dimStyle.Render("  Sin datos")
	}

	maxBars := width / 2
	if len(daily) > maxBars {
		daily = daily[len(daily)-maxBars:]
	}

	bc := barchart.New(width, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for _, d := range daily {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: d.Date, Value: float64(d.Count), Style: barStyle},
			},
		})
	}
	bc.Draw()

	first, last := daily[0], daily[len(daily)-1]
	legend := dimStyle.Render(fmt.Sprintf("  %s … %s", first.Date, last.Date))
	return lipgloss.JoinVertical(lipgloss.Left, bc.View(), legend)
}
