package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// DefaultMapZoom is the initial zoom level of the facility map.
const DefaultMapZoom = 13

// MapMarker is one facility pin.
type MapMarker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Title     string  `json:"title"`
	Popup     string  `json:"popup_html"`
}

// MapView is the map centre and markers for a filtered catalog.
type MapView struct {
	Center  *entities.Coordinates `json:"center,omitempty"`
	Zoom    int                   `json:"zoom"`
	Markers []MapMarker           `json:"markers"`
}

var popupTemplate = template.Must(template.New("popup").Parse(
	`<div style="font-size:12px; width: 260px;">` +
		`<h4 style="margin-bottom:4px;">{{.Name}}</h4>` +
		`{{range .Lines}}{{if .Rule}}<hr style="margin:4px 0;">{{end}}<b>{{.Label}}:</b> {{.Value}}<br>{{end}}` +
		`{{if .Image}}<br><img src="{{.Image}}" width="240">{{else}}<br><i>Imagen pendiente por agregar.</i>{{end}}` +
		`</div>`,
))

type popupLine struct {
	Label string
	Value string
	Rule  bool
}

type popupData struct {
	Name  string
	Lines []popupLine
	Image string
}

// BuildMapView centres the map on the filtered rows, falling back to the
// whole catalog when nothing matched. The centre is omitted for an empty
// catalog.
func BuildMapView(catalog *entities.Catalog, filtered []entities.Facility) (*MapView, error) {
	view := &MapView{Zoom: DefaultMapZoom, Markers: []MapMarker{}}

	if center, ok := entities.MeanCoordinates(filtered); ok {
		view.Center = &center
	} else if catalog != nil {
		if center, ok := catalog.Center(); ok {
			view.Center = &center
		}
	}

	for i := range filtered {
		f := &filtered[i]
		popup, err := RenderPopup(catalog, f)
		if err != nil {
			return nil, err
		}
		view.Markers = append(view.Markers, MapMarker{
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Title:     facilityName(catalog, f),
			Popup:     popup,
		})
	}
	return view, nil
}

// RenderPopup renders the HTML card shown for a facility. Cell values are
// escaped.
func RenderPopup(catalog *entities.Catalog, f *entities.Facility) (string, error) {
	has := func(col string) bool { return catalog == nil || catalog.Has(col) }

	data := popupData{Name: facilityName(catalog, f)}
	if has(entities.ColumnCategory) {
		data.Lines = append(data.Lines, popupLine{Label: "Categoría", Value: f.Category})
	}
	if has(entities.ColumnZone) {
		data.Lines = append(data.Lines, popupLine{Label: "Zona", Value: f.Zone})
	}
	data.Lines = append(data.Lines, popupLine{
		Label: "Coordenadas",
		Value: fmt.Sprintf("%.5f, %.5f", f.Latitude, f.Longitude),
	})

	optional := []struct {
		label string
		value string
		rule  bool
	}{
		{"Barrio (OSM)", f.Neighborhood, false},
		{"Municipio (OSM)", f.Municipality, false},
		{"Departamento (OSM)", f.Department, false},
		{"Descripción", f.Description, true},
		{"Servicios", f.Services, false},
		{"Horario", f.Hours, false},
		{"Contacto", f.Contact, false},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		data.Lines = append(data.Lines, popupLine{Label: o.label, Value: o.value, Rule: o.rule})
	}
	data.Image = strings.TrimSpace(f.ImageURL)

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func facilityName(catalog *entities.Catalog, f *entities.Facility) string {
	if catalog != nil && !catalog.Has(entities.ColumnFacilityType) {
		return "Entidad sin nombre"
	}
	if f.FacilityType == "" {
		return "Entidad sin nombre"
	}
	return f.FacilityType
}
