package entities

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the second-precision ISO-8601 form written for new events.
const TimestampLayout = "2006-01-02T15:04:05"

// timestampLayouts are accepted when reading timestamps back from storage.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ActionKind identifies what triggered a search event. The stored values are
// the tokens used by existing event log files.
type ActionKind string

const (
	// ActionFilterSubmit is an explicit "apply filters" action.
	ActionFilterSubmit ActionKind = "boton_filtro"
	// ActionTextChange is an implicit free-text change.
	ActionTextChange ActionKind = "enter"
	// ActionManualLog is an explicit "log this search" action.
	ActionManualLog ActionKind = "boton"
)

var actionAliases = map[string]ActionKind{
	"boton_filtro":           ActionFilterSubmit,
	"filter_submit":          ActionFilterSubmit,
	"explicit_filter_submit": ActionFilterSubmit,
	"enter":                  ActionTextChange,
	"text_change":            ActionTextChange,
	"implicit_text_change":   ActionTextChange,
	"boton":                  ActionManualLog,
	"manual":                 ActionManualLog,
	"manual_log_request":     ActionManualLog,
}

// ParseActionKind accepts the stored token or any of its descriptive names.
func ParseActionKind(s string) (ActionKind, error) {
	if kind, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// Name returns the descriptive name of the action kind.
func (k ActionKind) Name() string {
	switch k {
	case ActionFilterSubmit:
		return "explicit_filter_submit"
	case ActionTextChange:
		return "implicit_text_change"
	case ActionManualLog:
		return "manual_log_request"
	}
	return string(k)
}

// SearchEvent is one logged search action. Events are append-only; Timestamp
// keeps the stored text so malformed values survive a round trip.
type SearchEvent struct {
	ID           string     `json:"id,omitempty" db:"id"`
	Timestamp    string     `json:"timestamp" db:"timestamp"`
	ActionKind   ActionKind `json:"tipo_accion" db:"tipo_accion"`
	Zone         string     `json:"zona" db:"zona"`
	Category     string     `json:"categoria" db:"categoria"`
	FacilityType string     `json:"infraestructura" db:"infraestructura"`
	SearchText   string     `json:"texto_busqueda" db:"texto_busqueda"`
	ResultCount  int        `json:"resultados" db:"resultados"`
}

// NewSearchEvent captures the filter state and result count at time now.
func NewSearchEvent(now time.Time, kind ActionKind, criteria FilterCriteria, resultCount int) *SearchEvent {
	if resultCount < 0 {
		resultCount = 0
	}
	return &SearchEvent{
		Timestamp:    now.Format(TimestampLayout),
		ActionKind:   kind,
		Zone:         criteria.Zone,
		Category:     criteria.Category,
		FacilityType: criteria.FacilityType,
		SearchText:   strings.TrimSpace(criteria.Text),
		ResultCount:  resultCount,
	}
}

// Time parses the event timestamp. ok is false when it is malformed.
func (e *SearchEvent) Time() (t time.Time, ok bool) {
	raw := strings.TrimSpace(e.Timestamp)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Field returns the value of an aggregatable field.
func (e *SearchEvent) Field(field EventField) string {
	switch field {
	case FieldZone:
		return e.Zone
	case FieldCategory:
		return e.Category
	case FieldFacilityType:
		return e.FacilityType
	case FieldSearchText:
		return e.SearchText
	case FieldActionKind:
		return string(e.ActionKind)
	}
	return ""
}

// EventField names a search event column that can be aggregated. Values
// match the event log header.
type EventField string

const (
	FieldZone         EventField = "zona"
	FieldCategory     EventField = "categoria"
	FieldFacilityType EventField = "infraestructura"
	FieldSearchText   EventField = "texto_busqueda"
	FieldActionKind   EventField = "tipo_accion"
)

var fieldAliases = map[string]EventField{
	"zona":            FieldZone,
	"zone":            FieldZone,
	"categoria":       FieldCategory,
	"category":        FieldCategory,
	"infraestructura": FieldFacilityType,
	"type":            FieldFacilityType,
	"facility_type":   FieldFacilityType,
	"texto_busqueda":  FieldSearchText,
	"search_text":     FieldSearchText,
	"tipo_accion":     FieldActionKind,
	"action_kind":     FieldActionKind,
}

// ParseEventField resolves a field name given in Spanish or English.
func ParseEventField(s string) (EventField, error) {
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown event field %q", s)
}

// FilterCriteria is the filter state selected by the user.
type FilterCriteria struct {
	Zone         string `json:"zona"`
	Category     string `json:"categoria"`
	FacilityType string `json:"infraestructura"`
	Text         string `json:"texto"`
}

// NewFilterCriteria normalizes blank selections to the AllValues sentinel.
func NewFilterCriteria(zone, category, facilityType, text string) FilterCriteria {
	return FilterCriteria{
		Zone:         orAll(zone),
		Category:     orAll(category),
		FacilityType: orAll(facilityType),
		Text:         text,
	}
}

func orAll(v string) string {
	if strings.TrimSpace(v) == "" {
		return AllValues
	}
	return v
}
