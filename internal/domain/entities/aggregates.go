package entities

// ValueCount is one row of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DailyCount is the number of events logged on one calendar date.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Share is a frequency row with its percentage of the total.
type Share struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StatsSummary is the full reporting view over the event log.
type StatsSummary struct {
	TotalEvents      int            `json:"total_events"`
	TopFacilityTypes []ValueCount   `json:"top_facility_types"`
	Categories       []ValueCount   `json:"categories"`
	FacilityTypes    []ValueCount   `json:"facility_types"`
	Daily            []DailyCount   `json:"daily"`
	Zones            []Share        `json:"zones"`
	Recent           []*SearchEvent `json:"recent"`
}
