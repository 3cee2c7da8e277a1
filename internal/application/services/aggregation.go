package services

import (
	"sort"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

const (
	// TopFacilityTypesLimit is the size of the "most consulted" ranking.
	TopFacilityTypesLimit = 10
	// RecentEventsLimit is the number of events in the recent activity list.
	RecentEventsLimit = 20
)

// Frequency counts the values of a field, skipping blank and AllValues
// entries. Rows are ordered by count descending; ties keep the order in
// which values first appear in the log.
func Frequency(events []*entities.SearchEvent, field entities.EventField) []entities.ValueCount {
	counts := []entities.ValueCount{}
	index := make(map[string]int)
	for _, e := range events {
		if e == nil {
			continue
		}
		v := e.Field(field)
		if v == "" || v == entities.AllValues {
			continue
		}
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, entities.ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// TopN returns the first n rows of Frequency. A negative n returns them all.
func TopN(events []*entities.SearchEvent, field entities.EventField, n int) []entities.ValueCount {
	counts := Frequency(events, field)
	if n >= 0 && n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

// DailyCounts buckets events by the calendar date of their timestamp, in
// chronological order. Events with malformed timestamps are left out.
func DailyCounts(events []*entities.SearchEvent) []entities.DailyCount {
	byDate := make(map[string]int)
	for _, e := range events {
		if e == nil {
			continue
		}
		t, ok := e.Time()
		if !ok {
			continue
		}
		byDate[t.Format("2006-01-02")]++
	}

	daily := make([]entities.DailyCount, 0, len(byDate))
	for date, n := range byDate {
		daily = append(daily, entities.DailyCount{Date: date, Count: n})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })
	return daily
}

// ZoneDistribution is the zone frequency with each zone's share in percent.
func ZoneDistribution(events []*entities.SearchEvent) []entities.Share {
	counts := Frequency(events, entities.FieldZone)
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	shares := make([]entities.Share, 0, len(counts))
	for _, c := range counts {
		shares = append(shares, entities.Share{
			Value:      c.Value,
			Count:      c.Count,
			Percentage: float64(c.Count) * 100 / float64(total),
		})
	}
	return shares
}

// Recent returns the n latest events, newest first. Events with malformed
// timestamps sort last; equal timestamps keep log order.
func Recent(events []*entities.SearchEvent, n int) []*entities.SearchEvent {
	type entry struct {
		event *entities.SearchEvent
		unix  int64
		ok    bool
	}
	entries := make([]entry, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		t, ok := e.Time()
		entries = append(entries, entry{event: e, unix: t.Unix(), ok: ok})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ok != entries[j].ok {
			return entries[i].ok
		}
		return entries[i].ok && entries[i].unix > entries[j].unix
	})

	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	recent := make([]*entities.SearchEvent, len(entries))
	for i, en := range entries {
		recent[i] = en.event
	}
	return recent
}

// Aggregate computes every reporting view over the log.
func Aggregate(events []*entities.SearchEvent) *entities.StatsSummary {
	return &entities.StatsSummary{
		TotalEvents:      len(events),
		TopFacilityTypes: TopN(events, entities.FieldFacilityType, TopFacilityTypesLimit),
		Categories:       Frequency(events, entities.FieldCategory),
		FacilityTypes:    Frequency(events, entities.FieldFacilityType),
		Daily:            DailyCounts(events),
		Zones:            ZoneDistribution(events),
		Recent:           Recent(events, RecentEventsLimit),
	}
}
