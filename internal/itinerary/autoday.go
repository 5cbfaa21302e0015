// Package itinerary derives the day and order fields of attractions from
// their dates, so that a country's attractions group into trip days.
package itinerary

import (
	"sort"

	"viagem/internal/core"
)

// DateKey normalizes a date for grouping; "" for attractions without a date.
func DateKey(d core.Date) string {
	return d.Key()
}

// dayRanks maps each distinct date key to its 1-based rank in calendar order.
func dayRanks(dates []core.Date) map[string]int {
	seen := map[string]core.Date{}
	for _, d := range dates {
		if d.IsEmpty() {
			continue
		}
		seen[DateKey(d)] = d
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return seen[keys[i]].Before(seen[keys[j]].Time)
	})
	ranks := make(map[string]int, len(keys))
	for i, k := range keys {
		ranks[k] = i + 1
	}
	return ranks
}

// ApplyAutoDays returns a copy of attractions where, per country, Day is the
// rank of the attraction's date among that country's distinct dates and
// Order is renumbered 1..n inside each (country, date) group following the
// existing Order. Attractions without a date are left unchanged.
func ApplyAutoDays(attractions []core.Attraction) []core.Attraction {
	out := make([]core.Attraction, len(attractions))
	copy(out, attractions)

	byCountry := map[string][]core.Date{}
	for _, a := range out {
		byCountry[a.Country] = append(byCountry[a.Country], a.Date)
	}
	ranks := make(map[string]map[string]int, len(byCountry))
	for country, dates := range byCountry {
		ranks[country] = dayRanks(dates)
	}

	for i := range out {
		if out[i].Date.IsEmpty() {
			continue
		}
		out[i].Day = ranks[out[i].Country][DateKey(out[i].Date)]
	}
	return NormalizeOrders(out)
}

type groupKey struct {
	country string
	date    string
}

// NormalizeOrders renumbers Order to 1..n inside every (country, date)
// group, keeping the relative order given by the current Order values.
// Ties keep their position in the slice. Undated attractions are untouched.
func NormalizeOrders(attractions []core.Attraction) []core.Attraction {
	out := make([]core.Attraction, len(attractions))
	copy(out, attractions)

	groups := map[groupKey][]int{}
	for i, a := range out {
		if a.Date.IsEmpty() {
			continue
		}
		k := groupKey{a.Country, DateKey(a.Date)}
		groups[k] = append(groups[k], i)
	}
	for _, idx := range groups {
		sort.SliceStable(idx, func(i, j int) bool {
			return out[idx[i]].Order < out[idx[j]].Order
		})
		for rank, i := range idx {
			out[i].Order = rank + 1
		}
	}
	return out
}

// AutoDayForDate returns the Day an attraction in country would get if it
// were dated date, ignoring the attraction excludeID (0 to exclude none).
// It returns 1 when date is empty or cannot be parsed.
func AutoDayForDate(attractions []core.Attraction, country, date string, excludeID int) int {
	d, err := core.ParseDate(date)
	if err != nil {
		return 1
	}
	dates := []core.Date{d}
	for _, a := range attractions {
		if a.Country != country || (excludeID != 0 && a.ID == excludeID) {
			continue
		}
		dates = append(dates, a.Date)
	}
	return dayRanks(dates)[DateKey(d)]
}

// NextOrderForDate returns 1 + the highest Order in the (country, date)
// group, or 1 when the group is empty or date is empty.
func NextOrderForDate(attractions []core.Attraction, country, date string, excludeID int) int {
	d, err := core.ParseDate(date)
	if err != nil {
		return 1
	}
	key := DateKey(d)
	highest := 0
	for _, a := range attractions {
		if a.Country != country || DateKey(a.Date) != key {
			continue
		}
		if excludeID != 0 && a.ID == excludeID {
			continue
		}
		if a.Order > highest {
			highest = a.Order
		}
	}
	return highest + 1
}
