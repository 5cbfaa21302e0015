// Package dashboard computes trip statistics from full collections.
//
// These functions are the ground truth: the incremental summary patches in
// package services must agree with ComputeSummary run over the same data.
package dashboard

import (
	"viagem/internal/core"
)

// CategoryTotal is the spend of one expense category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// OriginBalance is the budget position of one budget origin.
type OriginBalance struct {
	Origin      string  `json:"origin"`
	TotalBudget float64 `json:"totalBudget"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
}

// AttractionStats counts attractions by progress.
type AttractionStats struct {
	Total              int `json:"total"`
	Visited            int `json:"visited"`
	PendingReservation int `json:"pendingReservation"`
}

// ChecklistStats counts packed checklist items.
type ChecklistStats struct {
	Total  int `json:"total"`
	Packed int `json:"packed"`
}

// CountryTotal is the spend recorded against one country.
type CountryTotal struct {
	Country string  `json:"country"`
	Total   float64 `json:"total"`
}

// TotalSpent sums AmountInBRL.
func TotalSpent(expenses []core.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.AmountInBRL
	}
	return total
}

// ExpensesByCategory sums AmountInBRL per category, in first-seen order.
func ExpensesByCategory(expenses []core.Expense) []CategoryTotal {
	idx := map[string]int{}
	var out []CategoryTotal
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total += e.AmountInBRL
	}
	return out
}

// SpentByCountry sums AmountInBRL per country, in first-seen order.
func SpentByCountry(expenses []core.Expense) []CountryTotal {
	idx := map[string]int{}
	var out []CountryTotal
	for _, e := range expenses {
		i, ok := idx[e.Country]
		if !ok {
			i = len(out)
			idx[e.Country] = i
			out = append(out, CountryTotal{Country: e.Country})
		}
		out[i].Total += e.AmountInBRL
	}
	return out
}

// BudgetByOrigin returns one balance per origin that has at least one
// budget, in first-seen budget order. Spend against origins without a
// budget is left out.
func BudgetByOrigin(budgets []core.Budget, expenses []core.Expense) []OriginBalance {
	idx := map[string]int{}
	var out []OriginBalance
	for _, b := range budgets {
		i, ok := idx[b.Origin]
		if !ok {
			i = len(out)
			idx[b.Origin] = i
			out = append(out, OriginBalance{Origin: b.Origin})
		}
		out[i].TotalBudget += b.Amount
	}

	spent := map[string]float64{}
	for _, e := range expenses {
		spent[e.BudgetOrigin] += e.AmountInBRL
	}
	for i := range out {
		out[i].Spent = spent[out[i].Origin]
		out[i].Remaining = out[i].TotalBudget - out[i].Spent
	}
	return out
}

// ComputeSummary builds a BudgetSummary from scratch. Unlike BudgetByOrigin
// it keeps origins that only have expenses, since the incremental patches
// create entries for them too.
func ComputeSummary(budgets []core.Budget, expenses []core.Expense) core.BudgetSummary {
	s := core.BudgetSummary{ByOrigin: map[string]core.Totals{}}
	for _, b := range budgets {
		t := s.ByOrigin[b.Origin]
		t.TotalBudget += b.Amount
		s.ByOrigin[b.Origin] = t
		s.TotalBudget += b.Amount
	}
	for _, e := range expenses {
		t := s.ByOrigin[e.BudgetOrigin]
		t.TotalSpent += e.AmountInBRL
		s.ByOrigin[e.BudgetOrigin] = t
		s.TotalSpent += e.AmountInBRL
	}
	for origin, t := range s.ByOrigin {
		t.RemainingBalance = t.TotalBudget - t.TotalSpent
		s.ByOrigin[origin] = t
	}
	s.RemainingBalance = s.TotalBudget - s.TotalSpent
	return s
}

func AttractionStatus(attractions []core.Attraction) AttractionStats {
	stats := AttractionStats{Total: len(attractions)}
	for _, a := range attractions {
		if a.Visited {
			stats.Visited++
		}
		if a.PendingReservation() {
			stats.PendingReservation++
		}
	}
	return stats
}

// DaysOfTrip is the inclusive number of calendar days between the earliest
// and the latest attraction date, or 0 when no attraction has a date.
func DaysOfTrip(attractions []core.Attraction) int {
	var first, last core.Date
	for _, a := range attractions {
		if a.Date.IsEmpty() {
			continue
		}
		if first.IsEmpty() || a.Date.Before(first.Time) {
			first = a.Date
		}
		if last.IsEmpty() || a.Date.After(last.Time) {
			last = a.Date
		}
	}
	if first.IsEmpty() {
		return 0
	}
	return core.DaysBetween(first, last) + 1
}

func ChecklistProgress(items []core.ChecklistItem) ChecklistStats {
	stats := ChecklistStats{Total: len(items)}
	for _, it := range items {
		if it.IsPacked {
			stats.Packed++
		}
	}
	return stats
}

// ReservationsByStatus counts reservations per status.
func ReservationsByStatus(reservations []core.Reservation) map[core.ReservationStatus]int {
	out := map[core.ReservationStatus]int{}
	for _, r := range reservations {
		out[r.Status]++
	}
	return out
}
