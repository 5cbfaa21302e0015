package dashboard

import "viagem/internal/core"

// Overview is everything the trip dashboard shows, computed in one pass
// over the collections the caller already holds.
type Overview struct {
	TotalBudget  float64                        `json:"totalBudget"`
	TotalSpent   float64                        `json:"totalSpent"`
	Remaining    float64                        `json:"remaining"`
	ByOrigin     []OriginBalance                `json:"byOrigin"`
	ByCategory   []CategoryTotal                `json:"byCategory"`
	ByCountry    []CountryTotal                 `json:"byCountry"`
	Attractions  AttractionStats                `json:"attractions"`
	DaysOfTrip   int                            `json:"daysOfTrip"`
	Checklist    ChecklistStats                 `json:"checklist"`
	Reservations map[core.ReservationStatus]int `json:"reservations"`
}

// Input groups the collections Overview reads.
type Input struct {
	Budgets      []core.Budget
	Expenses     []core.Expense
	Attractions  []core.Attraction
	Checklist    []core.ChecklistItem
	Reservations []core.Reservation
}

func BuildOverview(in Input) Overview {
	var totalBudget float64
	for _, b := range in.Budgets {
		totalBudget += b.Amount
	}
	spent := TotalSpent(in.Expenses)
	return Overview{
		TotalBudget:  totalBudget,
		TotalSpent:   spent,
		Remaining:    totalBudget - spent,
		ByOrigin:     BudgetByOrigin(in.Budgets, in.Expenses),
		ByCategory:   ExpensesByCategory(in.Expenses),
		ByCountry:    SpentByCountry(in.Expenses),
		Attractions:  AttractionStatus(in.Attractions),
		DaysOfTrip:   DaysOfTrip(in.Attractions),
		Checklist:    ChecklistProgress(in.Checklist),
		Reservations: ReservationsByStatus(in.Reservations),
	}
}
