package sheets

import (
	"context"

	"viagem/internal/core"
)

// Ports for outbound adapters. Ids are row positions inside the collection
// (or inside the country tab for expenses and attractions), so a delete
// shifts every later id down by one.
type (
	BudgetAPI interface {
		GetBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int) error
	}

	// ExpenseAPI stores expenses per country. UpdateExpense receives the
	// stored version so it can move the row when the country changes; the
	// returned expense carries its id in the new country.
	ExpenseAPI interface {
		GetExpenses(ctx context.Context, country string) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, previous, updated core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, country string, id int) error
	}

	AttractionAPI interface {
		GetAttractions(ctx context.Context, country string) ([]core.Attraction, error)
		CreateAttraction(ctx context.Context, a core.Attraction) (core.Attraction, error)
		UpdateAttraction(ctx context.Context, previous, updated core.Attraction) (core.Attraction, error)
		DeleteAttraction(ctx context.Context, country string, id int) error
	}

	ChecklistAPI interface {
		GetChecklistItems(ctx context.Context) ([]core.ChecklistItem, error)
		CreateChecklistItem(ctx context.Context, c core.ChecklistItem) (core.ChecklistItem, error)
		UpdateChecklistItem(ctx context.Context, c core.ChecklistItem) (core.ChecklistItem, error)
		DeleteChecklistItem(ctx context.Context, id int) error
	}

	ReservationAPI interface {
		GetReservations(ctx context.Context) ([]core.Reservation, error)
		CreateReservation(ctx context.Context, r core.Reservation) (core.Reservation, error)
		UpdateReservation(ctx context.Context, r core.Reservation) (core.Reservation, error)
		DeleteReservation(ctx context.Context, id int) error
	}

	// SummaryReader returns the authoritative budget summary.
	SummaryReader interface {
		GetBudgetSummary(ctx context.Context) (core.BudgetSummary, error)
	}

	// CountryLister lists the countries that currently hold expenses or
	// attractions.
	CountryLister interface {
		ListCountries(ctx context.Context) ([]string, error)
	}

	// TripAPI is the full remote surface the cache layer talks to.
	TripAPI interface {
		BudgetAPI
		ExpenseAPI
		AttractionAPI
		ChecklistAPI
		ReservationAPI
		SummaryReader
		CountryLister
	}
)
