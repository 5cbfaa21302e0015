package cache

// Kinds of cached collections. Each kind (plus partition) owns one key.
const (
	KindBudgets       = "budgets"
	KindExpenses      = "expenses"
	KindAttractions   = "attractions"
	KindChecklist     = "checklist"
	KindReservations  = "reservations"
	KindBudgetSummary = "budget-summary"
)

func BudgetsKey() Key       { return NewKey(KindBudgets) }
func ChecklistKey() Key     { return NewKey(KindChecklist) }
func ReservationsKey() Key  { return NewKey(KindReservations) }
func BudgetSummaryKey() Key { return NewKey(KindBudgetSummary) }

// ExpensesKey is partitioned by country.
func ExpensesKey(country string) Key { return NewKey(KindExpenses, country) }

// AttractionsKey is partitioned by country.
func AttractionsKey(country string) Key { return NewKey(KindAttractions, country) }
