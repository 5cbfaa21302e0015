package core

// Totals is the budget/spend balance of one origin.
type Totals struct {
	TotalBudget      float64 `json:"totalBudget"`
	TotalSpent       float64 `json:"totalSpent"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// BudgetSummary aggregates budgets and expenses, split by budget origin.
// RemainingBalance equals TotalBudget - TotalSpent for the grand total and
// for every ByOrigin entry.
type BudgetSummary struct {
	TotalBudget      float64           `json:"totalBudget"`
	TotalSpent       float64           `json:"totalSpent"`
	RemainingBalance float64           `json:"remainingBalance"`
	ByOrigin         map[string]Totals `json:"byOrigin"`
}

// Clone returns a copy that shares no map with s.
func (s BudgetSummary) Clone() BudgetSummary {
	out := s
	out.ByOrigin = make(map[string]Totals, len(s.ByOrigin))
	for k, v := range s.ByOrigin {
		out.ByOrigin[k] = v
	}
	return out
}

// Origin returns the totals for origin, zero-valued when absent.
func (s BudgetSummary) Origin(origin string) (Totals, bool) {
	t, ok := s.ByOrigin[origin]
	return t, ok
}
