package services

import "viagem/internal/core"

// SummaryOptions selects between the two known expense-update behaviours.
type SummaryOptions struct {
	// LegacyExpenseOrigin applies an expense update's amount diff to the
	// previous origin only, even when BudgetOrigin changed. The default
	// moves the spend to the new origin, which is what a full recompute
	// produces.
	LegacyExpenseOrigin bool
}

// The Apply* functions patch a summary for one confirmed mutation. They
// return false when the mutation does not affect the summary, in which case
// the cached value must be kept as-is. Inputs are never modified.

func ApplyBudgetCreate(s core.BudgetSummary, b core.Budget) (core.BudgetSummary, bool) {
	out := s.Clone()
	out.TotalBudget += b.Amount
	out.RemainingBalance += b.Amount
	addBudget(out.ByOrigin, b.Origin, b.Amount)
	return out, true
}

func ApplyBudgetUpdate(s core.BudgetSummary, previous, updated core.Budget) (core.BudgetSummary, bool) {
	diff := updated.Amount - previous.Amount
	if diff == 0 && previous.Origin == updated.Origin {
		return s, false
	}

	out := s.Clone()
	out.TotalBudget += diff
	out.RemainingBalance += diff

	if previous.Origin == updated.Origin {
		addBudget(out.ByOrigin, updated.Origin, diff)
		return out, true
	}
	if _, ok := out.ByOrigin[previous.Origin]; ok {
		addBudget(out.ByOrigin, previous.Origin, -previous.Amount)
	}
	addBudget(out.ByOrigin, updated.Origin, updated.Amount)
	return out, true
}

// ApplyBudgetDelete is a no-op when the budget's origin has no entry: there
// is no aggregate to subtract from.
func ApplyBudgetDelete(s core.BudgetSummary, b core.Budget) (core.BudgetSummary, bool) {
	if _, ok := s.ByOrigin[b.Origin]; !ok {
		return s, false
	}
	out := s.Clone()
	out.TotalBudget -= b.Amount
	out.RemainingBalance -= b.Amount
	addBudget(out.ByOrigin, b.Origin, -b.Amount)
	return out, true
}

func ApplyExpenseCreate(s core.BudgetSummary, e core.Expense) (core.BudgetSummary, bool) {
	out := s.Clone()
	out.TotalSpent += e.AmountInBRL
	out.RemainingBalance -= e.AmountInBRL
	addSpent(out.ByOrigin, e.BudgetOrigin, e.AmountInBRL)
	return out, true
}

func ApplyExpenseUpdate(s core.BudgetSummary, previous, updated core.Expense, opts SummaryOptions) (core.BudgetSummary, bool) {
	diff := updated.AmountInBRL - previous.AmountInBRL
	originChanged := previous.BudgetOrigin != updated.BudgetOrigin

	if opts.LegacyExpenseOrigin || !originChanged {
		if diff == 0 {
			return s, false
		}
		out := s.Clone()
		out.TotalSpent += diff
		out.RemainingBalance -= diff
		if _, ok := out.ByOrigin[previous.BudgetOrigin]; ok {
			addSpent(out.ByOrigin, previous.BudgetOrigin, diff)
		}
		return out, true
	}

	out := s.Clone()
	out.TotalSpent += diff
	out.RemainingBalance -= diff
	if _, ok := out.ByOrigin[previous.BudgetOrigin]; ok {
		addSpent(out.ByOrigin, previous.BudgetOrigin, -previous.AmountInBRL)
	}
	addSpent(out.ByOrigin, updated.BudgetOrigin, updated.AmountInBRL)
	return out, true
}

// ApplyExpenseDelete is a no-op when the expense's origin has no entry.
func ApplyExpenseDelete(s core.BudgetSummary, e core.Expense) (core.BudgetSummary, bool) {
	if _, ok := s.ByOrigin[e.BudgetOrigin]; !ok {
		return s, false
	}
	out := s.Clone()
	out.TotalSpent -= e.AmountInBRL
	out.RemainingBalance += e.AmountInBRL
	addSpent(out.ByOrigin, e.BudgetOrigin, -e.AmountInBRL)
	return out, true
}

// addBudget creates a zero entry for origin when missing.
func addBudget(byOrigin map[string]core.Totals, origin string, amount float64) {
	t := byOrigin[origin]
	t.TotalBudget += amount
	t.RemainingBalance += amount
	byOrigin[origin] = t
}

// addSpent creates a zero entry for origin when missing.
func addSpent(byOrigin map[string]core.Totals, origin string, amount float64) {
	t := byOrigin[origin]
	t.TotalSpent += amount
	t.RemainingBalance -= amount
	byOrigin[origin] = t
}
