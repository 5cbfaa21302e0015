package services

import (
	"log/slog"

	"viagem/internal/cache"
	"viagem/internal/core"
)

// SummaryCache patches the cached BudgetSummary after budget and expense
// mutations. Every method is a no-op until a fetch has populated the summary.
type SummaryCache struct {
	store  cache.Store
	key    cache.Key
	opts   SummaryOptions
	logger *slog.Logger
}

func NewSummaryCache(store cache.Store, opts SummaryOptions, logger *slog.Logger) *SummaryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryCache{
		store:  store,
		key:    cache.BudgetSummaryKey(),
		opts:   opts,
		logger: logger.With("cache_key", cache.BudgetSummaryKey().String()),
	}
}

func (c *SummaryCache) Snapshot() (core.BudgetSummary, bool) {
	return cache.Lookup[core.BudgetSummary](c.store, c.key)
}

func (c *SummaryCache) Replace(s core.BudgetSummary) {
	if s.ByOrigin == nil {
		s.ByOrigin = map[string]core.Totals{}
	}
	c.store.Set(c.key, s)
}

func (c *SummaryCache) patch(op string, apply func(core.BudgetSummary) (core.BudgetSummary, bool)) {
	cache.Mutate(c.store, c.key, func(old core.BudgetSummary, ok bool) (core.BudgetSummary, bool) {
		if !ok {
			c.logger.Debug("Budget summary not cached, skipping patch", "operation", op)
			return old, false
		}
		return apply(old)
	})
}

func (c *SummaryCache) AfterBudgetCreate(b core.Budget) {
	c.patch("budget_create", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyBudgetCreate(s, b)
	})
}

func (c *SummaryCache) AfterBudgetUpdate(previous, updated core.Budget) {
	c.patch("budget_update", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyBudgetUpdate(s, previous, updated)
	})
}

func (c *SummaryCache) AfterBudgetDelete(b core.Budget) {
	c.patch("budget_delete", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyBudgetDelete(s, b)
	})
}

func (c *SummaryCache) AfterExpenseCreate(e core.Expense) {
	c.patch("expense_create", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyExpenseCreate(s, e)
	})
}

func (c *SummaryCache) AfterExpenseUpdate(previous, updated core.Expense) {
	c.patch("expense_update", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyExpenseUpdate(s, previous, updated, c.opts)
	})
}

func (c *SummaryCache) AfterExpenseDelete(e core.Expense) {
	c.patch("expense_delete", func(s core.BudgetSummary) (core.BudgetSummary, bool) {
		return ApplyExpenseDelete(s, e)
	})
}
