package services

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/dashboard"
)

const tolerance = 1e-6

func emptySummary() core.BudgetSummary {
	return core.BudgetSummary{ByOrigin: map[string]core.Totals{}}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

// assertSummaryMatches compares an incrementally patched summary with a full
// recompute. Origins present on one side only must be all-zero.
func assertSummaryMatches(t *testing.T, got, want core.BudgetSummary) {
	t.Helper()
	if !near(got.TotalBudget, want.TotalBudget) || !near(got.TotalSpent, want.TotalSpent) || !near(got.RemainingBalance, want.RemainingBalance) {
		t.Fatalf("grand totals differ: got %+v want %+v", got, want)
	}
	origins := map[string]struct{}{}
	for o := range got.ByOrigin {
		origins[o] = struct{}{}
	}
	for o := range want.ByOrigin {
		origins[o] = struct{}{}
	}
	for o := range origins {
		g, w := got.ByOrigin[o], want.ByOrigin[o]
		if !near(g.TotalBudget, w.TotalBudget) || !near(g.TotalSpent, w.TotalSpent) || !near(g.RemainingBalance, w.RemainingBalance) {
			t.Fatalf("origin %q differs: got %+v want %+v", o, g, w)
		}
	}
}

func assertBalanced(t *testing.T, s core.BudgetSummary) {
	t.Helper()
	if !near(s.RemainingBalance, s.TotalBudget-s.TotalSpent) {
		t.Fatalf("grand balance broken: %+v", s)
	}
	for o, v := range s.ByOrigin {
		if !near(v.RemainingBalance, v.TotalBudget-v.TotalSpent) {
			t.Fatalf("origin %q balance broken: %+v", o, v)
		}
	}
}

func TestApplyBudgetCreateScenario(t *testing.T) {
	s := core.BudgetSummary{
		TotalBudget:      1000,
		RemainingBalance: 1000,
		ByOrigin:         map[string]core.Totals{"Casal": {TotalBudget: 1000, RemainingBalance: 1000}},
	}
	got, ok := ApplyBudgetCreate(s, core.Budget{Origin: "Casal", Amount: 500})
	want := core.BudgetSummary{
		TotalBudget:      1500,
		RemainingBalance: 1500,
		ByOrigin:         map[string]core.Totals{"Casal": {TotalBudget: 1500, RemainingBalance: 1500}},
	}
	if !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if s.ByOrigin["Casal"].TotalBudget != 1000 {
		t.Fatal("input summary was modified")
	}
}

func TestApplyBudgetUpdate(t *testing.T) {
	base := dashboard.ComputeSummary(
		[]core.Budget{{ID: 1, Origin: "Casal", Amount: 1000}, {ID: 2, Origin: "Hugo", Amount: 200}},
		[]core.Expense{{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 100}},
	)

	tests := []struct {
		name    string
		prev    core.Budget
		updated core.Budget
		after   []core.Budget
	}{
		{
			name:    "amount only",
			prev:    core.Budget{ID: 1, Origin: "Casal", Amount: 1000},
			updated: core.Budget{ID: 1, Origin: "Casal", Amount: 1250},
			after:   []core.Budget{{ID: 1, Origin: "Casal", Amount: 1250}, {ID: 2, Origin: "Hugo", Amount: 200}},
		},
		{
			name:    "origin only",
			prev:    core.Budget{ID: 1, Origin: "Casal", Amount: 1000},
			updated: core.Budget{ID: 1, Origin: "Hugo", Amount: 1000},
			after:   []core.Budget{{ID: 1, Origin: "Hugo", Amount: 1000}, {ID: 2, Origin: "Hugo", Amount: 200}},
		},
		{
			name:    "origin and amount",
			prev:    core.Budget{ID: 2, Origin: "Hugo", Amount: 200},
			updated: core.Budget{ID: 2, Origin: "Ana", Amount: 350},
			after:   []core.Budget{{ID: 1, Origin: "Casal", Amount: 1000}, {ID: 2, Origin: "Ana", Amount: 350}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ApplyBudgetUpdate(base, tt.prev, tt.updated)
			if !ok {
				t.Fatal("expected a patch")
			}
			want := dashboard.ComputeSummary(tt.after, []core.Expense{{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 100}})
			assertSummaryMatches(t, got, want)
			assertBalanced(t, got)
		})
	}
}

func TestZeroDeltaUpdatesAreSkipped(t *testing.T) {
	store := cache.NewMemoryStore(10, 0)
	sc := NewSummaryCache(store, SummaryOptions{}, nil)
	s := dashboard.ComputeSummary(
		[]core.Budget{{ID: 1, Origin: "Casal", Amount: 1000}},
		[]core.Expense{{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 100}},
	)
	sc.Replace(s)
	before, _ := store.Get(cache.BudgetSummaryKey())

	b := core.Budget{ID: 1, Origin: "Casal", Amount: 1000, Description: "old"}
	b2 := b
	b2.Description = "new"
	if _, ok := ApplyBudgetUpdate(s, b, b2); ok {
		t.Fatal("budget update without amount/origin change should be skipped")
	}
	sc.AfterBudgetUpdate(b, b2)

	e := core.Expense{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 100, Amount: 20, Currency: "EUR"}
	e2 := e
	e2.Notes = "jantar"
	if _, ok := ApplyExpenseUpdate(s, e, e2, SummaryOptions{}); ok {
		t.Fatal("expense update without diff should be skipped")
	}
	sc.AfterExpenseUpdate(e, e2)

	after, _ := store.Get(cache.BudgetSummaryKey())
	if !after.UpdatedAt.Equal(before.UpdatedAt) || !reflect.DeepEqual(after.Value, before.Value) {
		t.Fatal("skipped patches must leave the cached summary untouched")
	}
}

func TestApplyExpenseUpdateOriginChange(t *testing.T) {
	budgets := []core.Budget{{ID: 1, Origin: "Casal", Amount: 1000}, {ID: 2, Origin: "Hugo", Amount: 500}}
	prev := core.Expense{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 100}
	updated := core.Expense{ID: 1, BudgetOrigin: "Hugo", AmountInBRL: 150}
	base := dashboard.ComputeSummary(budgets, []core.Expense{prev})

	got, ok := ApplyExpenseUpdate(base, prev, updated, SummaryOptions{})
	if !ok {
		t.Fatal("expected a patch")
	}
	assertSummaryMatches(t, got, dashboard.ComputeSummary(budgets, []core.Expense{updated}))

	legacy, ok := ApplyExpenseUpdate(base, prev, updated, SummaryOptions{LegacyExpenseOrigin: true})
	if !ok {
		t.Fatal("expected a legacy patch")
	}
	if legacy.ByOrigin["Casal"].TotalSpent != 150 || legacy.ByOrigin["Hugo"].TotalSpent != 0 {
		t.Fatalf("legacy behaviour should charge the diff to the previous origin, got %+v", legacy.ByOrigin)
	}
	assertBalanced(t, legacy)

	// Moving spend without changing the amount still moves it.
	same := updated
	same.AmountInBRL = 100
	moved, ok := ApplyExpenseUpdate(base, prev, same, SummaryOptions{})
	if !ok || moved.ByOrigin["Casal"].TotalSpent != 0 || moved.ByOrigin["Hugo"].TotalSpent != 100 {
		t.Fatalf("unexpected move result %+v ok=%v", moved.ByOrigin, ok)
	}
	if _, ok := ApplyExpenseUpdate(base, prev, same, SummaryOptions{LegacyExpenseOrigin: true}); ok {
		t.Fatal("legacy behaviour skips zero diffs even across origins")
	}
}

func TestDeletesSkipMissingOrigins(t *testing.T) {
	s := core.BudgetSummary{TotalBudget: 100, TotalSpent: 30, RemainingBalance: 70, ByOrigin: map[string]core.Totals{
		"Casal": {TotalBudget: 100, TotalSpent: 30, RemainingBalance: 70},
	}}

	tests := []struct {
		name  string
		apply func() (core.BudgetSummary, bool)
	}{
		{"budget", func() (core.BudgetSummary, bool) {
			return ApplyBudgetDelete(s, core.Budget{Origin: "Ghost", Amount: 40})
		}},
		{"expense", func() (core.BudgetSummary, bool) {
			return ApplyExpenseDelete(s, core.Expense{BudgetOrigin: "Ghost", AmountInBRL: 10})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.apply()
			if ok {
				t.Fatal("delete for an origin without an entry should be skipped")
			}
			if !reflect.DeepEqual(got, s) {
				t.Fatalf("summary changed: %+v", got)
			}
		})
	}

	got, ok := ApplyExpenseDelete(s, core.Expense{BudgetOrigin: "Casal", AmountInBRL: 10})
	if !ok || got.TotalSpent != 20 || got.ByOrigin["Casal"].TotalSpent != 20 {
		t.Fatalf("delete for a known origin should apply, got %+v", got)
	}
	assertBalanced(t, got)
}

func TestSummaryCacheIsNoopWhenAbsent(t *testing.T) {
	store := cache.NewMemoryStore(10, 0)
	sc := NewSummaryCache(store, SummaryOptions{}, nil)

	sc.AfterBudgetCreate(core.Budget{ID: 1, Origin: "Casal", Amount: 10})
	sc.AfterExpenseCreate(core.Expense{ID: 1, BudgetOrigin: "Casal", AmountInBRL: 5})
	sc.AfterBudgetDelete(core.Budget{ID: 1, Origin: "Casal", Amount: 10})

	if _, ok := sc.Snapshot(); ok {
		t.Fatal("patches must not create the summary")
	}
}

// TestIncrementalSummaryMatchesRecompute drives random budget and expense
// mutations and checks the patched summary against ComputeSummary after
// every step.
func TestIncrementalSummaryMatchesRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	origins := []string{"Casal", "Hugo", "Ana", "Reserva"}
	amount := func() float64 { return float64(rng.Intn(200000)) / 100 }

	store := cache.NewMemoryStore(10, 0)
	sc := NewSummaryCache(store, SummaryOptions{}, nil)
	sc.Replace(emptySummary())

	var bs []core.Budget
	var es []core.Expense

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(6); {
		case op == 0 || len(bs) == 0:
			b := core.Budget{ID: len(bs) + 1, Origin: origins[rng.Intn(len(origins))], Amount: amount()}
			bs = AppendCreated(bs, b)
			sc.AfterBudgetCreate(b)
		case op == 1:
			prev := bs[rng.Intn(len(bs))]
			next := prev
			if rng.Intn(2) == 0 {
				next.Amount = amount()
			}
			if rng.Intn(2) == 0 {
				next.Origin = origins[rng.Intn(len(origins))]
			}
			bs = ReplaceUpdated(bs, prev, next)
			sc.AfterBudgetUpdate(prev, next)
		case op == 2:
			victim := bs[rng.Intn(len(bs))]
			bs = RemoveAndRenumber(bs, victim.ID)
			sc.AfterBudgetDelete(victim)
		case op == 3 || len(es) == 0:
			e := core.Expense{ID: len(es) + 1, BudgetOrigin: origins[rng.Intn(len(origins))], AmountInBRL: amount()}
			es = AppendCreated(es, e)
			sc.AfterExpenseCreate(e)
		case op == 4:
			prev := es[rng.Intn(len(es))]
			next := prev
			if rng.Intn(2) == 0 {
				next.AmountInBRL = amount()
			}
			if rng.Intn(2) == 0 {
				next.BudgetOrigin = origins[rng.Intn(len(origins))]
			}
			es = ReplaceUpdated(es, prev, next)
			sc.AfterExpenseUpdate(prev, next)
		default:
			victim := es[rng.Intn(len(es))]
			es = RemoveAndRenumber(es, victim.ID)
			sc.AfterExpenseDelete(victim)
		}

		got, ok := sc.Snapshot()
		if !ok {
			t.Fatalf("step %d: summary disappeared", step)
		}
		assertBalanced(t, got)
		assertSummaryMatches(t, got, dashboard.ComputeSummary(bs, es))
	}

	// Budget origins also agree with the dashboard view.
	got, _ := sc.Snapshot()
	for _, ob := range dashboard.BudgetByOrigin(bs, es) {
		t2 := got.ByOrigin[ob.Origin]
		if !near(t2.TotalBudget, ob.TotalBudget) || !near(t2.TotalSpent, ob.Spent) || !near(t2.RemainingBalance, ob.Remaining) {
			t.Fatalf("origin %q: summary %+v vs dashboard %+v", ob.Origin, t2, ob)
		}
	}
}
