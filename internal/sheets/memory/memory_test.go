package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"viagem/internal/core"
)

func TestStoreAssignsRowIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, origin := range []string{"Casal", "Hugo", "Ana"} {
		if _, err := s.CreateBudget(ctx, core.Budget{ID: 99, Origin: origin, Amount: 100}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.DeleteBudget(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := s.GetBudgets(ctx)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 || got[1].Origin != "Ana" {
		t.Fatalf("unexpected rows %+v", got)
	}

	if err := s.DeleteBudget(ctx, 5); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateBudget(ctx, core.Budget{ID: 0}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateChecklistItem(ctx, core.ChecklistItem{Description: "Passaporte"})
	items, _ := s.GetChecklistItems(ctx)
	items[0].Description = "changed"
	again, _ := s.GetChecklistItems(ctx)
	if again[0].Description != "Passaporte" {
		t.Fatal("caller mutated stored rows")
	}
}

func TestUpdateExpenseMovesBetweenCountries(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, d := range []string{"a", "b", "c"} {
		s.CreateExpense(ctx, core.Expense{Description: d, Country: "Itália", AmountInBRL: 10})
	}
	s.CreateExpense(ctx, core.Expense{Description: "x", Country: "França", AmountInBRL: 10})

	prev := core.Expense{ID: 2, Description: "b", Country: "Itália", AmountInBRL: 10}
	moved := prev
	moved.Country = "França"
	got, err := s.UpdateExpense(ctx, prev, moved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != 2 || got.Country != "França" {
		t.Fatalf("unexpected moved expense %+v", got)
	}

	it, _ := s.GetExpenses(ctx, "Itália")
	if len(it) != 2 || it[1].ID != 2 || it[1].Description != "c" {
		t.Fatalf("old tab not renumbered: %+v", it)
	}
	fr, _ := s.GetExpenses(ctx, "França")
	if len(fr) != 2 || fr[1].Description != "b" {
		t.Fatalf("new tab missing moved row: %+v", fr)
	}
}

func TestUpdateAttractionInPlace(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateAttraction(ctx, core.Attraction{Name: "Coliseu", Country: "Itália"})
	s.CreateAttraction(ctx, core.Attraction{Name: "Fórum", Country: "Itália"})

	prev := core.Attraction{ID: 2, Name: "Fórum", Country: "Itália"}
	upd := prev
	upd.Visited = true
	got, err := s.UpdateAttraction(ctx, prev, upd)
	if err != nil || got.ID != 2 || !got.Visited {
		t.Fatalf("unexpected update result %+v err=%v", got, err)
	}
	countries, _ := s.ListCountries(ctx)
	if len(countries) != 1 || countries[0] != "Itália" {
		t.Fatalf("unexpected countries %v", countries)
	}
}

func TestGetBudgetSummary(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateBudget(ctx, core.Budget{Origin: "Casal", Amount: 1000})
	s.CreateExpense(ctx, core.Expense{BudgetOrigin: "Casal", Country: "Itália", AmountInBRL: 100})
	s.CreateExpense(ctx, core.Expense{BudgetOrigin: "Casal", Country: "França", AmountInBRL: 50})

	sum, err := s.GetBudgetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalSpent != 150 || sum.RemainingBalance != 850 || sum.ByOrigin["Casal"].RemainingBalance != 850 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should give an empty store: %v", err)
	}
	if b, _ := s.GetBudgets(context.Background()); len(b) != 0 {
		t.Fatalf("expected empty store, got %+v", b)
	}

	path := filepath.Join(dir, "seed.json")
	seed := `{
		"budgets": [{"id": 7, "origin": "Casal", "amount": 500, "date": "2025-05-01"}],
		"attractions": [
			{"name": "Coliseu", "country": " Itália ", "date": "10/05/2025"},
			{"name": "Louvre", "country": "França"}
		]
	}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, _ := s.GetBudgets(context.Background())
	if len(b) != 1 || b[0].ID != 1 {
		t.Fatalf("seed ids should be reassigned, got %+v", b)
	}
	it, _ := s.GetAttractions(context.Background(), "Itália")
	if len(it) != 1 || it[0].Date.Key() != "2025-05-10" {
		t.Fatalf("unexpected attractions %+v", it)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}
