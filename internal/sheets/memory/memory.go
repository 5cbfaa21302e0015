package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"viagem/internal/core"
	"viagem/internal/dashboard"
)

// Store is an in-process TripAPI. It keeps every collection as an ordered
// list of rows, the way the spreadsheet does, so ids behave identically.
type Store struct {
	mu           sync.Mutex
	budgets      []core.Budget
	expenses     map[string][]core.Expense
	attractions  map[string][]core.Attraction
	checklist    []core.ChecklistItem
	reservations []core.Reservation
}

// Seed is the JSON shape accepted by NewFromFile.
type Seed struct {
	Budgets      []core.Budget        `json:"budgets"`
	Expenses     []core.Expense       `json:"expenses"`
	Attractions  []core.Attraction    `json:"attractions"`
	Checklist    []core.ChecklistItem `json:"checklist"`
	Reservations []core.Reservation   `json:"reservations"`
}

func New() *Store {
	return &Store{
		expenses:    map[string][]core.Expense{},
		attractions: map[string][]core.Attraction{},
	}
}

// NewFromFile loads a seed file. A missing file yields an empty store.
// Ids in the file are ignored and reassigned by row position.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	s.Load(seed)
	return s, nil
}

// Load appends every entity of seed as new rows.
func (s *Store) Load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range seed.Budgets {
		s.budgets = appendRow(s.budgets, b)
	}
	for _, e := range seed.Expenses {
		e.Country = strings.TrimSpace(e.Country)
		s.expenses[e.Country] = appendRow(s.expenses[e.Country], e)
	}
	for _, a := range seed.Attractions {
		a.Country = strings.TrimSpace(a.Country)
		s.attractions[a.Country] = appendRow(s.attractions[a.Country], a)
	}
	for _, c := range seed.Checklist {
		s.checklist = appendRow(s.checklist, c)
	}
	for _, r := range seed.Reservations {
		s.reservations = appendRow(s.reservations, r)
	}
}

func appendRow[E core.Record[E]](rows []E, item E) []E {
	return append(rows, item.WithID(len(rows)+1))
}

func updateRow[E core.Record[E]](rows []E, item E) ([]E, error) {
	id := item.Identity()
	if id < 1 || id > len(rows) {
		return rows, fmt.Errorf("row %d: %w", id, core.ErrNotFound)
	}
	rows[id-1] = item
	return rows, nil
}

func deleteRow[E core.Record[E]](rows []E, id int) ([]E, error) {
	if id < 1 || id > len(rows) {
		return rows, fmt.Errorf("row %d: %w", id, core.ErrNotFound)
	}
	out := make([]E, 0, len(rows)-1)
	for _, r := range rows {
		switch {
		case r.Identity() == id:
		case r.Identity() > id:
			out = append(out, r.WithID(r.Identity()-1))
		default:
			out = append(out, r)
		}
	}
	return out, nil
}

func copyRows[E any](rows []E) []E {
	return append(make([]E, 0, len(rows)), rows...)
}

func (s *Store) GetBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.budgets), nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = appendRow(s.budgets, b)
	return s.budgets[len(s.budgets)-1], nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.budgets, err = updateRow(s.budgets, b)
	return b, err
}

func (s *Store) DeleteBudget(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.budgets, err = deleteRow(s.budgets, id)
	return err
}

func (s *Store) GetExpenses(_ context.Context, country string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.expenses[country]), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := appendRow(s.expenses[e.Country], e)
	s.expenses[e.Country] = rows
	return rows[len(rows)-1], nil
}

// UpdateExpense rewrites the row in place, or deletes it from the previous
// country and appends it to the new one when the country changed.
func (s *Store) UpdateExpense(_ context.Context, previous, updated core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return moveOrUpdate(s.expenses, previous.Country, updated.Country, previous.ID, updated)
}

func (s *Store) DeleteExpense(_ context.Context, country string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := deleteRow(s.expenses[country], id)
	if err != nil {
		return err
	}
	s.expenses[country] = rows
	return nil
}

func (s *Store) GetAttractions(_ context.Context, country string) ([]core.Attraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.attractions[country]), nil
}

func (s *Store) CreateAttraction(_ context.Context, a core.Attraction) (core.Attraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := appendRow(s.attractions[a.Country], a)
	s.attractions[a.Country] = rows
	return rows[len(rows)-1], nil
}

func (s *Store) UpdateAttraction(_ context.Context, previous, updated core.Attraction) (core.Attraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return moveOrUpdate(s.attractions, previous.Country, updated.Country, previous.ID, updated)
}

func (s *Store) DeleteAttraction(_ context.Context, country string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := deleteRow(s.attractions[country], id)
	if err != nil {
		return err
	}
	s.attractions[country] = rows
	return nil
}

func moveOrUpdate[E core.Record[E]](tabs map[string][]E, from, to string, id int, updated E) (E, error) {
	if from == to {
		rows, err := updateRow(tabs[to], updated.WithID(id))
		if err != nil {
			var zero E
			return zero, err
		}
		tabs[to] = rows
		return rows[id-1], nil
	}
	rows, err := deleteRow(tabs[from], id)
	if err != nil {
		var zero E
		return zero, err
	}
	tabs[from] = rows
	dest := appendRow(tabs[to], updated)
	tabs[to] = dest
	return dest[len(dest)-1], nil
}

func (s *Store) GetChecklistItems(_ context.Context) ([]core.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.checklist), nil
}

func (s *Store) CreateChecklistItem(_ context.Context, c core.ChecklistItem) (core.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checklist = appendRow(s.checklist, c)
	return s.checklist[len(s.checklist)-1], nil
}

func (s *Store) UpdateChecklistItem(_ context.Context, c core.ChecklistItem) (core.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.checklist, err = updateRow(s.checklist, c)
	return c, err
}

func (s *Store) DeleteChecklistItem(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.checklist, err = deleteRow(s.checklist, id)
	return err
}

func (s *Store) GetReservations(_ context.Context) ([]core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.reservations), nil
}

func (s *Store) CreateReservation(_ context.Context, r core.Reservation) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = appendRow(s.reservations, r)
	return s.reservations[len(s.reservations)-1], nil
}

func (s *Store) UpdateReservation(_ context.Context, r core.Reservation) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.reservations, err = updateRow(s.reservations, r)
	return r, err
}

func (s *Store) DeleteReservation(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	s.reservations, err = deleteRow(s.reservations, id)
	return err
}

// GetBudgetSummary recomputes the summary from the stored rows.
func (s *Store) GetBudgetSummary(_ context.Context) (core.BudgetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.Expense
	for _, country := range s.countriesLocked() {
		all = append(all, s.expenses[country]...)
	}
	return dashboard.ComputeSummary(s.budgets, all), nil
}

// ListCountries returns every country with at least one expense or
// attraction, sorted.
func (s *Store) ListCountries(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countriesLocked(), nil
}

func (s *Store) countriesLocked() []string {
	seen := map[string]struct{}{}
	for c, rows := range s.expenses {
		if len(rows) > 0 {
			seen[c] = struct{}{}
		}
	}
	for c, rows := range s.attractions {
		if len(rows) > 0 {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
