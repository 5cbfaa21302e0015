package services

import (
	"reflect"
	"testing"

	"viagem/internal/cache"
	"viagem/internal/core"
)

func budgets(ids ...int) []core.Budget {
	out := make([]core.Budget, len(ids))
	for i, id := range ids {
		out[i] = core.Budget{ID: id, Origin: "Casal", Description: string(rune('a' + id)), Amount: float64(id * 100)}
	}
	return out
}

func ids[E core.Record[E]](items []E) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Identity()
	}
	return out
}

func TestRemoveAndRenumberKeepsIdsDense(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for k := 1; k <= n; k++ {
			seq := make([]int, n)
			for i := range seq {
				seq[i] = i + 1
			}
			old := budgets(seq...)
			got := RemoveAndRenumber(old, k)

			if len(got) != n-1 {
				t.Fatalf("n=%d k=%d: expected %d items, got %d", n, k, n-1, len(got))
			}
			for i, b := range got {
				if b.ID != i+1 {
					t.Fatalf("n=%d k=%d: ids not dense: %v", n, k, ids(got))
				}
				// Each survivor keeps its payload; only ids > k moved down.
				origID := b.ID
				if origID >= k {
					origID++
				}
				if b.Description != old[origID-1].Description {
					t.Fatalf("n=%d k=%d: entity %d has wrong payload", n, k, b.ID)
				}
			}
			if old[n-1].ID != n {
				t.Fatal("input slice was modified")
			}
		}
	}
}

func TestRemoveAndRenumberScenario(t *testing.T) {
	old := budgets(1, 2, 3)
	got := RemoveAndRenumber(old, 2)
	if !reflect.DeepEqual(ids(got), []int{1, 2}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
	if got[1].Description != old[2].Description {
		t.Fatalf("former id 3 should now be id 2, got %+v", got[1])
	}
	if got := RemoveAndRenumber[core.Budget](nil, 1); got == nil || len(got) != 0 {
		t.Fatalf("absent collection should become empty, got %#v", got)
	}
}

func TestAppendCreated(t *testing.T) {
	old := budgets(1, 2)
	created := core.Budget{ID: 3, Origin: "Hugo", Amount: 50}
	got := AppendCreated(old, created)

	if len(got) != 3 || !reflect.DeepEqual(got[:2], old) || got[2] != created {
		t.Fatalf("unexpected result %+v", got)
	}
	if got := AppendCreated(nil, created); len(got) != 1 || got[0] != created {
		t.Fatalf("absent collection should become [created], got %+v", got)
	}

	// Appending must not write into spare capacity of the old snapshot.
	base := make([]core.Budget, 1, 4)
	base[0] = core.Budget{ID: 1}
	a := AppendCreated(base, core.Budget{ID: 2})
	b := AppendCreated(base, core.Budget{ID: 9})
	if a[1].ID != 2 || b[1].ID != 9 {
		t.Fatal("snapshots share a backing array")
	}
}

func TestReplaceUpdated(t *testing.T) {
	old := budgets(1, 2, 3)
	updated := old[1]
	updated.Amount = 999

	got := ReplaceUpdated(old, old[1], updated)
	for i := range got {
		if i == 1 {
			if got[i] != updated {
				t.Fatalf("entry not replaced: %+v", got[i])
			}
			continue
		}
		if got[i] != old[i] {
			t.Fatalf("entry %d changed: %+v", i, got[i])
		}
	}
	if old[1].Amount == 999 {
		t.Fatal("input slice was modified")
	}

	missing := core.Budget{ID: 42}
	if got := ReplaceUpdated(old, missing, missing); !reflect.DeepEqual(got, old) {
		t.Fatalf("unknown id should be a no-op, got %+v", got)
	}
	if got := ReplaceUpdated(nil, missing, updated); len(got) != 1 || got[0] != updated {
		t.Fatalf("absent collection should become [updated], got %+v", got)
	}
}

func TestEntityCacheLifecycle(t *testing.T) {
	store := cache.NewMemoryStore(100, 0)
	c := NewEntityCache[core.ChecklistItem](store, cache.ChecklistKey(), nil)

	if _, ok := c.Snapshot(); ok {
		t.Fatal("cache should start empty")
	}

	c.Replace([]core.ChecklistItem{
		{ID: 1, Description: "Passaporte"},
		{ID: 2, Description: "Adaptador"},
	})
	c.OnCreate(core.ChecklistItem{ID: 3, Description: "Carregador"})

	prev := core.ChecklistItem{ID: 2, Description: "Adaptador"}
	next := prev
	next.IsPacked = true
	c.OnUpdate(prev, next)
	c.OnUpdate(core.ChecklistItem{ID: 77}, core.ChecklistItem{ID: 77, Description: "ghost"})
	c.OnDelete(1)

	got, ok := c.Snapshot()
	if !ok {
		t.Fatal("expected cached snapshot")
	}
	want := []core.ChecklistItem{
		{ID: 1, Description: "Adaptador", IsPacked: true},
		{ID: 2, Description: "Carregador"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEntityCacheOnUpdateWhenAbsent(t *testing.T) {
	store := cache.NewMemoryStore(100, 0)
	c := NewEntityCache[core.Reservation](store, cache.ReservationsKey(), nil)

	r := core.Reservation{ID: 1, Title: "Hotel"}
	c.OnUpdate(r, r)
	got, ok := c.Snapshot()
	if !ok || len(got) != 1 || got[0].Title != "Hotel" {
		t.Fatalf("absent collection should become [updated], got %+v", got)
	}
}

func TestPartitionedCacheMigration(t *testing.T) {
	store := cache.NewMemoryStore(100, 0)
	byCountry := func(e core.Expense) string { return e.Country }

	tests := []struct {
		name     string
		opts     PartitionOptions
		wantFrom []int
	}{
		{"renumber", DefaultPartitionOptions(), []int{1, 2}},
		{"reference", PartitionOptions{}, []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPartitionedCache(store, cache.KindExpenses, byCountry, tt.opts, nil)
			c.Replace("Itália", []core.Expense{
				{ID: 1, Country: "Itália"},
				{ID: 2, Country: "Itália", Description: "trem"},
				{ID: 3, Country: "Itália"},
			})
			c.Replace("França", []core.Expense{{ID: 1, Country: "França"}})

			prev := core.Expense{ID: 2, Country: "Itália", Description: "trem"}
			moved := core.Expense{ID: 2, Country: "França", Description: "trem"}
			c.OnUpdate(prev, moved)

			from, _ := c.Snapshot("Itália")
			if !reflect.DeepEqual(ids(from), tt.wantFrom) {
				t.Fatalf("old partition ids = %v, want %v", ids(from), tt.wantFrom)
			}
			to, _ := c.Snapshot("França")
			if len(to) != 2 || to[1].Description != "trem" {
				t.Fatalf("entity not moved into new partition: %+v", to)
			}
		})
	}
}

func TestPartitionedCacheDeleteTouchesOnePartition(t *testing.T) {
	store := cache.NewMemoryStore(100, 0)
	c := NewPartitionedCache(store, cache.KindAttractions, func(a core.Attraction) string { return a.Country }, DefaultPartitionOptions(), nil)
	c.Replace("Itália", []core.Attraction{{ID: 1, Country: "Itália"}, {ID: 2, Country: "Itália"}})
	c.Replace("França", []core.Attraction{{ID: 1, Country: "França"}, {ID: 2, Country: "França"}})

	c.OnDelete("Itália", 1)

	it, _ := c.Snapshot("Itália")
	fr, _ := c.Snapshot("França")
	if !reflect.DeepEqual(ids(it), []int{1}) || !reflect.DeepEqual(ids(fr), []int{1, 2}) {
		t.Fatalf("unexpected ids: it=%v fr=%v", ids(it), ids(fr))
	}
	if got := c.Partitions(); !reflect.DeepEqual(got, []string{"França", "Itália"}) {
		t.Fatalf("unexpected partitions %v", got)
	}
}
