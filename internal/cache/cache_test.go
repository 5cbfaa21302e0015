package cache

import (
	"testing"
	"time"
)

func TestKeyStringRoundTrip(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{NewKey("budgets"), "budgets"},
		{NewKey("expenses", "Itália"), "expenses:Itália"},
		{NewKey("expenses", "a:b"), "expenses:a:b"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
			if back := ParseKey(tt.want); back != tt.key {
				t.Fatalf("ParseKey(%q) = %+v, want %+v", tt.want, back, tt.key)
			}
		})
	}
}

func TestMemoryStoreLookupAndMutate(t *testing.T) {
	s := NewMemoryStore(10, 0)
	key := NewKey("budgets")

	if _, ok := Lookup[[]int](s, key); ok {
		t.Fatal("expected miss on empty store")
	}

	Mutate(s, key, func(old []int, ok bool) ([]int, bool) {
		if ok {
			t.Fatal("old value should be absent")
		}
		return []int{1}, true
	})
	Mutate(s, key, func(old []int, ok bool) ([]int, bool) {
		return append(append([]int(nil), old...), 2), ok
	})

	got, ok := Lookup[[]int](s, key)
	if !ok || len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected value %v ok=%v", got, ok)
	}

	// Returning false must leave the entry alone.
	Mutate(s, key, func(old []int, ok bool) ([]int, bool) {
		return nil, false
	})
	if got, _ := Lookup[[]int](s, key); len(got) != 2 {
		t.Fatalf("skipped mutation changed value: %v", got)
	}

	// Wrong type reads as absent.
	if _, ok := Lookup[string](s, key); ok {
		t.Fatal("type mismatch should read as miss")
	}
}

func TestMemoryStoreUpdatedAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(10, 0).WithClock(func() time.Time { return now })
	key := NewKey("checklist")

	s.Set(key, 1)
	e, ok := s.Get(key)
	if !ok || !e.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected entry %+v", e)
	}

	past := now.Add(-time.Hour)
	s.Restore(key, 2, past)
	e, _ = s.Get(key)
	if e.Value != 2 || !e.UpdatedAt.Equal(past) {
		t.Fatalf("restore should keep timestamp, got %+v", e)
	}
}

func TestMemoryStoreUpdateMarksCreatedEntriesPartial(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(10, 0).WithClock(func() time.Time { return now })
	appendOne := func(old any, ok bool) (any, bool) {
		n, _ := old.(int)
		return n + 1, true
	}

	created := NewKey("expenses", "Chile")
	s.Update(created, appendOne)
	s.Update(created, appendOne)
	e, _ := s.Get(created)
	if e.Value != 2 || !e.Partial() {
		t.Fatalf("patches on a missing key must stay partial, got %+v", e)
	}

	s.Set(created, 5)
	s.Update(created, appendOne)
	e, _ = s.Get(created)
	if e.Value != 6 || e.Partial() || !e.UpdatedAt.Equal(now) {
		t.Fatalf("patch of a fetched entry should be stamped, got %+v", e)
	}
}

func TestMemoryStoreKeysAndDelete(t *testing.T) {
	s := NewMemoryStore(10, 0)
	s.Set(NewKey("expenses", "Itália"), 1)
	s.Set(NewKey("expenses", "França"), 2)
	s.Set(NewKey("budgets"), 3)

	if len(s.Keys()) != 3 {
		t.Fatalf("expected 3 keys, got %v", s.Keys())
	}
	s.Delete(NewKey("budgets"))
	for _, k := range s.Keys() {
		if k.Kind != "expenses" {
			t.Fatalf("unexpected key %v", k)
		}
	}
}

func TestLRUEvictionAndExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](2, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}

	now = now.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired entries, got %d", n)
	}
}

func TestManagerCleanNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(10, time.Second).WithClock(func() time.Time { return now })
	s.Set(NewKey("budgets"), 1)

	m := NewManager(nil)
	m.Register(s)
	if n := m.CleanNow(); n != 0 {
		t.Fatalf("nothing should expire yet, got %d", n)
	}

	now = now.Add(time.Minute)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
}
