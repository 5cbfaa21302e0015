package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "mirror.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsReachLatestVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if got := repo.SchemaVersion(); got != 2 {
		t.Fatalf("expected schema version 2, got %d", got)
	}
	repo.Close()

	// Reopening an up-to-date mirror is a no-op.
	version, err := RunMigrations(path)
	if err != nil || version != 2 {
		t.Fatalf("rerun migrations: version=%d err=%v", version, err)
	}
}

func TestSaveSnapshotsReplacesMirror(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := []Snapshot{
		{Key: "budgets", Kind: "budgets", Payload: []byte(`[]`), UpdatedAt: at},
		{Key: "expenses:Chile", Kind: "expenses", Partition: "Chile", Payload: []byte(`[{"id":1}]`), UpdatedAt: at},
	}
	if err := repo.SaveSnapshots(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := []Snapshot{{Key: "checklist", Kind: "checklist", Payload: []byte(`[]`), UpdatedAt: at.Add(time.Minute)}}
	if err := repo.SaveSnapshots(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.LoadSnapshots(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Key != "checklist" {
		t.Fatalf("expected only the second snapshot, got %+v", got)
	}
	if !got[0].UpdatedAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("updated_at not preserved: %v", got[0].UpdatedAt)
	}
}

func TestLoadSnapshotsOrderedByKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.SaveSnapshots(ctx, []Snapshot{
		{Key: "reservations", Kind: "reservations", Payload: []byte(`[]`)},
		{Key: "attractions:Peru", Kind: "attractions", Partition: "Peru", Payload: []byte(`[]`)},
		{Key: "budgets", Kind: "budgets", Payload: []byte(`[]`)},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := repo.LoadSnapshots(ctx)
	want := []string{"attractions:Peru", "budgets", "reservations"}
	for i, s := range got {
		if s.Key != want[i] {
			t.Fatalf("position %d: got %s want %s", i, s.Key, want[i])
		}
	}
	if got[0].Partition != "Peru" {
		t.Fatalf("partition lost: %+v", got[0])
	}
}

func TestRecordMutationDetectsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	m := MutationRecord{EventID: "e-1", Kind: "expenses", Action: "create", EntityID: 3, Partition: "Chile", OccurredAt: time.Now()}

	fresh, err := repo.RecordMutation(ctx, m)
	if err != nil || !fresh {
		t.Fatalf("first record: fresh=%v err=%v", fresh, err)
	}
	fresh, err = repo.RecordMutation(ctx, m)
	if err != nil || fresh {
		t.Fatalf("duplicate should not be fresh: fresh=%v err=%v", fresh, err)
	}

	if err := repo.ForgetMutation(ctx, m.EventID); err != nil {
		t.Fatalf("forget: %v", err)
	}
	fresh, err = repo.RecordMutation(ctx, m)
	if err != nil || !fresh {
		t.Fatalf("forgotten event should record again: fresh=%v err=%v", fresh, err)
	}
}

func TestPruneMutations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	repo.RecordMutation(ctx, MutationRecord{EventID: "old", Kind: "budgets", Action: "delete"})
	repo.now = func() time.Time { return base.Add(48 * time.Hour) }
	repo.RecordMutation(ctx, MutationRecord{EventID: "new", Kind: "budgets", Action: "create"})

	n, err := repo.PruneMutations(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned row, got %d", n)
	}
	fresh, _ := repo.RecordMutation(ctx, MutationRecord{EventID: "old", Kind: "budgets", Action: "delete"})
	if !fresh {
		t.Fatal("pruned event should be recordable again")
	}
}
