package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"evosculpt/internal/model"
)

func newInitializedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	later := model.SessionRecord{VersionedRecord: CurrentVersion(), ID: "b", CreatedAt: base.Add(time.Hour), GridSize: 3}
	earlier := model.SessionRecord{VersionedRecord: CurrentVersion(), ID: "a", CreatedAt: base, GridSize: 4}
	for _, s := range []model.SessionRecord{later, earlier} {
		if err := store.SaveSession(ctx, s); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	got, ok, err := store.GetSession(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get session: ok=%t err=%v", ok, err)
	}
	if d := cmp.Diff(earlier, got); d != "" {
		t.Fatalf("unexpected session:\n%s", d)
	}
	if _, ok, _ := store.GetSession(ctx, "missing"); ok {
		t.Fatal("expected missing session")
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "a" || sessions[1].ID != "b" {
		t.Fatalf("expected sessions oldest first, got %+v", sessions)
	}
}

func TestMemoryStoreGenerationJournal(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)
	if err := store.SaveSession(ctx, model.SessionRecord{VersionedRecord: CurrentVersion(), ID: "s"}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	champions := []int{1, 2}
	for gen := 1; gen <= 3; gen++ {
		record := model.GenerationRecord{VersionedRecord: CurrentVersion(), SessionID: "s", Generation: gen, Champions: champions}
		if err := store.AppendGeneration(ctx, record); err != nil {
			t.Fatalf("append generation %d: %v", gen, err)
		}
	}
	champions[0] = 99

	records, err := store.ListGenerations(ctx, "s")
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Generation != i+1 {
			t.Fatalf("record %d out of order: %+v", i, r)
		}
		if r.Champions[0] != 1 {
			t.Fatal("journal shares memory with the caller")
		}
	}
	records[0].Champions[1] = 42
	again, _ := store.ListGenerations(ctx, "s")
	if again[0].Champions[1] != 2 {
		t.Fatal("listed records share memory with the journal")
	}

	if err := store.AppendGeneration(ctx, model.GenerationRecord{SessionID: "unknown"}); err == nil {
		t.Fatal("expected unknown session error")
	}
	empty, err := store.ListGenerations(ctx, "unknown")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty journal, got %v %v", empty, err)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveSession(context.Background(), model.SessionRecord{ID: "s"}); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
