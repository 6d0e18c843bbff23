package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"carteira/internal/store"
	"carteira/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestFileBackedStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return NewWithDir(t.TempDir(), nil) })
}

func TestPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := NewWithDir(dir, nil)
	if err := s.Add(ctx, "ana", storetest.Tx("a", 1250, 3)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "ana", storetest.Tx("b", 990, 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ana.json")); err != nil {
		t.Fatalf("expected ana.json: %v", err)
	}

	reopened := NewWithDir(dir, nil)
	got, err := reopened.ListAll(ctx, "ana")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].Amount.Cents != 1250 {
		t.Fatalf("unexpected reload: %+v", got)
	}
}

func TestRefreshRereadsWritesFromAnotherInstance(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer := NewWithDir(dir, nil)
	reader := NewWithDir(dir, nil)

	if got, err := reader.ListAll(ctx, "ana"); err != nil || len(got) != 0 {
		t.Fatalf("initial read = %v, %v", got, err)
	}
	if err := writer.Add(ctx, "ana", storetest.Tx("a", 1250, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got, _ := reader.ListAll(ctx, "ana"); len(got) != 0 {
		t.Fatalf("reader should keep its copy until refreshed, got %d", len(got))
	}
	reader.Refresh("ana")
	got, err := reader.ListAll(ctx, "ana")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" || got[0].Amount.Cents != 1250 {
		t.Fatalf("unexpected refreshed collection: %+v", got)
	}
}

func TestRefreshWithoutDirectoryKeepsData(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Add(ctx, "ana", storetest.Tx("a", 1, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.Refresh("ana")
	if got, _ := s.ListAll(ctx, "ana"); len(got) != 1 {
		t.Fatalf("volatile store lost data on refresh: %d", len(got))
	}
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ana.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewWithDir(dir, nil)
	got, err := s.ListAll(ctx, "ana")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty collection, got %v, %v", got, err)
	}
	if err := s.Add(ctx, "ana", storetest.Tx("a", 1, 1)); err != nil {
		t.Fatalf("Add after corrupt load: %v", err)
	}
}

func TestLooseRecordsAreNormalized(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"id":"x","description":"  Padaria  ","amount":"12,50","type":"EXPENSE","category":"alimentacao","date":1736510400000},
	         {"id":"x","description":"dup","amount":1,"type":"INCOME","category":"Salário","date":1736510400000}]`
	if err := os.WriteFile(filepath.Join(dir, "ana.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewWithDir(dir, nil).ListAll(context.Background(), "ana")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d", len(got))
	}
	if got[0].Description != "Padaria" || got[0].Amount.Cents != 1250 || got[0].Category != "Alimentação" {
		t.Fatalf("unexpected normalization: %+v", got[0])
	}
}
