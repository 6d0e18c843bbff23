package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"carteira/internal/store"
	"carteira/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "carteira.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestReopenKeepsDataAndSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "carteira.db")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add(ctx, "ana", storetest.Tx("a", 700, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.Close()

	// Running migrations again must be a no-op.
	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	got, err := s.ListAll(ctx, "ana")
	if err != nil || len(got) != 1 || got[0].Amount.Cents != 700 {
		t.Fatalf("unexpected rows after reopen: %+v, %v", got, err)
	}
}
