// Package storetest checks that a store.Store implementation honours the
// ordering, atomicity and error contract of the port.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

// Tx builds a valid sporadic expense dated on the given day of January 2025.
func Tx(id string, cents int64, day int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "item " + id,
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		ExpenseType: core.Sporadic,
		Category:    core.CategoryFood,
		Date:        time.Date(2025, time.January, day, 12, 0, 0, 0, time.UTC),
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func equalIDs(t *testing.T, got []core.Transaction, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

// Run exercises s. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("PrependOrder", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"a", "b", "c"} {
			if err := s.Add(ctx, "ana", Tx(id, int64(100*(i+1)), i+1)); err != nil {
				t.Fatalf("Add(%s): %v", id, err)
			}
		}
		got, err := s.ListAll(ctx, "ana")
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		equalIDs(t, got, "c", "b", "a")
	})

	t.Run("AddManyKeepsBatchOrder", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "ana", Tx("old", 100, 1)); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.AddMany(ctx, "ana", []core.Transaction{Tx("x", 1, 2), Tx("y", 2, 3)}); err != nil {
			t.Fatalf("AddMany: %v", err)
		}
		got, _ := s.ListAll(ctx, "ana")
		equalIDs(t, got, "x", "y", "old")
	})

	t.Run("AddManyIsAtomic", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "ana", Tx("dup", 100, 1)); err != nil {
			t.Fatalf("Add: %v", err)
		}
		err := s.AddMany(ctx, "ana", []core.Transaction{Tx("fresh", 1, 2), Tx("dup", 2, 3)})
		if !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		got, _ := s.ListAll(ctx, "ana")
		equalIDs(t, got, "dup")
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		s := newStore(t)
		bad := Tx("", 100, 1)
		if err := s.Add(ctx, "ana", bad); err == nil {
			t.Fatalf("expected validation error for empty id")
		}
		if _, err := s.ListAll(ctx, " "); !errors.Is(err, store.ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := newStore(t)
		_ = s.AddMany(ctx, "ana", []core.Transaction{Tx("a", 1, 1), Tx("b", 2, 2), Tx("c", 3, 3)})
		if err := s.Remove(ctx, "ana", "b"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if err := s.Remove(ctx, "ana", "b"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		got, _ := s.ListAll(ctx, "ana")
		equalIDs(t, got, "a", "c")
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "ana", Tx("a", 1, 1))
		_ = s.Add(ctx, "bia", Tx("a", 2, 1))
		if err := s.Clear(ctx, "ana"); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		ana, _ := s.ListAll(ctx, "ana")
		bia, _ := s.ListAll(ctx, "bia")
		if len(ana) != 0 || len(bia) != 1 {
			t.Fatalf("ana=%v bia=%v", ids(ana), ids(bia))
		}
	})

	t.Run("FieldsSurvive", func(t *testing.T) {
		s := newStore(t)
		in := core.Transaction{
			ID:          "salary",
			Description: "Salário março",
			Amount:      core.Money{Cents: 450075},
			Type:        core.Income,
			Category:    core.CategorySalary,
			Date:        time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC),
		}
		if err := s.Add(ctx, "ana", in); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, _ := s.ListAll(ctx, "ana")
		if len(got) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(got))
		}
		out := got[0]
		if out.ID != in.ID || out.Description != in.Description || out.Amount != in.Amount ||
			out.Type != in.Type || out.ExpenseType != "" || out.Category != in.Category || !out.Date.Equal(in.Date) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
		}
	})
}
