// Package sqlite stores transactions in a SQLite database whose schema is
// managed by embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates the database file if needed and migrates it.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:      db,
		queries: NewQueries(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, user string) ([]core.Transaction, error) {
	if err := store.ValidateUser(user); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListTransactions(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.transaction())
	}
	return out, nil
}

func (s *Store) Add(ctx context.Context, user string, tx core.Transaction) error {
	return s.AddMany(ctx, user, []core.Transaction{tx})
}

// AddMany inserts the batch last-to-first so its first element ends up
// with the highest sequence number.
func (s *Store) AddMany(ctx context.Context, user string, txs []core.Transaction) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}
	if err := store.ValidateBatch(nil, txs); err != nil {
		return err
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()
	q := s.queries.WithTx(dbTx)

	for _, tx := range txs {
		exists, err := q.TransactionExists(ctx, user, tx.ID)
		if err != nil {
			return fmt.Errorf("check transaction %s: %w", tx.ID, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", store.ErrDuplicateID, tx.ID)
		}
	}
	for i := len(txs) - 1; i >= 0; i-- {
		if err := q.InsertTransaction(ctx, insertParams(user, txs[i])); err != nil {
			return fmt.Errorf("insert transaction %s: %w", txs[i].ID, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Transactions saved to SQLite",
		log.FieldUser, user, log.FieldCount, len(txs))
	return nil
}

func (s *Store) Remove(ctx context.Context, user, id string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	n, err := s.queries.DeleteTransaction(ctx, user, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, user string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	if err := s.queries.DeleteUserTransactions(ctx, user); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database closed")
	}
	return s.db.PingContext(ctx)
}

func insertParams(user string, tx core.Transaction) InsertTransactionParams {
	return InsertTransactionParams{
		UserName:    user,
		ID:          tx.ID,
		Description: tx.Description,
		AmountCents: tx.Amount.Cents,
		Type:        string(tx.Type),
		ExpenseType: string(tx.ExpenseType),
		Category:    string(tx.Category),
		OccurredAt:  tx.Date.UnixMilli(),
	}
}

func (r TransactionRow) transaction() core.Transaction {
	return core.Transaction{
		ID:          r.ID,
		Description: r.Description,
		Amount:      core.Money{Cents: r.AmountCents},
		Type:        core.TransactionType(r.Type),
		ExpenseType: core.ExpenseType(r.ExpenseType),
		Category:    core.Category(r.Category),
		Date:        time.UnixMilli(r.OccurredAt),
	}
}
