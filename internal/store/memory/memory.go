// Package memory keeps transactions in process memory, optionally mirrored
// to one JSON file per user.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/store"
)

type Store struct {
	mu     sync.Mutex
	dir    string
	items  map[string][]core.Transaction
	loaded map[string]bool
	norm   core.Normalizer
	logger *log.Logger
}

var (
	_ store.Store     = (*Store)(nil)
	_ store.Refresher = (*Store)(nil)
)

// New returns a volatile store.
func New() *Store {
	return NewWithDir("", nil)
}

// NewWithDir returns a store that rewrites <dir>/<user>.json after every
// mutation. An empty dir keeps everything in memory.
func NewWithDir(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		dir:    dir,
		items:  make(map[string][]core.Transaction),
		loaded: make(map[string]bool),
		norm:   core.NewNormalizer(),
		logger: logger.WithComponent(log.ComponentStorage),
	}
}

func (s *Store) ListAll(_ context.Context, user string) ([]core.Transaction, error) {
	if err := store.ValidateUser(user); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.collection(user)
	return append(make([]core.Transaction, 0, len(items)), items...), nil
}

// Add prepends tx.
func (s *Store) Add(ctx context.Context, user string, tx core.Transaction) error {
	return s.AddMany(ctx, user, []core.Transaction{tx})
}

func (s *Store) AddMany(_ context.Context, user string, txs []core.Transaction) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.collection(user)
	if err := store.ValidateBatch(current, txs); err != nil {
		return err
	}
	next := make([]core.Transaction, 0, len(txs)+len(current))
	next = append(next, txs...)
	next = append(next, current...)
	return s.commit(user, next)
}

func (s *Store) Remove(_ context.Context, user, id string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.collection(user)
	for i, tx := range current {
		if tx.ID != id {
			continue
		}
		next := make([]core.Transaction, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		return s.commit(user, next)
	}
	return fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (s *Store) Clear(_ context.Context, user string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(user, nil)
}

func (s *Store) Close() error { return nil }

// Refresh makes the next read reload <dir>/<user>.json. Without a directory
// memory is the only copy and nothing changes.
func (s *Store) Refresh(user string) {
	if s.dir == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loaded, user)
	delete(s.items, user)
}

// collection returns the cached slice, loading it from disk on first use.
// Callers hold s.mu and must not mutate the result.
func (s *Store) collection(user string) []core.Transaction {
	if s.dir == "" || s.loaded[user] {
		return s.items[user]
	}
	s.loaded[user] = true
	items, err := s.load(user)
	if err != nil {
		s.logger.Warn("Discarding unreadable transaction file",
			log.FieldUser, user, log.FieldError, err.Error())
		items = nil
	}
	s.items[user] = items
	return items
}

// commit persists first so a failed write leaves memory untouched.
func (s *Store) commit(user string, next []core.Transaction) error {
	if s.dir != "" {
		if err := s.persist(user, next); err != nil {
			return err
		}
	}
	s.items[user] = next
	return nil
}

func (s *Store) path(user string) string {
	return filepath.Join(s.dir, url.PathEscape(user)+".json")
}

func (s *Store) load(user string) ([]core.Transaction, error) {
	data, err := os.ReadFile(s.path(user))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path(user), err)
	}
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(user), err)
	}
	txs := s.norm.NormalizeAll(records)
	// Drop repeated ids, keeping the newest.
	seen := make(map[string]struct{}, len(txs))
	out := txs[:0]
	for _, tx := range txs {
		if _, dup := seen[tx.ID]; dup {
			continue
		}
		seen[tx.ID] = struct{}{}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Store) persist(user string, txs []core.Transaction) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	records := make([]core.Record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, tx.Record())
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := store.WriteFileAtomic(s.path(user), data, 0o644); err != nil {
		return fmt.Errorf("persist transactions for %s: %w", user, err)
	}
	return nil
}
