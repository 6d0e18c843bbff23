// Package store defines where transactions live. Adapters keep one ordered
// collection per user, newest insertion first.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"carteira/internal/core"
)

var (
	ErrNotFound    = errors.New("transaction not found")
	ErrDuplicateID = errors.New("duplicate transaction id")
	ErrInvalidUser = errors.New("invalid user")
)

// MaxUserLength bounds nicknames used as collection keys.
const MaxUserLength = 64

// Store is the persistence port for transactions.
type Store interface {
	// ListAll returns the user's transactions in display order.
	ListAll(ctx context.Context, user string) ([]core.Transaction, error)
	// Add prepends tx.
	Add(ctx context.Context, user string, tx core.Transaction) error
	// AddMany prepends the batch as a whole, keeping batch order. Either all
	// transactions are stored or none.
	AddMany(ctx context.Context, user string, txs []core.Transaction) error
	Remove(ctx context.Context, user, id string) error
	Clear(ctx context.Context, user string) error
	Close() error
}

// Refresher is implemented by stores that keep a copy of data another
// process may change. Refresh drops the user's copy so the next read goes
// back to the source.
type Refresher interface {
	Refresh(user string)
}

// ValidateUser checks a nickname before it is used as a key.
func ValidateUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUser)
	}
	if user != strings.TrimSpace(user) {
		return fmt.Errorf("%w: surrounding whitespace", ErrInvalidUser)
	}
	if utf8.RuneCountInString(user) > MaxUserLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUser, MaxUserLength)
	}
	return nil
}

// ValidateBatch validates every transaction and rejects ids repeated inside
// the batch or already present in existing.
func ValidateBatch(existing []core.Transaction, batch []core.Transaction) error {
	seen := make(map[string]struct{}, len(existing)+len(batch))
	for _, tx := range existing {
		seen[tx.ID] = struct{}{}
	}
	for _, tx := range batch {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %q: %w", tx.ID, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}
