package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"carteira/internal/amqp"
	"carteira/internal/analytics"
	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/report"
	"carteira/internal/store"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 10 * time.Minute
)

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Ledger owns the transaction store for every user and serves memoized
// monthly views on top of it. Each mutation bumps the user's version, which
// is part of every cache key.
type Ledger struct {
	store     store.Store
	norm      core.Normalizer
	publisher Publisher
	logger    *log.Logger
	loc       *time.Location

	mu       sync.Mutex
	versions map[string]uint64

	snapshots cache.Cache[analytics.Snapshot]
	calendars cache.Cache[analytics.Calendar]
	group     singleflight.Group
}

type Option func(*Ledger)

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

func WithNormalizer(n core.Normalizer) Option {
	return func(l *Ledger) { l.norm = n }
}

// WithCache sizes the snapshot and calendar caches.
func WithCache(size int, ttl time.Duration) Option {
	return func(l *Ledger) {
		l.snapshots = cache.NewLRUCache[analytics.Snapshot](size, ttl)
		l.calendars = cache.NewLRUCache[analytics.Calendar](size, ttl)
	}
}

// WithLocation sets the zone used to name the months a change touches.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func NewLedger(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		norm:     core.NewNormalizer(),
		logger:   log.Discard().WithComponent(log.ComponentLedger),
		loc:      time.Local,
		versions: make(map[string]uint64),
	}
	WithCache(defaultCacheSize, defaultCacheTTL)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Caches exposes the memo caches so a cache.Manager can sweep them.
func (l *Ledger) Caches() []cache.Cleaner {
	var out []cache.Cleaner
	for _, c := range []any{l.snapshots, l.calendars} {
		if cl, ok := c.(cache.Cleaner); ok {
			out = append(out, cl)
		}
	}
	return out
}

func (l *Ledger) List(ctx context.Context, user string) ([]core.Transaction, error) {
	txs, err := l.store.ListAll(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Add normalizes r and stores it at the top of the user's list.
func (l *Ledger) Add(ctx context.Context, user string, r core.Record) (core.Transaction, error) {
	tx := l.norm.Normalize(r)
	if err := l.store.Add(ctx, user, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	version := l.bump(user)

	l.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().WithUser(user).WithTransaction(tx).WithOperation(log.OpAdd).ToSlice()...)
	l.publish(ctx, user, log.OpAdd, version, []core.Transaction{tx})
	return tx, nil
}

// AddMany stores a batch atomically. Batch order is preserved at the top.
func (l *Ledger) AddMany(ctx context.Context, user string, rs []core.Record) ([]core.Transaction, error) {
	if len(rs) == 0 {
		return []core.Transaction{}, nil
	}
	txs := l.norm.NormalizeAll(rs)
	if err := l.store.AddMany(ctx, user, txs); err != nil {
		return nil, fmt.Errorf("add transactions: %w", err)
	}
	version := l.bump(user)

	l.logger.InfoContext(ctx, "Transactions added",
		log.FieldUser, user, log.FieldCount, len(txs), log.FieldOperation, log.OpAddMany)
	l.publish(ctx, user, log.OpAddMany, version, txs)
	return txs, nil
}

func (l *Ledger) Remove(ctx context.Context, user, id string) error {
	txs, err := l.store.ListAll(ctx, user)
	if err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}
	var removed []core.Transaction
	for _, tx := range txs {
		if tx.ID == id {
			removed = append(removed, tx)
			break
		}
	}
	if err := l.store.Remove(ctx, user, id); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}
	version := l.bump(user)

	l.logger.InfoContext(ctx, "Transaction removed",
		log.FieldUser, user, log.FieldTransactionID, id, log.FieldOperation, log.OpRemove)
	l.publish(ctx, user, log.OpRemove, version, removed)
	return nil
}

func (l *Ledger) Clear(ctx context.Context, user string) error {
	if err := l.store.Clear(ctx, user); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	version := l.bump(user)

	l.logger.InfoContext(ctx, "Transactions cleared", log.FieldUser, user, log.FieldOperation, log.OpClear)
	l.publish(ctx, user, log.OpClear, version, nil)
	return nil
}

// Summary returns the aggregated month, memoized per user version.
func (l *Ledger) Summary(ctx context.Context, user string, p analytics.Period) (analytics.Snapshot, error) {
	return memo(ctx, l, l.snapshots, user, p, analytics.Aggregate)
}

// Calendar returns the month's intensity grid, memoized per user version.
func (l *Ledger) Calendar(ctx context.Context, user string, p analytics.Period) (analytics.Calendar, error) {
	return memo(ctx, l, l.calendars, user, p, analytics.BuildCalendar)
}

func memo[T any](ctx context.Context, l *Ledger, c cache.Cache[T], user string, p analytics.Period,
	build func([]core.Transaction, analytics.Period) T) (T, error) {
	var zero T
	if p.Month < time.January || p.Month > time.December {
		return zero, analytics.ErrInvalidPeriod
	}
	key := l.cacheKey(user, p)
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := l.group.Do(fmt.Sprintf("%T|%s", zero, key), func() (any, error) {
		txs, err := l.store.ListAll(ctx, user)
		if err != nil {
			return nil, err
		}
		out := build(analytics.FilterPeriod(txs, p), p)
		// Only cache if no mutation happened while we were computing.
		if l.cacheKey(user, p) == key {
			c.Set(key, out)
		}
		return out, nil
	})
	if err != nil {
		return zero, fmt.Errorf("load %s for %s: %w", p, user, err)
	}
	return v.(T), nil
}

// Report formats the month with f.
func (l *Ledger) Report(ctx context.Context, user string, p analytics.Period, f report.Formatter) (report.Report, error) {
	s, err := l.Summary(ctx, user, p)
	if err != nil {
		return report.Report{}, err
	}
	c, err := l.Calendar(ctx, user, p)
	if err != nil {
		return report.Report{}, err
	}
	return f.Month(s, c), nil
}

// AdvisoryContext serializes all of the user's transactions for the advisor.
func (l *Ledger) AdvisoryContext(ctx context.Context, user string, loc report.Locale, tz *time.Location) (string, error) {
	txs, err := l.List(ctx, user)
	if err != nil {
		return "", err
	}
	return report.AdvisoryContext(txs, loc, tz)
}

func (l *Ledger) Version(user string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.versions[user]
}

// Invalidate is for changes made by another process: it makes the store
// reread the user's data, then bumps the version and drops cached views.
func (l *Ledger) Invalidate(user string) uint64 {
	if r, ok := l.store.(store.Refresher); ok {
		r.Refresh(user)
	}
	return l.bump(user)
}

// bump advances the user's version after a local mutation and drops their
// cached views.
func (l *Ledger) bump(user string) uint64 {
	l.mu.Lock()
	l.versions[user]++
	v := l.versions[user]
	l.mu.Unlock()

	prefix := user + "|"
	l.snapshots.DeletePrefix(prefix)
	l.calendars.DeletePrefix(prefix)
	return v
}

func (l *Ledger) cacheKey(user string, p analytics.Period) string {
	return user + "|" + strconv.FormatUint(l.Version(user), 10) + "|" + p.Key()
}

func (l *Ledger) publish(ctx context.Context, user, op string, version uint64, txs []core.Transaction) {
	if l.publisher == nil {
		return
	}
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	msg := amqp.NewChangeMessage(user, op, version, ids, monthsOf(txs, l.loc))
	if err := l.publisher.PublishChange(ctx, msg); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish change message",
			log.FieldUser, user, log.FieldOperation, op, log.FieldError, err.Error())
	}
}

// monthsOf lists the distinct months of txs in first-seen order.
func monthsOf(txs []core.Transaction, loc *time.Location) []amqp.YearMonth {
	seen := make(map[amqp.YearMonth]bool)
	var out []amqp.YearMonth
	for _, tx := range txs {
		t := tx.Date.In(loc)
		ym := amqp.YearMonth{Year: t.Year(), Month: t.Month()}
		if !seen[ym] {
			seen[ym] = true
			out = append(out, ym)
		}
	}
	return out
}

// Close releases the store and, when it holds a connection, the publisher.
func (l *Ledger) Close() error {
	var errs []error
	if l.store != nil {
		if err := l.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := l.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
