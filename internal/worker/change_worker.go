// Package worker reacts to ledger change notifications: it drops stale
// views, recomputes the touched months and reports spending peaks.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/analytics"
	"carteira/internal/log"
	"carteira/internal/report"
)

// Ledger is the part of services.Ledger the worker drives.
type Ledger interface {
	Invalidate(user string) uint64
	Summary(ctx context.Context, user string, p analytics.Period) (analytics.Snapshot, error)
	Calendar(ctx context.Context, user string, p analytics.Period) (analytics.Calendar, error)
}

// Alert describes the busiest day of a recomputed month.
type Alert struct {
	User      string
	Period    analytics.Period
	PeakDay   int
	PeakSpent string
	SpikeDay  int
	Balance   string
}

type ChangeWorker struct {
	ledger Ledger
	loc    *time.Location
	locale report.Locale
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	users map[string]time.Time
	// OnAlert, when set, receives every alert after it is logged.
	OnAlert func(Alert)
}

func NewChangeWorker(ledger Ledger, loc *time.Location, locale report.Locale, logger *log.Logger) *ChangeWorker {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ChangeWorker{
		ledger: ledger,
		loc:    loc,
		locale: locale,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
		users:  make(map[string]time.Time),
	}
}

// HandleChange is the amqp.Handler for change messages. An error makes the
// broker redeliver the message.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	logger := w.logger.WithUser(msg.User)
	logger.InfoContext(ctx, "Processing change message",
		log.FieldOperation, msg.Op, log.FieldVersion, msg.Version, log.FieldCount, len(msg.IDs))

	w.ledger.Invalidate(msg.User)
	w.touch(msg.User)

	periods := make([]analytics.Period, 0, len(msg.Months))
	for _, ym := range msg.Months {
		periods = append(periods, analytics.Period{Year: ym.Year, Month: ym.Month, Location: w.loc})
	}
	if len(periods) == 0 {
		periods = append(periods, analytics.PeriodOf(msg.Timestamp, w.loc))
	}

	for _, p := range periods {
		if err := w.recompute(ctx, msg.User, p); err != nil {
			return err
		}
	}
	return nil
}

// Warm recomputes the current month for every user seen within maxAge so
// their first request after a quiet period is served from cache.
func (w *ChangeWorker) Warm(ctx context.Context, maxAge time.Duration) error {
	now := w.now()
	p := analytics.PeriodOf(now, w.loc)
	for _, user := range w.recentUsers(now, maxAge) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.recompute(ctx, user, p); err != nil {
			w.logger.WarnContext(ctx, "Warm-up failed", log.FieldUser, user, log.FieldError, err.Error())
		}
	}
	return nil
}

func (w *ChangeWorker) recompute(ctx context.Context, user string, p analytics.Period) error {
	s, err := w.ledger.Summary(ctx, user, p)
	if err != nil {
		return fmt.Errorf("recompute summary %s: %w", p, err)
	}
	c, err := w.ledger.Calendar(ctx, user, p)
	if err != nil {
		return fmt.Errorf("recompute calendar %s: %w", p, err)
	}

	w.logger.DebugContext(ctx, "Month recomputed",
		log.FieldUser, user, log.FieldPeriod, p.String(), log.FieldCount, s.Count, log.FieldOperation, log.OpRecompute)

	if c.PeakDay == 0 {
		return nil
	}
	alert := Alert{
		User:      user,
		Period:    p,
		PeakDay:   c.PeakDay,
		PeakSpent: w.locale.Format(c.PeakExpense()),
		SpikeDay:  s.MaxSporadicDay,
		Balance:   w.locale.Format(s.Balance),
	}
	w.logger.InfoContext(ctx, "Peak spending day",
		log.FieldUser, user,
		log.FieldPeriod, p.String(),
		"day", alert.PeakDay,
		"spent", alert.PeakSpent,
		"sporadic_spike_day", alert.SpikeDay,
		"balance", alert.Balance)
	if w.OnAlert != nil {
		w.OnAlert(alert)
	}
	return nil
}

func (w *ChangeWorker) touch(user string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users[user] = w.now()
}

func (w *ChangeWorker) recentUsers(now time.Time, maxAge time.Duration) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for user, seen := range w.users {
		if now.Sub(seen) > maxAge {
			delete(w.users, user)
			continue
		}
		out = append(out, user)
	}
	sort.Strings(out)
	return out
}
