package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/analytics"
	"carteira/internal/core"
	"carteira/internal/report"
	"carteira/internal/services"
	"carteira/internal/store/memory"
)

func seededLedger(t *testing.T) *services.Ledger {
	t.Helper()
	l := services.NewLedger(memory.New())
	day := func(d int) int64 { return time.Date(2025, time.January, d, 12, 0, 0, 0, time.UTC).UnixMilli() }
	_, err := l.AddMany(context.Background(), "ana", []core.Record{
		{ID: "1", Description: "Aluguel", Amount: 900.0, Type: "EXPENSE", ExpenseType: "FIXED", Category: "Moradia", Date: day(10)},
		{ID: "2", Description: "Mercado", Amount: 80.0, Type: "EXPENSE", ExpenseType: "SPORADIC", Category: "Alimentação", Date: day(5)},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return l
}

func TestHandleChangeRecomputesAndAlerts(t *testing.T) {
	l := seededLedger(t)
	w := NewChangeWorker(l, time.UTC, report.PtBR, nil)
	var alerts []Alert
	w.OnAlert = func(a Alert) { alerts = append(alerts, a) }

	before := l.Version("ana")
	msg := amqp.NewChangeMessage("ana", "add_many", 1, []string{"1", "2"},
		[]amqp.YearMonth{{Year: 2025, Month: time.January}})
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	if l.Version("ana") != before+1 {
		t.Fatalf("worker should invalidate the user's cached views")
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.PeakDay != 10 || a.PeakSpent != "R$ 900,00" || a.SpikeDay != 5 || a.Balance != "-R$ 980,00" {
		t.Fatalf("unexpected alert: %+v", a)
	}
}

func TestHandleChangeWithoutMonthsUsesTimestamp(t *testing.T) {
	l := seededLedger(t)
	w := NewChangeWorker(l, time.UTC, report.PtBR, nil)
	var alerts []Alert
	w.OnAlert = func(a Alert) { alerts = append(alerts, a) }

	msg := &amqp.ChangeMessage{User: "ana", Op: "clear", Timestamp: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)}
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Period.Month != time.January {
		t.Fatalf("expected January recompute, got %+v", alerts)
	}
}

type failingLedger struct{ *services.Ledger }

func (failingLedger) Calendar(context.Context, string, analytics.Period) (analytics.Calendar, error) {
	return analytics.Calendar{}, errors.New("store offline")
}

func TestHandleChangePropagatesErrors(t *testing.T) {
	w := NewChangeWorker(failingLedger{seededLedger(t)}, time.UTC, report.PtBR, nil)
	msg := amqp.NewChangeMessage("ana", "add", 2, []string{"x"}, []amqp.YearMonth{{Year: 2025, Month: time.January}})
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Fatalf("expected error so the message is requeued")
	}
}

func TestWarmSkipsStaleUsers(t *testing.T) {
	l := seededLedger(t)
	w := NewChangeWorker(l, time.UTC, report.PtBR, nil)
	now := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.touch("ana")
	w.now = func() time.Time { return now.Add(-48 * time.Hour) }
	w.touch("old")
	w.now = func() time.Time { return now }

	var warmed []string
	w.OnAlert = func(a Alert) { warmed = append(warmed, a.User) }
	if err := w.Warm(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if len(warmed) != 1 || warmed[0] != "ana" {
		t.Fatalf("warmed = %v", warmed)
	}
	if users := w.recentUsers(now, 24*time.Hour); len(users) != 1 {
		t.Fatalf("stale user not evicted: %v", users)
	}
}
