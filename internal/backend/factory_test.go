package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carteira/internal/analytics"
	"carteira/internal/config"
	"carteira/internal/core"
)

func TestFactoryCreatesEveryBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"file", Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "carteira.db"), CacheSize: 8, CacheTTL: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).Create(ctx, tt.config)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()
			if res.AMQP != nil {
				t.Errorf("no broker configured, AMQP should be nil")
			}

			if _, err := res.Ledger.Add(ctx, "ana", core.Record{Description: "Pão", Amount: 7.5, Type: "EXPENSE", Date: time.Now().UnixMilli()}); err != nil {
				t.Fatalf("Add: %v", err)
			}
			txs, err := res.Ledger.List(ctx, "ana")
			if err != nil || len(txs) != 1 {
				t.Fatalf("List = %v, %v", txs, err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{Type: "sheets"},
		{Type: SQLiteBackend},
		{Type: FileBackend},
		{Type: MemoryBackend, Publish: true},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", c)
		}
	}
	if _, err := NewFactory(nil).Create(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Errorf("Create should reject invalid config")
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:  "file",
		DataDir:      "/tmp/carteira",
		AMQPURL:      "amqp://localhost:5672/",
		AMQPExchange: "carteira",
		AMQPQueue:    "ledger_changes",
		CacheSize:    10,
		CacheTTL:     time.Minute,
		TimeZone:     "UTC",
	}
	c, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if c.Type != FileBackend || c.DataDirectory != "/tmp/carteira" || !c.Publish || c.Location != time.UTC {
		t.Errorf("unexpected backend config: %+v", c)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Errorf("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Errorf("unknown backend should fail")
	}
}

func TestConfigShared(t *testing.T) {
	tests := []struct {
		typ  BackendType
		want bool
	}{
		{MemoryBackend, false},
		{FileBackend, true},
		{SQLiteBackend, true},
	}
	for _, tt := range tests {
		if got := (Config{Type: tt.typ}).Shared(); got != tt.want {
			t.Errorf("Config{Type: %s}.Shared() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestFileBackendWorkerSeesServerWrites(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: FileBackend, DataDirectory: t.TempDir()}

	server, err := NewFactory(nil).Create(ctx, cfg)
	if err != nil {
		t.Fatalf("Create server: %v", err)
	}
	defer server.Cleanup()
	worker, err := NewFactory(nil).Create(ctx, cfg)
	if err != nil {
		t.Fatalf("Create worker: %v", err)
	}
	defer worker.Cleanup()

	now := time.Now()
	p := analytics.PeriodOf(now, time.Local)
	if s, err := worker.Ledger.Summary(ctx, "ana", p); err != nil || s.Count != 0 {
		t.Fatalf("initial worker summary = %+v, %v", s, err)
	}

	if _, err := server.Ledger.Add(ctx, "ana", core.Record{Description: "Pão", Amount: "12,50", Type: "EXPENSE", Date: now.UnixMilli()}); err != nil {
		t.Fatalf("server Add: %v", err)
	}

	worker.Ledger.Invalidate("ana")
	s, err := worker.Ledger.Summary(ctx, "ana", p)
	if err != nil {
		t.Fatalf("worker Summary: %v", err)
	}
	if s.Count != 1 || s.TotalExpense.Cents != 1250 {
		t.Fatalf("worker sees count=%d expense=%d after server add", s.Count, s.TotalExpense.Cents)
	}
}
