package backend

import (
	"context"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/services"
)

// BackendType names a transaction store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	}
	return false
}

func (t BackendType) String() string { return string(t) }

// CleanupFunc releases what the factory opened.
type CleanupFunc func() error

// Result is a ready ledger plus the broker connection, when one was opened.
type Result struct {
	Ledger *services.Ledger
	// AMQP is nil when the change feed is disabled or unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory assembles a ledger from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	DataDirectory string
	SQLiteDBPath  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// Publish makes the ledger announce its mutations on the change feed.
	Publish bool

	CacheSize int
	CacheTTL  time.Duration
	Location  *time.Location
}
