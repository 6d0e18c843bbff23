package backend

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/amqp"
	"carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/store"
	"carteira/internal/store/memory"
	"carteira/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the store and, when configured, the AMQP connection. A
// broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change feed",
				log.FieldError, err.Error())
			client = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	opts := []services.Option{services.WithLogger(f.logger), services.WithLocation(config.Location)}
	if config.CacheSize > 0 && config.CacheTTL > 0 {
		opts = append(opts, services.WithCache(config.CacheSize, config.CacheTTL))
	}
	if client != nil && config.Publish {
		opts = append(opts, services.WithPublisher(client))
	}
	ledger := services.NewLedger(s, opts...)

	f.logger.InfoContext(ctx, "Initialized ledger",
		"backend", config.Type.String(),
		"amqp_enabled", client != nil,
		"publish", client != nil && config.Publish)

	return &Result{
		Ledger: ledger,
		AMQP:   client,
		Cleanup: func() error {
			err := ledger.Close()
			// The ledger closes the client only when it publishes through it.
			if client != nil && !config.Publish {
				err = errors.Join(err, client.Close())
			}
			return err
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (store.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := sqlite.Open(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return s, nil
	case FileBackend:
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		return memory.NewWithDir(config.DataDirectory, f.logger), nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
