package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/backend"
	"carteira/internal/cli"
	"carteira/internal/log"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentWorker)
	logger.Info("Starting carteira-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	if !backendCfg.Shared() {
		logger.Error("The worker needs a file or sqlite backend shared with the server",
			"backend", backendCfg.Type.String())
		os.Exit(1)
	}
	// The worker only reads; its own recomputations are not news.
	backendCfg.Publish = false

	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()
	if res.AMQP == nil {
		logger.Error("Could not connect to AMQP broker", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	w := worker.NewChangeWorker(res.Ledger, cfg.Location(), cfg.ReportLocale(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.AMQP.Consume(gctx, w.HandleChange)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.WarmInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.Warm(gctx, 2*cfg.WarmInterval); err != nil {
					logger.Error("Periodic recompute failed", log.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
