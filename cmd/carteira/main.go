package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/advisor"
	"carteira/internal/backend"
	"carteira/internal/cache"
	"carteira/internal/cli"
	apphttp "carteira/internal/http"
	"carteira/internal/log"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentApp)
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	caches := cache.NewManager(logger)
	for _, c := range res.Ledger.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithLocale(cfg.ReportLocale()),
		apphttp.WithLocation(cfg.Location()),
		apphttp.WithAdvisorRateLimit(cfg.AdvisorRequestsPerMinute),
	}
	if cfg.AdvisorEnabled() {
		a, err := advisor.New(ctx, advisor.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			ImageModel: cfg.GeminiImageModel,
			Timeout:    cfg.AdvisorTimeout,
		}, logger)
		if err != nil {
			logger.Warn("Advisor disabled", log.FieldError, err.Error())
		} else {
			opts = append(opts, apphttp.WithAdvisor(a))
			logger.Info("Advisor enabled", log.FieldModel, cfg.GeminiModel)
		}
	} else {
		logger.Info("Advisor disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, res.Ledger, opts...)
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = cfg.AdvisorTimeout + 15*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting carteira server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
