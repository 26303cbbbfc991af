package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finassist/internal/assistant"
	"finassist/internal/backend"
	"finassist/internal/cache"
	"finassist/internal/cli"
	"finassist/internal/config"
	"finassist/internal/core"
	apphttp "finassist/internal/http"
	"finassist/internal/log"
	"finassist/internal/metrics"
	"finassist/internal/store"
)

const cacheSweepInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(log.New(log.DefaultConfig()))
	logger := cli.SetupLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("FinAssist stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.ShutdownContext()
	defer stop()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	expenses, err := store.Open(ctx, result.Store, store.Options{
		Key:      cfg.StorageKey,
		Logger:   logger,
		OnChange: m.ExpenseChanged,
	})
	if err != nil {
		return err
	}
	m.SetExpenseCount(expenses.Len())

	engine := assistant.New(
		assistant.WithMonthlyIncome(core.MoneyFromDecimal(cfg.MonthlyIncome)),
		assistant.WithCurrency(cfg.CurrencySymbol),
		assistant.WithObserver(m.ChatReplied),
	)

	srv, err := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Store:      expenses,
		Assistant:  engine,
		Transcript: assistant.NewTranscript(),
		Metrics:    m,
		Logger:     logger,
		Ready:      result.Ready,
		SummaryTTL: cfg.SummaryCacheTTL,
	})
	if err != nil {
		return err
	}

	caches := cache.NewManager(logger)
	for _, c := range srv.Cleaners() {
		caches.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting FinAssist server",
			"addr", srv.Addr,
			log.FieldBackend, cfg.DataBackend,
			log.FieldCount, expenses.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()

	if err := expenses.Close(context.Background()); err != nil {
		logger.Error("Closing expense store failed", log.FieldError, err)
	}
	return serveErr
}
