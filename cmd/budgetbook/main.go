package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cli"
	apphttp "budgetbook/internal/http"
	"budgetbook/internal/log"
	"budgetbook/internal/rates"
	"budgetbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	stores := cli.InitBackend(logger, cfg)
	defer func() {
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	// Optional event publishing; nil client makes every publish a no-op.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without events", "error", err)
		} else {
			events = client
			defer events.Close()
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(stores.Ledger, stores.Budgets, events)
	rateCache := rates.NewCache(cfg.DataDir, cfg.BaseCurrency, cfg.RateTTL, rates.NewProvider(cfg.RateAPIURL))

	srv := apphttp.NewServer(":"+cfg.Port, svc, rateCache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Background rate refresh keeps the cache warm within its TTL.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RateTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := rateCache.Refresh(ctx, false); err != nil {
					logger.WithComponent(log.ComponentRates).Warn("Rate refresh failed", "error", err)
				}
			}
		}
	})

	logger.Info("budgetbook started", "port", cfg.Port, "backend", cfg.LedgerBackend, "base_currency", cfg.BaseCurrency)
	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
