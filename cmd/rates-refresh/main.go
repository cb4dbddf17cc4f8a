// Command rates-refresh forces one exchange-rate fetch and persists the
// snapshot, for cron use.
package main

import (
	"context"
	"os"
	"time"

	"budgetbook/internal/cli"
	"budgetbook/internal/rates"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	cache := rates.NewCache(cfg.DataDir, cfg.BaseCurrency, cfg.RateTTL, rates.NewProvider(cfg.RateAPIURL))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := cache.Refresh(ctx, true)
	if err != nil {
		logger.Error("Rate refresh failed", "error", err, "base", cfg.BaseCurrency)
		os.Exit(1)
	}
	logger.Info("Rates refreshed", "base", snap.Base, "currencies", len(snap.Rates))
}
