package main

import (
	"context"

	"go.uber.org/zap"

	"rebalancer/config"
	"rebalancer/internal"
	"rebalancer/internal/clients"
	"rebalancer/internal/domain"
	"rebalancer/internal/services/weights"
	"rebalancer/internal/storage/journal"
	"rebalancer/pkg/supervisor"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	exchange := clients.NewCoinbase(cfg.APIURL, cfg.APIKey, cfg.APISecret, cfg.APIPassphrase)
	capSource := clients.NewCoinMarketCap("")

	store, err := journal.NewWALStore(cfg.JournalDir)
	if err != nil {
		logger.Fatal("failed to open execution journal", zap.Error(err))
	}
	defer store.Close()

	oracle := weights.New(logger, capSource)
	bot := internal.NewRebalancer(cfg, logger, exchange, oracle, store)

	sup := supervisor.New(logger,
		supervisor.WithMaxAttempts(cfg.MaxRetries),
		supervisor.WithNoRetry(domain.ErrConfigurationInvalid))

	if err := sup.Run(context.Background(), bot.Run); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logger.Info("run complete", zap.String("mode", cfg.Mode))
}
