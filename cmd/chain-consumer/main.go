package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
	"github.com/chainquest/platform/internal/infra"
	"github.com/chainquest/platform/internal/projection"
	"github.com/chainquest/platform/internal/provider"
	"github.com/chainquest/platform/internal/repository"
	"github.com/chainquest/platform/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("chain consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("chain-consumer connected to postgres")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	oracle := provider.NewRandomnessOracle(cfg.RandomOrgAPIKey, logger)
	breaker := guard.NewCircuitBreaker(cfg.OracleFailThreshold, 30*time.Second)
	eng := engine.New(cat, provider.NewGuardedRandomSource(oracle, breaker))

	avail, err := projection.NewAvailabilityCache(cfg.AvailabilityCacheSize)
	if err != nil {
		return fmt.Errorf("create availability cache: %w", err)
	}

	progSvc := service.NewProgressionService(
		pool, eng,
		repository.NewPlayerStateRepository(),
		repository.NewGrantRepository(),
		repository.NewOutboxRepository(),
		guard.NewPlayerLocks(),
		avail,
		nil,
		logger,
	)
	eventSvc := service.NewChainEventService(progSvc, guard.NewIdempotencyGuard(), logger)

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, cfg.ChainEventTopic, cfg.ChainEventGroup, cfg.KafkaEnabled, logger)
	if !consumer.Enabled() {
		return fmt.Errorf("kafka is disabled; the chain consumer has nothing to read")
	}
	defer consumer.Close()

	logger.Info("chain-consumer starting", "topic", cfg.ChainEventTopic, "group", cfg.ChainEventGroup)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("chain-consumer shutting down")
				return nil
			}
			logger.Error("kafka read error", "error", err)
			continue
		}

		var rec domain.EventRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			logger.Error("malformed chain event dropped", "offset", msg.Offset, "error", err)
			continue
		}

		results, err := eventSvc.Handle(ctx, rec)
		if err != nil {
			logger.Error("chain event rejected", "unique_id", rec.UniqueID, "error", err)
			continue
		}
		if len(results) > 0 {
			logger.Info("chain event verified",
				"unique_id", rec.UniqueID,
				"player_id", rec.PlayerID,
				"quests_advanced", len(results),
			)
		}
	}
}
