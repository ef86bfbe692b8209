package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/salesledger/pkg/app"
	"github.com/ghuser/salesledger/pkg/cache"
	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/pkg/kafka"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/pkg/telemetry"
	"github.com/ghuser/salesledger/pkg/workflows"
	"github.com/ghuser/salesledger/services/sales/application/consumers"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
	salesworkflows "github.com/ghuser/salesledger/services/sales/application/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus := events.NewEventBus(pool.DB(), cfg, log)
	if err := eventBus.InitializeTopics(consumers.Topics...); err != nil {
		log.Error("failed to initialize event topics", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	// Redis is optional here: without it there is no cache to invalidate.
	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, product cache invalidation disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	var temporalClient *workflows.TemporalClient
	if cfg.TemporalEnabled {
		temporalClient, err = workflows.NewTemporalClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer temporalClient.Close()
	}

	a := &app.Application{
		Config:         cfg,
		Db:             pool,
		Logger:         log,
		EventBus:       eventBus,
		Redis:          redisClient,
		TemporalClient: temporalClient,
	}

	var producer *kafka.Producer
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		producer = kafka.NewProducer(brokers, cfg.KafkaTopic)
		defer producer.Close() //nolint:errcheck
		log.Info("kafka relay enabled", "brokers", brokers, "topic", cfg.KafkaTopic)
	}

	if err := registerSubscribers(ctx, a, producer); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	if temporalClient != nil {
		svcs := appsvcs.New(a)
		w := salesworkflows.NewWorker(temporalClient, salesworkflows.NewActivities(svcs.Cancellation))
		if err := w.Start(); err != nil {
			log.Error("failed to start temporal worker", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer w.Stop()
		log.Info("temporal worker started", "task_queue", temporalClient.TaskQueue)
	}

	<-ctx.Done()
	log.Info("shutting down worker...")
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
}

// registerSubscribers wires the sales event consumers. The broker relay runs
// only when a producer is configured.
func registerSubscribers(ctx context.Context, a *app.Application, producer *kafka.Producer) error {
	var invalidator consumers.ProductInvalidator
	if a.Redis != nil {
		invalidator = cache.NewProductCache(a.Redis, a.Config.ProductCacheTTL)
	}

	var relay consumers.Publisher
	if producer != nil {
		relay = producer
	}

	return consumers.Register(ctx, a.EventBus, invalidator, relay, a.Logger)
}
