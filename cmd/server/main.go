package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/climascope/climate-grid-engine/internal/adapter/httpapi"
	kafkaadapter "github.com/climascope/climate-grid-engine/internal/adapter/kafka"
	"github.com/climascope/climate-grid-engine/internal/adapter/openmeteo"
	"github.com/climascope/climate-grid-engine/internal/config"
	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/engine"
	"github.com/climascope/climate-grid-engine/internal/ingest"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/spatial"
	"github.com/climascope/climate-grid-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Grid store: Postgres when a DSN is configured, in-memory otherwise.
	var gridStore store.GridStore
	var pg *store.PostgresStore
	if cfg.DatabaseURL != "" {
		pg, err = store.OpenPostgres(cfg.DatabaseURL, cfg.BunDebug)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		gridStore = pg
		logger.Info("postgres grid store ready")
	} else {
		gridStore = store.NewMemoryStore()
		logger.Info("no DATABASE_URL set, using in-memory grid store")
	}

	client := openmeteo.NewClient(cfg.ProviderBaseURL, cfg.ProviderModels, cfg.ProviderTimeout, metrics, logger)
	provider := openmeteo.NewCachedProvider(client, domain.Clock(), cfg.BaselineCacheTTL, metrics)

	// Kafka publishing is feature-flagged; a nil publisher disables it.
	var publisher ingest.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)
		publisher = kafkaPub
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	pipeline := ingest.New(provider, gridStore, publisher, logger, metrics, cfg.FetchDelay, cfg.ProviderModels)
	resolver := engine.New(gridStore, spatial.New(gridStore), pipeline, logger, metrics, true)

	srv := httpapi.NewServer(cfg.HTTPAddr, resolver, pipeline, gridStore, cfg.AllowedOrigins, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if pg != nil {
		if err := pg.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
