package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/resqnow/evac-routing-service/internal/adapter/directions"
	httpadapter "github.com/resqnow/evac-routing-service/internal/adapter/http"
	kafkaadapter "github.com/resqnow/evac-routing-service/internal/adapter/kafka"
	"github.com/resqnow/evac-routing-service/internal/adapter/postgres"
	"github.com/resqnow/evac-routing-service/internal/adapter/sms"
	"github.com/resqnow/evac-routing-service/internal/config"
	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/ingest"
	"github.com/resqnow/evac-routing-service/internal/observability"
	"github.com/resqnow/evac-routing-service/internal/routing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// Directions provider (feature-flagged via DIRECTIONS_ENABLED / GMP_API_KEY).
	var provider domain.DirectionsProvider
	if cfg.DirectionsEnabled {
		provider = directions.NewClient(cfg.DirectionsAPIKey, cfg.DirectionsTimeout, metrics, logger)
		logger.Info("directions provider enabled", "timeout", cfg.DirectionsTimeout)
	} else {
		logger.Info("directions provider disabled, using bearing fallback")
	}

	var broadcast routing.BroadcastPublisher
	var kafkaBroadcast *kafkaadapter.Broadcast
	if cfg.BroadcastTopic != "" {
		kafkaBroadcast = kafkaadapter.NewBroadcast(cfg, logger)
		broadcast = kafkaBroadcast
		logger.Info("broadcast channel enabled", "topic", cfg.BroadcastTopic)
	} else {
		logger.Info("broadcast channel disabled")
	}

	var direct routing.DirectMessenger
	if cfg.SMSGatewayURL != "" {
		direct = sms.NewClient(cfg.SMSGatewayURL, cfg.SMSTimeout, logger)
		logger.Info("sms channel enabled", "timeout", cfg.SMSTimeout)
	} else {
		logger.Info("sms channel disabled")
	}

	clock := clockwork.NewRealClock()
	cache := routing.NewCache(store, clock, logger, metrics)
	resolver := routing.NewResolver(provider, cfg.MaxSteps, logger, metrics)
	dispatcher := routing.NewDispatcher(broadcast, direct, logger, metrics)
	engine := routing.NewEngine(store, store, store, cache, resolver, dispatcher, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	p := ingest.New(reader, store, store, store, resolver, clock, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, store, store, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start alert ingestion.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("ingest pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if kafkaBroadcast != nil {
		if err := kafkaBroadcast.Close(); err != nil {
			logger.Error("kafka broadcast close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
