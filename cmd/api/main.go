package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/docs"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/bootstrap"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/catalog"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/config"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/handler"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/logger"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/queue/sqs"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/scheduler"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/service"
)

// @title Notification Timing Engine API
// @version 1.0
// @description Engagement analysis, delivery timing prediction and frequency policies for notifications
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("event_store", cfg.Service.EventStore))

	params, err := cfg.Engine.Params()
	if err != nil {
		log.Fatal("Invalid engine configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notification type catalog
	types := catalog.New(cfg.Catalog.Path, log)
	if err := types.Load(); err != nil {
		log.Fatal("Failed to load notification catalog", zap.Error(err))
	}
	if cfg.Catalog.Path != "" && cfg.Catalog.Watch {
		go func() {
			if err := types.Watch(ctx); err != nil {
				log.Error("Catalog watcher stopped", zap.Error(err))
			}
		}()
	}

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	store, err := bootstrap.OpenEventStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open event store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close event store", zap.Error(err))
		}
	}()

	valkey, err := bootstrap.OpenValkey(ctx, cfg.Valkey, log)
	if err != nil {
		log.Fatal("Failed to connect to Valkey", zap.Error(err))
	}
	if valkey != nil {
		defer valkey.Close()
	}

	prefs, err := bootstrap.OpenPreferences(ctx, cfg, valkey, log)
	if err != nil {
		log.Fatal("Failed to open preference store", zap.Error(err))
	}
	defer prefs.Close()

	var opts []service.TimingOption
	if prefs.Writer != nil {
		opts = append(opts, service.WithPreferenceWriter(prefs.Writer))
	}
	if valkey != nil {
		opts = append(opts, service.WithPolicySnapshots(bootstrap.PolicySnapshots(cfg.Valkey, valkey)))
	}

	eventService := service.NewEventService(sqsClient, log)
	timingService := service.NewTimingService(store, prefs.Store, types, params, log, opts...)

	if cfg.Refresher.Enabled {
		if valkey == nil {
			log.Warn("Policy refresher enabled but Valkey is not configured, skipping")
		} else {
			refresher := scheduler.NewRefresher(timingService, cfg.Refresher, params.Location, log)
			if err := refresher.Start(); err != nil {
				log.Fatal("Failed to start policy refresher", zap.Error(err))
			}
			defer refresher.Stop()
		}
	}

	docs.SwaggerInfo.Host = cfg.Service.Host
	h := handler.NewHandler(eventService, timingService, log)

	timeout := time.Duration(cfg.Service.RequestTimeoutSec) * time.Second
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.APIPort),
		Handler:           http.TimeoutHandler(h, timeout, `{"error":"timeout","message":"request timed out"}`),
		ReadHeaderTimeout: timeout,
	}

	go func() {
		log.Info("API server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}
