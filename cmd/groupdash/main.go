package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"groupdash/internal/amqp"
	"groupdash/internal/backend"
	"groupdash/internal/cli"
	apphttp "groupdash/internal/http"
	"groupdash/internal/log"
	"groupdash/internal/services"
	"groupdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadConfig()
	logger := cli.SetupLogger(cfg)
	if cfgErr != nil {
		cli.Exit(logger, "Configuration validation failed", cfgErr)
	}

	rules, err := cli.LoadRules(logger, cfg.ReconcileRulesFile)
	if err != nil {
		cli.Exit(logger, "Failed to load reconciliation rules", err, "path", cfg.ReconcileRulesFile)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Exit(logger, "Invalid backend configuration", err)
	}
	src, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		cli.Exit(logger, "Failed to initialize data backend", err, log.FieldBackend, cfg.DataBackend)
	}
	defer src.Close()

	// AMQP is optional: without a broker the server still loads on start
	// and on POST /api/reload.
	var amqpClient *amqp.Client
	var notifier services.Notifier
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPNotifyQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without messaging", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue,
				"notify_queue", cfg.AMQPNotifyQueue)
		}
	}

	loader := services.NewLoader(src.Source, services.LoaderConfig{
		FetchTimeout: cfg.SourceTimeout,
		Rules:        rules,
	}, logger, notifier)
	defer loader.Close()

	srv := apphttp.NewServer(":"+cfg.Port, loader, apphttp.Options{
		Logger:         logger,
		QueryCacheSize: cfg.QueryCacheSize,
		TrustedProxies: cfg.TrustedProxies,
	})

	// Initial load runs in the background; handlers answer 503 with the
	// load status until it commits.
	go func() {
		if _, err := loader.Load(ctx); err != nil {
			logger.Warn("Initial load failed", log.FieldError, err)
		}
	}()

	if amqpClient != nil {
		reloads := worker.NewReloadWorker(loader, logger)
		go func() {
			err := amqpClient.ConsumeReloadRequests(ctx, reloads.HandleReloadRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Reload consumer stopped", log.FieldError, err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting groupdash server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
