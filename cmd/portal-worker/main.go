package main

import (
	"context"
	"errors"
	"os"
	"time"

	"portalunk/internal/amqp"
	"portalunk/internal/backend"
	"portalunk/internal/cli"
	"portalunk/internal/dashboard"
	applog "portalunk/internal/log"
	"portalunk/internal/services"
	"portalunk/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	consumeBackoff  = 5 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	defer logger.Close()

	logger.Info("Starting portal-worker")

	ctx := applog.NewContext(context.Background(), logger)
	res := cli.InitBackend(ctx, logger, cfg)

	writer, err := backend.NewReportWriter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize report writer", "error", err)
		os.Exit(1)
	}

	// The worker rebuilds every report from the stores, so it keeps no cache.
	dash := services.NewDashboardService(res.Stores, nil, dashboard.Options{
		UpcomingDays:  cfg.UpcomingWindowDays,
		RevenueMonths: cfg.RevenueMonths,
		TopGenres:     5,
	}, cfg.Location())

	processorCfg := services.DefaultReportProcessorConfig()
	processorCfg.Interval = cfg.ReportInterval
	processor := services.NewReportProcessor(dash, writer, processorCfg)

	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled, exporting on the report interval only", "interval", cfg.ReportInterval)
	}

	runCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Report processor stop failed", "error", err)
		}
		if client != nil {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close data backend", "error", err)
		}
	})
	runCtx = applog.NewContext(runCtx, logger)

	if err := processor.Start(runCtx); err != nil {
		logger.Error("Failed to start report processor", "error", err)
		os.Exit(1)
	}

	if client != nil {
		handler := worker.NewReportWorker(dash, processor)
		go consume(runCtx, logger, client, handler)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped gracefully")
}

// consume delivers finance events to handler until ctx ends, reconnecting
// whenever the delivery channel closes.
func consume(ctx context.Context, logger *applog.Logger, client *amqp.Client, handler *worker.ReportWorker) {
	for {
		err := client.Consume(ctx, handler.HandleMessage)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(consumeBackoff):
		}
		if err := client.Reconnect(ctx); err != nil {
			logger.Error("AMQP reconnect failed", "error", err)
		}
	}
}
