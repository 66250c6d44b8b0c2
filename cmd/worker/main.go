package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medex-ai/medex/internal/bootstrap"
	"github.com/medex-ai/medex/internal/config"
	"github.com/medex-ai/medex/internal/observability/logging"
	"github.com/medex-ai/medex/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSourceReceived(ctx, func(handlerCtx context.Context, sourceID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartSource()
		start := time.Now()

		indexErr := app.IndexUC.IndexByID(indexCtx, sourceID)

		chunkCount := 0
		if indexErr == nil {
			if src, err := app.Sources.GetByID(indexCtx, sourceID); err == nil {
				chunkCount = src.ChunkCount
				workerMetrics.ObserveQueueLag("worker", start.Sub(src.CreatedAt))
			}
		}
		workerMetrics.FinishSource("worker", time.Since(start), chunkCount, indexErr)
		return indexErr
	})
	if err != nil {
		slog.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
