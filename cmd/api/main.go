package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendorleads/lead-pipeline/cmd/mainconfig"
	"github.com/vendorleads/lead-pipeline/internal/api/router"
	"github.com/vendorleads/lead-pipeline/internal/archive"
	appconfig "github.com/vendorleads/lead-pipeline/internal/config"
	"github.com/vendorleads/lead-pipeline/internal/dispatch"
	"github.com/vendorleads/lead-pipeline/internal/ingest"
	"github.com/vendorleads/lead-pipeline/internal/observability/metrics"
	"github.com/vendorleads/lead-pipeline/internal/vendorcfg"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-pipeline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	// Ingress dependencies: durable queue, event bus, vendor config, archive.
	sqsClient := sqs.NewFromConfig(awsCfg)
	queueDispatcher := dispatch.NewQueueDispatcher(sqsClient, cfg.LeadsQueueURL, logger.WithComponent("dispatch"), pipelineMetrics)

	var archiver dispatch.EnvelopeArchiver
	if cfg.ArchiveBucket != "" {
		archiver = archive.NewStore(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger.WithComponent("archive"))
	}

	eventsClient := eventbridge.NewFromConfig(awsCfg)
	eventDispatcher := dispatch.NewEventDispatcher(eventsClient, cfg.EventBusName, archiver, logger.WithComponent("dispatch"), pipelineMetrics)

	ssmClient := ssm.NewFromConfig(awsCfg)
	vendors := vendorcfg.NewProvider(ssmClient, cfg.VendorsConfigParam, cfg.VendorsConfigTTL, logger.WithComponent("vendorcfg"))

	ingestHandler := ingest.NewHandler(queueDispatcher, eventDispatcher, vendors, logger.WithComponent("ingest"), pipelineMetrics)

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		IngestHandler:  ingestHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
