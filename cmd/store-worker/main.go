package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/vendorleads/lead-pipeline/cmd/mainconfig"
	appconfig "github.com/vendorleads/lead-pipeline/internal/config"
	"github.com/vendorleads/lead-pipeline/internal/store"
	"github.com/vendorleads/lead-pipeline/internal/storewriter"
	"github.com/vendorleads/lead-pipeline/internal/vendorcfg"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.LeadsQueueURL == "" {
		logger.Error("store worker requires LEADS_QUEUE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	leadStore := store.NewLeadStore(dynamoClient, cfg.LeadsTable, logger.WithComponent("store"))

	ssmClient := ssm.NewFromConfig(awsCfg)
	vendors := vendorcfg.NewProvider(ssmClient, cfg.VendorsConfigParam, cfg.VendorsConfigTTL, logger.WithComponent("vendorcfg"))

	handler := storewriter.NewHandler(leadStore, vendors, logger.WithComponent("storewriter"), nil)

	queue := storewriter.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.LeadsQueueURL)
	poller := storewriter.NewPoller(queue, handler, logger).
		WithWorkerCount(cfg.WorkerCount).
		WithWaitSeconds(cfg.PollWaitSeconds)

	logger.Info("store worker starting",
		"table", cfg.LeadsTable,
		"workers", cfg.WorkerCount,
	)
	poller.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("store worker shutting down")
	cancel()
	poller.Wait()
}
