package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
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

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	leadStore := store.NewLeadStore(dynamoClient, cfg.LeadsTable, logger.WithComponent("store"))

	ssmClient := ssm.NewFromConfig(awsCfg)
	vendors := vendorcfg.NewProvider(ssmClient, cfg.VendorsConfigParam, cfg.VendorsConfigTTL, logger.WithComponent("vendorcfg"))

	handler := storewriter.NewHandler(leadStore, vendors, logger.WithComponent("storewriter"), nil)

	lambda.Start(handler.Handle)
}
