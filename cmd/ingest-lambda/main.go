package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/vendorleads/lead-pipeline/cmd/mainconfig"
	"github.com/vendorleads/lead-pipeline/internal/archive"
	appconfig "github.com/vendorleads/lead-pipeline/internal/config"
	"github.com/vendorleads/lead-pipeline/internal/dispatch"
	"github.com/vendorleads/lead-pipeline/internal/ingest"
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

	sqsClient := sqs.NewFromConfig(awsCfg)
	queueDispatcher := dispatch.NewQueueDispatcher(sqsClient, cfg.LeadsQueueURL, logger, nil)

	var archiver dispatch.EnvelopeArchiver
	if cfg.ArchiveBucket != "" {
		archiver = archive.NewStore(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)
	}

	eventsClient := eventbridge.NewFromConfig(awsCfg)
	eventDispatcher := dispatch.NewEventDispatcher(eventsClient, cfg.EventBusName, archiver, logger, nil)

	ssmClient := ssm.NewFromConfig(awsCfg)
	vendors := vendorcfg.NewProvider(ssmClient, cfg.VendorsConfigParam, cfg.VendorsConfigTTL, logger)

	handler := ingest.NewHandler(queueDispatcher, eventDispatcher, vendors, logger, nil)

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, handler, evt)
	})
}

// handle bridges an API Gateway proxy event onto the shared HTTP handler so
// the Lambda and hosted deployments share one ingress code path.
func handle(ctx context.Context, handler *ingest.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := buildRequest(ctx, evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid request"}, nil
	}

	rec := newResponseCapture()
	handler.SubmitLeads(rec, req)

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: rec.status,
		Body:       rec.body.String(),
		Headers:    map[string]string{},
	}
	for key := range rec.header {
		out.Headers[key] = rec.header.Get(key)
	}
	return out, nil
}

func buildRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodPost
	}

	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = "/leads"
	}
	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}

	body, err := decodeBody(evt)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range evt.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 body: %w", err)
	}
	return decoded, nil
}

// responseCapture is a minimal http.ResponseWriter for converting the shared
// handler's output back into a proxy response.
type responseCapture struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseCapture() *responseCapture {
	return &responseCapture{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *responseCapture) Header() http.Header {
	return r.header
}

func (r *responseCapture) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

func (r *responseCapture) WriteHeader(status int) {
	r.status = status
}
