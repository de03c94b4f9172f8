package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/vendorleads/lead-pipeline/internal/ingest"
	"github.com/vendorleads/lead-pipeline/internal/vendorcfg"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

type nopQueue struct{}

func (nopQueue) Dispatch(ctx context.Context, requestID, vendor string, leads []any) {}

type nopEvents struct{}

func (nopEvents) Dispatch(ctx context.Context, vendor string, leads []any) error { return nil }

type emptyVendors struct{}

func (emptyVendors) Load(ctx context.Context) vendorcfg.Vendors { return vendorcfg.Vendors{} }

func testHandler() *ingest.Handler {
	return ingest.NewHandler(nopQueue{}, nopEvents{}, emptyVendors{}, logging.Default(), nil)
}

func TestHandlePostJSON(t *testing.T) {
	evt := events.APIGatewayV2HTTPRequest{
		RawPath: "/leads",
		Headers: map[string]string{
			"content-type": "application/json",
			"vendor":       "acme",
		},
		Body: `{"email":"a@b.c"}`,
	}
	evt.RequestContext.HTTP.Method = http.MethodPost

	resp, err := handle(context.Background(), testHandler(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if !strings.Contains(resp.Body, "Leads processed asynchronously.") {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers: %v", resp.Headers)
	}
}

func TestHandleBase64FormBody(t *testing.T) {
	raw := "a=1&b=hello%20world&vendor=acme"
	evt := events.APIGatewayV2HTTPRequest{
		RawPath:         "/leads",
		RawQueryString:  "vendor=acme",
		Headers:         map[string]string{"content-type": "application/x-www-form-urlencoded"},
		Body:            base64.StdEncoding.EncodeToString([]byte(raw)),
		IsBase64Encoded: true,
	}
	evt.RequestContext.HTTP.Method = http.MethodPost

	resp, err := handle(context.Background(), testHandler(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestHandleInvalidBase64(t *testing.T) {
	evt := events.APIGatewayV2HTTPRequest{
		Body:            "%%% not base64 %%%",
		IsBase64Encoded: true,
	}
	evt.RequestContext.HTTP.Method = http.MethodPost

	resp, err := handle(context.Background(), testHandler(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleOptionsPreflight(t *testing.T) {
	evt := events.APIGatewayV2HTTPRequest{RawPath: "/leads"}
	evt.RequestContext.HTTP.Method = http.MethodOptions

	resp, err := handle(context.Background(), testHandler(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("expected CORS headers on preflight, got %v", resp.Headers)
	}
}
