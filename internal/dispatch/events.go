package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/vendorleads/lead-pipeline/internal/observability/metrics"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

const (
	// EventSource and EventDetailType identify lead envelopes on the bus; the
	// CRM delivery rule matches on both.
	EventSource     = "vendorleads.upsert"
	EventDetailType = "LeadsReceived"
)

// EventDetail is the envelope detail carried on the bus: one envelope per
// chunk of up to 10 leads, never one per lead.
type EventDetail struct {
	Vendor string `json:"vendor"`
	Leads  []any  `json:"leads"`
}

type eventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EnvelopeArchiver mirrors successfully published envelopes to cold storage.
// Archival is best-effort and never affects dispatch outcome.
type EnvelopeArchiver interface {
	ArchiveEnvelope(ctx context.Context, source, detailType string, detail []byte) error
}

// EventDispatcher fans a lead batch out to EventBridge in chunks of at most
// 10. Unlike the queue dispatcher, a transport-level failure is returned so
// the caller can surface it; bus delivery failure is considered serious
// enough to fail the request.
type EventDispatcher struct {
	client   eventBridgeAPI
	busName  string
	archiver EnvelopeArchiver
	logger   *logging.Logger
	metrics  *metrics.PipelineMetrics
}

// NewEventDispatcher creates a dispatcher over the provided EventBridge
// client. The archiver is optional.
func NewEventDispatcher(client eventBridgeAPI, busName string, archiver EnvelopeArchiver, logger *logging.Logger, m *metrics.PipelineMetrics) *EventDispatcher {
	if client == nil {
		panic("dispatch: EventBridge client cannot be nil")
	}
	if busName == "" {
		panic("dispatch: event bus name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EventDispatcher{
		client:   client,
		busName:  busName,
		archiver: archiver,
		logger:   logger,
		metrics:  m,
	}
}

// Dispatch publishes one envelope per chunk. Per-entry failures reported by
// the bus are logged but do not raise; only a transport error propagates.
func (d *EventDispatcher) Dispatch(ctx context.Context, vendor string, leads []any) error {
	for _, chunk := range chunkLeads(leads) {
		detail, err := json.Marshal(EventDetail{Vendor: vendor, Leads: chunk})
		if err != nil {
			return fmt.Errorf("dispatch: failed to marshal event detail: %w", err)
		}

		out, err := d.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: []ebtypes.PutEventsRequestEntry{
				{
					EventBusName: aws.String(d.busName),
					Source:       aws.String(EventSource),
					DetailType:   aws.String(EventDetailType),
					Detail:       aws.String(string(detail)),
				},
			},
		})
		if err != nil {
			d.metrics.ObserveEventFailure("transport")
			return fmt.Errorf("dispatch: failed to publish lead event: %w", err)
		}

		if out.FailedEntryCount > 0 {
			for _, entry := range out.Entries {
				if entry.ErrorCode == nil {
					continue
				}
				d.logger.Error("event entry rejected by bus",
					"vendor", vendor,
					"code", aws.ToString(entry.ErrorCode),
					"message", aws.ToString(entry.ErrorMessage),
				)
				d.metrics.ObserveEventFailure("entry")
			}
			continue
		}

		if d.archiver != nil {
			if err := d.archiver.ArchiveEnvelope(ctx, EventSource, EventDetailType, detail); err != nil {
				d.logger.Warn("envelope archive failed",
					"vendor", vendor,
					"error", err,
				)
			}
		}
	}
	return nil
}
