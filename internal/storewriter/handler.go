// Package storewriter consumes queued lead messages in batches and persists
// them. It is the second half of the queue fan-out path: the ingestion
// handler enqueues, this package resolves identifiers and writes records.
package storewriter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/vendorleads/lead-pipeline/internal/dispatch"
	"github.com/vendorleads/lead-pipeline/internal/leadid"
	"github.com/vendorleads/lead-pipeline/internal/observability/metrics"
	"github.com/vendorleads/lead-pipeline/internal/store"
	"github.com/vendorleads/lead-pipeline/internal/vendorcfg"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

type leadPutter interface {
	PutBatch(ctx context.Context, records []store.Record) (store.WriteOutcome, error)
}

type vendorsLoader interface {
	Load(ctx context.Context) vendorcfg.Vendors
}

// Handler persists one SQS batch of queued lead messages.
type Handler struct {
	store   leadPutter
	vendors vendorsLoader
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

// NewHandler creates a store-writer handler.
func NewHandler(leadStore leadPutter, vendors vendorsLoader, logger *logging.Logger, m *metrics.PipelineMetrics) *Handler {
	if leadStore == nil {
		panic("storewriter: lead store cannot be nil")
	}
	if vendors == nil {
		panic("storewriter: vendors loader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:   leadStore,
		vendors: vendors,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle parses every record, resolves identifiers against the freshly
// loaded vendor configuration, and issues one batch put. A parse failure
// aborts the whole batch so the queue redelivers it; persistence drops after
// exhausted retries are reported, not raised.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) error {
	if len(event.Records) == 0 {
		return nil
	}

	messages := make([]dispatch.Message, 0, len(event.Records))
	for _, record := range event.Records {
		var msg dispatch.Message
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			return fmt.Errorf("storewriter: failed to parse queue record %s: %w", record.MessageId, err)
		}
		messages = append(messages, msg)
	}

	vendors := h.vendors.Load(ctx)
	receivedAt := h.now()

	records := make([]store.Record, 0, len(messages))
	for _, msg := range messages {
		leadObj, _ := msg.Lead.(map[string]any)
		resolvedID := leadid.Resolve(leadObj, vendors, msg.Vendor)
		records = append(records, store.NewRecord(resolvedID, msg.Vendor, msg.Lead, receivedAt))
	}

	outcome, err := h.store.PutBatch(ctx, records)
	h.metrics.ObservePersisted(outcome.Written)
	h.metrics.ObserveDropped(outcome.Dropped)
	h.metrics.ObservePersistRetries(outcome.Retries)
	if err != nil {
		return fmt.Errorf("storewriter: batch persist failed: %w", err)
	}

	if outcome.Dropped > 0 {
		h.logger.Error("leads dropped after exhausted persistence retries",
			"dropped", outcome.Dropped,
			"written", outcome.Written,
		)
	} else {
		h.logger.Info("lead batch persisted",
			"written", outcome.Written,
		)
	}
	return nil
}
