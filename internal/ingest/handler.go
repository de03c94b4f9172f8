package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vendorleads/lead-pipeline/internal/leadid"
	"github.com/vendorleads/lead-pipeline/internal/observability/metrics"
	"github.com/vendorleads/lead-pipeline/internal/vendorcfg"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

const (
	errEmptyVendor = "Vendor name cannot be empty."
	errNoLeadData  = "No lead data provided in body or query parameters."

	// Vendor used for response formatting when the failure happened before
	// vendor resolution.
	unknownVendor = "unknown"

	maxBodyBytes = 1 << 20
)

// QueueDispatcher fans leads out to the durable queue. Best-effort: failures
// are logged by the implementation and never surfaced here.
type QueueDispatcher interface {
	Dispatch(ctx context.Context, requestID, vendor string, leads []any)
}

// EventDispatcher fans leads out to the event bus. A transport failure is
// returned and fails the request.
type EventDispatcher interface {
	Dispatch(ctx context.Context, vendor string, leads []any) error
}

type vendorsLoader interface {
	Load(ctx context.Context) vendorcfg.Vendors
}

// Handler is the HTTP entry point for vendor lead submissions.
type Handler struct {
	queue      QueueDispatcher
	events     EventDispatcher
	vendors    vendorsLoader
	formatters *FormatterRegistry
	logger     *logging.Logger
	metrics    *metrics.PipelineMetrics
}

// NewHandler creates the ingestion handler.
func NewHandler(queue QueueDispatcher, events EventDispatcher, vendors vendorsLoader, logger *logging.Logger, m *metrics.PipelineMetrics) *Handler {
	if queue == nil {
		panic("ingest: queue dispatcher cannot be nil")
	}
	if events == nil {
		panic("ingest: event dispatcher cannot be nil")
	}
	if vendors == nil {
		panic("ingest: vendors loader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		queue:      queue,
		events:     events,
		vendors:    vendors,
		formatters: NewFormatterRegistry(),
		logger:     logger,
		metrics:    m,
	}
}

// SubmitLeads handles POST /leads (and its OPTIONS preflight).
func (h *Handler) SubmitLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeCORSHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	vendor := ExtractVendor(r)
	defer func() {
		observed := vendor
		if observed == "" {
			observed = unknownVendor
		}
		h.metrics.ObserveIngestionLatency(observed, time.Since(start).Seconds())
	}()
	if vendor == "" {
		h.metrics.ObserveLeadRequest(unknownVendor, "rejected")
		h.respond(w, http.StatusBadRequest, h.formatters.For(unknownVendor).Failure(errEmptyVendor, nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read request body", "request_id", requestID, "error", err)
		body = nil
	}

	payload, ok := ExtractPayload(r, body)
	if !ok {
		h.metrics.ObserveLeadRequest(vendor, "rejected")
		h.respond(w, http.StatusBadRequest, h.formatters.For(vendor).Failure(errNoLeadData, nil))
		return
	}

	leadID, leads := h.resolveLeads(r.Context(), vendor, payload)

	h.logger.Info("leads accepted for dispatch",
		"request_id", requestID,
		"vendor", vendor,
		"lead_count", len(leads),
	)

	// Queue fan-out is best-effort; the event-bus fan-out is the
	// error-surfacing path.
	h.queue.Dispatch(r.Context(), requestID, vendor, leads)

	if err := h.events.Dispatch(r.Context(), vendor, leads); err != nil {
		h.logger.Error("event bus dispatch failed",
			"request_id", requestID,
			"vendor", vendor,
			"error", err,
		)
		h.metrics.ObserveLeadRequest(vendor, "failed")
		h.respond(w, http.StatusInternalServerError, h.formatters.For(vendor).Failure(err.Error(), leadID))
		return
	}

	h.metrics.ObserveLeadRequest(vendor, "accepted")
	h.respond(w, http.StatusOK, h.formatters.For(vendor).Success(leadID))
}

// resolveLeads parses the normalized payload and computes the best-effort
// identifier echoed in the response. The echo is defined for single-object
// submissions only; arrays deliberately yield a nil id.
func (h *Handler) resolveLeads(ctx context.Context, vendor, payload string) (*string, []any) {
	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		// Non-JSON passthrough body; treat it as a single opaque lead.
		return nil, []any{payload}
	}

	switch value := parsed.(type) {
	case []any:
		return nil, value
	case map[string]any:
		id := leadid.Resolve(value, h.vendors.Load(ctx), vendor)
		return &id, []any{parsed}
	default:
		return nil, []any{parsed}
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	writeCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func writeCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, PUT, PATCH, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, vendor")
	h.Set("Access-Control-Max-Age", "86400")
}
