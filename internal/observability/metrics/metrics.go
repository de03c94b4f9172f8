package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the lead pipeline.
type PipelineMetrics struct {
	leadRequests     *prometheus.CounterVec
	queueFailures    *prometheus.CounterVec
	eventFailures    *prometheus.CounterVec
	persistRetries   prometheus.Counter
	leadsPersisted   prometheus.Counter
	leadsDropped     prometheus.Counter
	ingestionLatency *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		leadRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "ingest",
			Name:      "lead_requests_total",
			Help:      "Total lead submission requests by vendor and outcome",
		}, []string{"vendor", "status"}),
		queueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "dispatch",
			Name:      "queue_failures_total",
			Help:      "SQS dispatch failures, per-entry and per-chunk",
		}, []string{"kind"}),
		eventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "dispatch",
			Name:      "event_failures_total",
			Help:      "EventBridge dispatch failures, per-entry and per-chunk",
		}, []string{"kind"}),
		persistRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "store",
			Name:      "persist_retries_total",
			Help:      "Batch-write retry attempts caused by unprocessed items",
		}),
		leadsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "store",
			Name:      "leads_persisted_total",
			Help:      "Leads durably written to the store",
		}),
		leadsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendorleads",
			Subsystem: "store",
			Name:      "leads_dropped_total",
			Help:      "Leads dropped after exhausting persistence retries",
		}),
		ingestionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vendorleads",
			Subsystem: "ingest",
			Name:      "request_latency_seconds",
			Help:      "Latency of lead submission handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"vendor"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.leadRequests,
		m.queueFailures,
		m.eventFailures,
		m.persistRetries,
		m.leadsPersisted,
		m.leadsDropped,
		m.ingestionLatency,
	)
	return m
}

func (m *PipelineMetrics) ObserveLeadRequest(vendor, status string) {
	if m == nil {
		return
	}
	m.leadRequests.WithLabelValues(vendor, status).Inc()
}

func (m *PipelineMetrics) ObserveQueueFailure(kind string) {
	if m == nil {
		return
	}
	m.queueFailures.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) ObserveEventFailure(kind string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) ObservePersistRetries(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.persistRetries.Add(float64(count))
}

func (m *PipelineMetrics) ObservePersisted(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.leadsPersisted.Add(float64(count))
}

func (m *PipelineMetrics) ObserveDropped(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.leadsDropped.Add(float64(count))
}

func (m *PipelineMetrics) ObserveIngestionLatency(vendor string, seconds float64) {
	if m == nil {
		return
	}
	m.ingestionLatency.WithLabelValues(vendor).Observe(seconds)
}
