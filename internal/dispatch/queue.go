package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/vendorleads/lead-pipeline/internal/observability/metrics"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

type sqsAPI interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// QueueDispatcher fans a lead batch out to SQS in chunks of at most 10.
// Delivery is best-effort: per-entry and per-chunk failures are logged and
// counted but never propagate, so queue trouble cannot fail the HTTP
// response. The event-bus path is the error-surfacing one.
type QueueDispatcher struct {
	client   sqsAPI
	queueURL string
	logger   *logging.Logger
	metrics  *metrics.PipelineMetrics
}

// NewQueueDispatcher creates a dispatcher over the provided SQS client.
func NewQueueDispatcher(client sqsAPI, queueURL string, logger *logging.Logger, m *metrics.PipelineMetrics) *QueueDispatcher {
	if client == nil {
		panic("dispatch: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("dispatch: SQS queueURL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QueueDispatcher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		metrics:  m,
	}
}

// Dispatch sends one SendMessageBatch call per chunk. Entry IDs carry a
// running counter across all chunks so they stay unique within the request.
func (d *QueueDispatcher) Dispatch(ctx context.Context, requestID, vendor string, leads []any) {
	counter := 0
	for _, chunk := range chunkLeads(leads) {
		entries := make([]sqstypes.SendMessageBatchRequestEntry, 0, len(chunk))
		for _, lead := range chunk {
			body, err := json.Marshal(Message{
				RequestID: requestID,
				Vendor:    vendor,
				Lead:      lead,
			})
			if err != nil {
				d.logger.Error("failed to marshal queue message",
					"request_id", requestID,
					"vendor", vendor,
					"error", err,
				)
				d.metrics.ObserveQueueFailure("marshal")
				counter++
				continue
			}
			entries = append(entries, sqstypes.SendMessageBatchRequestEntry{
				Id:          aws.String(fmt.Sprintf("%s-%d", requestID, counter)),
				MessageBody: aws.String(string(body)),
			})
			counter++
		}
		if len(entries) == 0 {
			continue
		}

		out, err := d.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(d.queueURL),
			Entries:  entries,
		})
		if err != nil {
			d.logger.Error("queue chunk send failed",
				"request_id", requestID,
				"vendor", vendor,
				"chunk_size", len(entries),
				"error", err,
			)
			d.metrics.ObserveQueueFailure("chunk")
			continue
		}
		for _, failed := range out.Failed {
			d.logger.Error("queue entry rejected",
				"request_id", requestID,
				"vendor", vendor,
				"entry_id", aws.ToString(failed.Id),
				"code", aws.ToString(failed.Code),
				"message", aws.ToString(failed.Message),
			)
			d.metrics.ObserveQueueFailure("entry")
		}
	}
}
