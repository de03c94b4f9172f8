// Package store persists resolved vendor leads to DynamoDB. Writes are
// upserts keyed by (resolved lead id, vendor); a repeated delivery overwrites
// the prior record, which is the idempotency mechanism for queue redelivery.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

const (
	leadKeyPrefix   = "Lead#"
	vendorKeyPrefix = "Vendor#"

	maxWriteAttempts = 3
	baseRetryDelay   = 100 * time.Millisecond
	maxRetryDelay    = 2 * time.Second

	// DynamoDB BatchWriteItem accepts at most 25 put requests per call.
	maxBatchPutSize = 25
)

// Record is a persisted lead row.
type Record struct {
	LeadID     string `dynamodbav:"LeadId"`
	VendorName string `dynamodbav:"VendorName"`
	Vendor     string `dynamodbav:"Vendor"`
	ReceivedAt string `dynamodbav:"ReceivedAt"`
	Lead       any    `dynamodbav:"Lead"`
}

// NewRecord builds a record with the composite key derived from the resolved
// lead id and vendor, stamped with the write time.
func NewRecord(resolvedID, vendor string, lead any, receivedAt time.Time) Record {
	return Record{
		LeadID:     leadKeyPrefix + resolvedID,
		VendorName: vendorKeyPrefix + vendor,
		Vendor:     vendor,
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339),
		Lead:       lead,
	}
}

// WriteOutcome reports how a batch write ended. Dropped counts items still
// unprocessed after all retry attempts; Retries counts the extra write calls
// unprocessed items forced. Callers surface both to observability rather than
// failing the batch.
type WriteOutcome struct {
	Written int
	Dropped int
	Retries int
}

type dynamoAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// LeadStore writes lead records to DynamoDB in batches.
type LeadStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewLeadStore builds a store backed by the provided DynamoDB client.
func NewLeadStore(client dynamoAPI, tableName string, logger *logging.Logger) *LeadStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("store: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// PutBatch persists records with a conditionless batch put. Items DynamoDB
// reports as unprocessed are retried with exponential backoff, up to
// maxWriteAttempts total; whatever remains is dropped and reported in the
// outcome, not as an error. A transport error on any attempt returns an
// error, which redelivers the whole queue batch.
func (s *LeadStore) PutBatch(ctx context.Context, records []Record) (WriteOutcome, error) {
	if len(records) == 0 {
		return WriteOutcome{}, nil
	}

	requests := make([]types.WriteRequest, 0, len(records))
	for _, record := range records {
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return WriteOutcome{}, fmt.Errorf("store: failed to marshal lead record %s: %w", record.LeadID, err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	outcome := WriteOutcome{}
	for start := 0; start < len(requests); start += maxBatchPutSize {
		end := start + maxBatchPutSize
		if end > len(requests) {
			end = len(requests)
		}
		chunkOutcome, err := s.putChunk(ctx, requests[start:end])
		outcome.Written += chunkOutcome.Written
		outcome.Dropped += chunkOutcome.Dropped
		outcome.Retries += chunkOutcome.Retries
		if err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

func (s *LeadStore) putChunk(ctx context.Context, pending []types.WriteRequest) (WriteOutcome, error) {
	total := len(pending)
	retries := 0

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if attempt > 0 {
			retries++
			if err := s.sleep(ctx, backoffDelay(attempt-1)); err != nil {
				return WriteOutcome{Written: total - len(pending), Dropped: len(pending), Retries: retries}, err
			}
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: pending,
			},
		})
		if err != nil {
			return WriteOutcome{Written: total - len(pending), Dropped: len(pending), Retries: retries},
				fmt.Errorf("store: batch write failed: %w", err)
		}

		unprocessed := out.UnprocessedItems[s.tableName]
		if len(unprocessed) == 0 {
			return WriteOutcome{Written: total, Retries: retries}, nil
		}

		s.logger.Warn("batch write left unprocessed items",
			"attempt", attempt+1,
			"unprocessed", len(unprocessed),
		)
		pending = unprocessed
	}

	// Residual unprocessed items are dropped by policy; the caller reports
	// the loss instead of failing the batch.
	s.logger.Error("dropping leads after exhausting write retries",
		"dropped", len(pending),
		"attempts", maxWriteAttempts,
	)
	return WriteOutcome{Written: total - len(pending), Dropped: len(pending), Retries: retries}, nil
}

func backoffDelay(retryCount int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<retryCount)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
