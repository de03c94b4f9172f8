// Package archive mirrors event-bus envelopes to S3 for audit. It backs the
// catch-all logging path of the bus: every published envelope lands in cold
// storage keyed by date, regardless of which rule delivered it downstream.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// envelopeRecord is the archived form of one bus envelope.
type envelopeRecord struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detailType"`
	Detail     json.RawMessage `json:"detail"`
	ArchivedAt string          `json:"archivedAt"`
}

// Store archives envelopes to S3. If bucket is empty, all operations are
// no-ops.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   bucket,
		s3Client: s3Client,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ArchiveEnvelope writes one envelope as JSON under a date-partitioned key.
func (s *Store) ArchiveEnvelope(ctx context.Context, source, detailType string, detail []byte) error {
	if !s.Enabled() {
		return nil
	}

	now := s.now()
	record := envelopeRecord{
		Source:     source,
		DetailType: detailType,
		Detail:     json.RawMessage(detail),
		ArchivedAt: now.Format(time.RFC3339),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal envelope: %w", err)
	}

	s3Key := fmt.Sprintf("envelopes/v1/by-date/%d/%02d/%02d/%s.json",
		now.Year(), now.Month(), now.Day(), uuid.NewString())

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Debug("archived envelope to S3",
		"s3_key", s3Key,
		"detail_type", detailType,
	)
	return nil
}
