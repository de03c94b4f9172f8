package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

type mockEventBridge struct {
	inputs  []*eventbridge.PutEventsInput
	err     error
	entries []ebtypes.PutEventsResultEntry
	failed  int32
}

func (m *mockEventBridge) PutEvents(ctx context.Context, input *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &eventbridge.PutEventsOutput{
		FailedEntryCount: m.failed,
		Entries:          m.entries,
	}, nil
}

type recordingArchiver struct {
	envelopes [][]byte
	err       error
}

func (a *recordingArchiver) ArchiveEnvelope(ctx context.Context, source, detailType string, detail []byte) error {
	a.envelopes = append(a.envelopes, detail)
	return a.err
}

func TestEventDispatchOneEnvelopePerChunk(t *testing.T) {
	mock := &mockEventBridge{}
	d := NewEventDispatcher(mock, "leads-bus", nil, logging.Default(), nil)

	if err := d.Dispatch(context.Background(), "acme", makeLeads(25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.inputs) != 3 {
		t.Fatalf("expected 3 PutEvents calls for 25 leads, got %d", len(mock.inputs))
	}
	for i, input := range mock.inputs {
		if len(input.Entries) != 1 {
			t.Fatalf("chunk %d: expected exactly one envelope per chunk, got %d", i, len(input.Entries))
		}
		entry := input.Entries[0]
		if aws.ToString(entry.Source) != EventSource || aws.ToString(entry.DetailType) != EventDetailType {
			t.Fatalf("chunk %d: unexpected source/detail-type: %s/%s", i, aws.ToString(entry.Source), aws.ToString(entry.DetailType))
		}
		if aws.ToString(entry.EventBusName) != "leads-bus" {
			t.Fatalf("chunk %d: unexpected bus: %s", i, aws.ToString(entry.EventBusName))
		}
	}

	var detail EventDetail
	if err := json.Unmarshal([]byte(aws.ToString(mock.inputs[2].Entries[0].Detail)), &detail); err != nil {
		t.Fatalf("detail is not JSON: %v", err)
	}
	if detail.Vendor != "acme" || len(detail.Leads) != 5 {
		t.Fatalf("expected trailing chunk of 5 leads, got %+v", detail)
	}
}

func TestEventDispatchTransportErrorPropagates(t *testing.T) {
	mock := &mockEventBridge{err: errors.New("bus unreachable")}
	d := NewEventDispatcher(mock, "leads-bus", nil, logging.Default(), nil)

	err := d.Dispatch(context.Background(), "acme", makeLeads(3))
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestEventDispatchEntryFailureDoesNotRaise(t *testing.T) {
	mock := &mockEventBridge{
		failed: 1,
		entries: []ebtypes.PutEventsResultEntry{
			{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
		},
	}
	d := NewEventDispatcher(mock, "leads-bus", nil, logging.Default(), nil)

	if err := d.Dispatch(context.Background(), "acme", makeLeads(2)); err != nil {
		t.Fatalf("per-entry failures must not raise, got %v", err)
	}
}

func TestEventDispatchMirrorsToArchiver(t *testing.T) {
	mock := &mockEventBridge{}
	archiver := &recordingArchiver{}
	d := NewEventDispatcher(mock, "leads-bus", archiver, logging.Default(), nil)

	if err := d.Dispatch(context.Background(), "acme", makeLeads(15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archiver.envelopes) != 2 {
		t.Fatalf("expected one archived envelope per chunk, got %d", len(archiver.envelopes))
	}
}

func TestEventDispatchArchiverErrorIsBestEffort(t *testing.T) {
	mock := &mockEventBridge{}
	archiver := &recordingArchiver{err: errors.New("s3 down")}
	d := NewEventDispatcher(mock, "leads-bus", archiver, logging.Default(), nil)

	if err := d.Dispatch(context.Background(), "acme", makeLeads(1)); err != nil {
		t.Fatalf("archiver failure must not surface, got %v", err)
	}
}

func TestChunkLeads(t *testing.T) {
	if got := chunkLeads(nil); got != nil {
		t.Fatalf("expected nil chunks for empty input, got %v", got)
	}
	chunks := chunkLeads(makeLeads(21))
	if len(chunks) != 3 || len(chunks[0]) != 10 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunking: %d chunks", len(chunks))
	}
}
