package ingest

import (
	"encoding/json"
	"testing"
)

func TestFormatterRegistrySelection(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, ok := registry.For("lendingtree").(lendingTreeFormatter); !ok {
		t.Fatal("expected the lendingtree formatter")
	}
	if _, ok := registry.For("LendingTree").(lendingTreeFormatter); !ok {
		t.Fatal("vendor lookup must be case-insensitive")
	}
	if _, ok := registry.For("acme").(genericFormatter); !ok {
		t.Fatal("expected the generic fallback formatter")
	}
	if _, ok := registry.For("").(genericFormatter); !ok {
		t.Fatal("expected the generic fallback for an empty vendor")
	}
}

func TestLendingTreeFormatterShapes(t *testing.T) {
	f := lendingTreeFormatter{}
	id := "abc123"

	success, err := json.Marshal(f.Success(&id))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"leadAcknowledgement":{"leadExternalId":"abc123","partnerDecision":"accepted","attemptRetransmit":false}}`
	if string(success) != want {
		t.Fatalf("unexpected success shape:\n got %s\nwant %s", success, want)
	}

	failure, err := json.Marshal(f.Failure("boom", &id))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(failure, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["error"] != "boom" {
		t.Fatalf("expected error message, got %v", decoded)
	}
	ack := decoded["leadAcknowledgement"].(map[string]any)
	if ack["partnerDecision"] != "rejected" || ack["attemptRetransmit"] != true {
		t.Fatalf("unexpected failure acknowledgement: %v", ack)
	}
}

func TestGenericFormatterShapes(t *testing.T) {
	f := genericFormatter{}
	id := "lead-1"

	success, err := json.Marshal(f.Success(&id))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"status":"success","message":"Leads processed asynchronously.","leadId":"lead-1"}`
	if string(success) != want {
		t.Fatalf("unexpected success shape:\n got %s\nwant %s", success, want)
	}

	// A nil identifier still serializes, as explicit null.
	nilSuccess, err := json.Marshal(f.Success(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(nilSuccess) != `{"status":"success","message":"Leads processed asynchronously.","leadId":null}` {
		t.Fatalf("unexpected nil-id shape: %s", nilSuccess)
	}

	failure, err := json.Marshal(f.Failure("bad request", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(failure, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "error" || decoded["message"] != "bad request" {
		t.Fatalf("unexpected failure shape: %v", decoded)
	}
}
