package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	event := NewLedgerEvent("create", 12345)

	if event.ID != 12345 {
		t.Errorf("NewLedgerEvent() ID = %v, want 12345", event.ID)
	}
	if event.Op != "create" {
		t.Errorf("NewLedgerEvent() Op = %v, want create", event.Op)
	}
	if event.Timestamp.IsZero() {
		t.Error("NewLedgerEvent() Timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("NewLedgerEvent() Timestamp should be recent")
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event := &LedgerEvent{
		ID:        12345,
		Op:        "update",
		Timestamp: timestamp,
	}

	jsonBytes, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}

	if parsed.ID != event.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, event.ID)
	}
	if parsed.Op != event.Op {
		t.Errorf("Parsed Op = %v, want %v", parsed.Op, event.Op)
	}
	if !parsed.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, event.Timestamp)
	}
}

func TestLedgerEvent_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not_a_number", "op": "create"}`)

	_, err := LedgerEventFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerEventFromJSON() should fail with invalid JSON")
	}
}
