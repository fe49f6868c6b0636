package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEvent is the lightweight message published for every ledger change.
// It carries only the operation and transaction id; the export worker fetches
// the full row from the database.
type LedgerEvent struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(op string, id int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
