package bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeadLetterRecord wraps a record that kept failing downstream, preserving
// the original destination and payload for inspection and replay.
type DeadLetterRecord struct {
	ID       string          `json:"id"`
	Topic    string          `json:"topic"`
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt time.Time       `json:"failed_at"`
}

// NewDeadLetterRecord captures value and the failure reason for the
// dead-letter topic. A payload that cannot be marshalled is recorded with a
// null payload rather than lost entirely.
func NewDeadLetterRecord(topic, key string, value interface{}, reason string) DeadLetterRecord {
	payload, err := json.Marshal(value)
	if err != nil {
		payload = json.RawMessage("null")
	}
	return DeadLetterRecord{
		ID:       uuid.NewString(),
		Topic:    topic,
		Key:      key,
		Payload:  payload,
		Reason:   reason,
		FailedAt: time.Now().UTC(),
	}
}
