package queue

import (
	"encoding/json"

	"onepass/internal/attend"
)

// Batch is the retry payload: an upsert batch the API failed to deliver,
// handed to the worker for redelivery.
type Batch struct {
	AuditID   string          `json:"audit_id,omitempty"`
	StudentID int64           `json:"student_id"`
	Records   []attend.Record `json:"records"`
}

// NewBatchMessage wraps a batch into a queue message.
func NewBatchMessage(id string, b Batch) (Message, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return Message{}, err
	}
	return Message{ID: id, Attempt: 1, Payload: raw}, nil
}

// DecodeBatch unpacks a message's payload.
func DecodeBatch(msg Message) (Batch, error) {
	var b Batch
	err := json.Unmarshal(msg.Payload, &b)
	return b, err
}
