package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType names what changed in the finance data.
type MessageType string

const (
	EventCreated   MessageType = "event.created"
	EventUpdated   MessageType = "event.updated"
	EventDeleted   MessageType = "event.deleted"
	PaymentCreated MessageType = "payment.created"
	PaymentPaid    MessageType = "payment.paid"
	DJCreated      MessageType = "dj.created"
	DJUpdated      MessageType = "dj.updated"
	DJDeleted      MessageType = "dj.deleted"
)

func (t MessageType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted,
		PaymentCreated, PaymentPaid,
		DJCreated, DJUpdated, DJDeleted:
		return true
	}
	return false
}

// FinanceEventMessage is a change notification. It carries only the entity
// id; consumers reload whatever they need from the store.
type FinanceEventMessage struct {
	Type      MessageType `json:"type"`
	EntityID  string      `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewFinanceEventMessage(t MessageType, entityID string) *FinanceEventMessage {
	return &FinanceEventMessage{
		Type:      t,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *FinanceEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FinanceEventMessageFromJSON decodes a message and rejects unknown types.
func FinanceEventMessageFromJSON(data []byte) (*FinanceEventMessage, error) {
	var msg FinanceEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return &msg, nil
}
