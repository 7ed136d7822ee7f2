package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventGoalCreated        EventType = "goal.created"
	EventGoalUpdated        EventType = "goal.updated"
	EventGoalDeleted        EventType = "goal.deleted"
	EventPasswordReset      EventType = "auth.password_reset"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted,
		EventGoalCreated, EventGoalUpdated, EventGoalDeleted, EventPasswordReset:
		return true
	default:
		return false
	}
}

// Event is a lightweight notification. Consumers fetch the current record
// from the store instead of trusting a copy in the message.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"userId"`
	EntityID  string    `json:"entityId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, userID, entityID string) Event {
	return Event{Type: t, UserID: userID, EntityID: entityID, Timestamp: time.Now()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes a message body and rejects unknown event types.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if !e.Type.IsValid() {
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	return e, nil
}
