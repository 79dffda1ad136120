package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the verb of an event
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeDeleted   EventType = "deleted"
	EventTypeClosed    EventType = "closed"
	EventTypeRefreshed EventType = "refreshed"

	EventTypeConnected EventType = "connected"
	EventTypePong      EventType = "pong"
	EventTypeError     EventType = "error"
	EventTypeTopics    EventType = "topics"
)

// EntityType is the kind of record the event is about
type EntityType string

const (
	EntityTypeLoan       EntityType = "loan"
	EntityTypeCollection EntityType = "collection"
	EntityTypeInvestment EntityType = "investment"
	EntityTypeExpense    EntityType = "expense"
	EntityTypePending    EntityType = "pending"

	// EntityTypeSystem events concern the connection itself and skip topic filtering
	EntityTypeSystem EntityType = "system"
)

// Event is the message sent to clients.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // e.g. "collection.created"
	Entity    EntityType  `json:"entity"`    // e.g. "collection"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanUpdated creates a loan.updated event
func LoanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoan, payload)
}

// LoanDeleted creates a loan.deleted event
func LoanDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLoan, payload)
}

// LoanClosed creates a loan.closed event
func LoanClosed(payload interface{}) Event {
	return NewEvent(EventTypeClosed, EntityTypeLoan, payload)
}

// CollectionCreated creates a collection.created event
func CollectionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCollection, payload)
}

// CollectionUpdated creates a collection.updated event
func CollectionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCollection, payload)
}

// CollectionDeleted creates a collection.deleted event
func CollectionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCollection, payload)
}

// InvestmentCreated creates an investment.created event
func InvestmentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeInvestment, payload)
}

// ExpenseCreated creates an expense.created event
func ExpenseCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, payload)
}

// PendingRefreshed creates a pending.refreshed event
func PendingRefreshed(payload interface{}) Event {
	return NewEvent(EventTypeRefreshed, EntityTypePending, payload)
}

// Connected acknowledges a new connection with its client ID and topics
func Connected(clientID string, topics []string) Event {
	return NewEvent(EventTypeConnected, EntityTypeSystem, map[string]interface{}{
		"clientId": clientID,
		"topics":   topics,
	})
}

// TopicsChanged reports the topic set after a subscribe or unsubscribe
func TopicsChanged(topics []string) Event {
	return NewEvent(EventTypeTopics, EntityTypeSystem, map[string]interface{}{"topics": topics})
}

// Pong answers a client ping
func Pong() Event {
	return NewEvent(EventTypePong, EntityTypeSystem, nil)
}

// CommandError reports a rejected client command
func CommandError(message string) Event {
	return NewEvent(EventTypeError, EntityTypeSystem, map[string]interface{}{"message": message})
}
