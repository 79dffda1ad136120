package websocket

// EventPublisher defines the interface for publishing workspace events
type EventPublisher interface {
	// Publish sends an event to every subscriber of the workspace
	Publish(workspaceID int32, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the workspace
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// FanOut publishes each event to every non-nil publisher in order
type FanOut []EventPublisher

var _ EventPublisher = FanOut(nil)

// Publish implements EventPublisher
func (f FanOut) Publish(workspaceID int32, event Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(workspaceID, event)
		}
	}
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(workspaceID int32, event Event) {}
