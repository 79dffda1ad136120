package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	sub := newFakeSubscriber("client-1", 1)
	require.NoError(t, hub.Register(sub))

	var publisher EventPublisher = hub
	publisher.Publish(1, CollectionCreated(map[string]interface{}{"id": float64(42)}))

	assert.Equal(t, []string{"collection.created"}, sub.eventTypes(t))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(workspaceID int32, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Type)
}

func TestFanOut_Publish(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}
	fan := FanOut{a, nil, b}

	fan.Publish(1, LoanCreated(nil))
	fan.Publish(1, LoanDeleted(nil))

	assert.Equal(t, []string{"loan.created", "loan.deleted"}, a.events)
	assert.Equal(t, []string{"loan.created", "loan.deleted"}, b.events)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(1, CollectionCreated(map[string]interface{}{"id": float64(1)}))
	})
}
