package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextEvent pops one queued frame without a live connection
func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case frame := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(frame, &evt))
		return evt
	default:
		t.Fatal("no frame queued")
		return Event{}
	}
}

func TestClient_HandleCommand(t *testing.T) {
	c := NewClient(nil, 1, NewHub(), nil)

	c.handleCommand([]byte(`{"action":"subscribe","topics":["pending","collection"]}`))
	evt := nextEvent(t, c)
	assert.Equal(t, "system.topics", evt.Type)
	assert.Equal(t, []interface{}{"collection", "pending"}, evt.Payload.(map[string]interface{})["topics"])
	assert.True(t, c.Wants(EntityTypePending))
	assert.False(t, c.Wants(EntityTypeLoan))

	c.handleCommand([]byte(`{"action":"unsubscribe","topics":["collection"]}`))
	nextEvent(t, c)
	assert.Equal(t, []string{"pending"}, c.TopicNames())

	c.handleCommand([]byte(`{"action":"ping"}`))
	assert.Equal(t, "system.pong", nextEvent(t, c).Type)

	c.handleCommand([]byte(`{"action":"subscribe","topics":["budget"]}`))
	evt = nextEvent(t, c)
	assert.Equal(t, "system.error", evt.Type)
	assert.Equal(t, []string{"pending"}, c.TopicNames())

	c.handleCommand([]byte(`{`))
	assert.Equal(t, "system.error", nextEvent(t, c).Type)
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient(nil, 1, NewHub(), nil)
	require.NoError(t, c.Send([]byte("x")))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, c.IsClosed())
	assert.ErrorIs(t, c.Send([]byte("y")), ErrClientClosed)
}

func TestClient_SendBufferFull(t *testing.T) {
	c := NewClient(nil, 1, NewHub(), nil)
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, c.Send([]byte("frame")))
	}
	assert.ErrorIs(t, c.Send([]byte("overflow")), ErrClientClosed)
}
