package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObserver(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 8),
		ID:   uuid.New(),
	}
}

func receiveEvent(t *testing.T, c *Client) WidgetEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev WidgetEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("событие не получено")
		return WidgetEvent{}
	}
}

// Новый наблюдатель первым делом получает снимок состояния виджета
func TestNewObserverReceivesSnapshot(t *testing.T) {
	hub := NewHub(func() interface{} {
		return map[string]string{"theme": "wine"}
	})
	go hub.Run()

	observer := newObserver(hub)
	hub.register <- observer

	ev := receiveEvent(t, observer)
	assert.Equal(t, "state", ev.Type)
	payload, ok := ev.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "wine", payload["theme"])
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	first := newObserver(hub)
	second := newObserver(hub)
	hub.register <- first
	hub.register <- second

	hub.Broadcast(WidgetEvent{Type: "typing"})

	assert.Equal(t, "typing", receiveEvent(t, first).Type)
	assert.Equal(t, "typing", receiveEvent(t, second).Type)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	observer := newObserver(hub)
	hub.register <- observer
	hub.unregister <- observer

	select {
	case _, open := <-observer.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("канал не закрыт")
	}
}
