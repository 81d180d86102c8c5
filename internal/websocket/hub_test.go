package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

func newTestClient(hub *Hub, userID uuid.UUID, buffer int) *Client {
	return &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
}

func (h *Hub) clientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func TestSendDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := newTestClient(hub, userID, 4)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(userID, FeedEvent{Type: "SESSION_UPDATED", Data: map[string]interface{}{"session_id": "abc"}})

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "SESSION_UPDATED")
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSendToStalledClientDropsItWithoutPanic(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := newTestClient(hub, userID, 1)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 1 }, time.Second, 5*time.Millisecond)

	// Fill the buffer so the next delivery cannot be queued.
	client.Send <- []byte("backlog")

	hub.Send(userID, FeedEvent{Type: "SESSION_UPDATED"})

	// The stalled client gets unregistered and its channel closed exactly
	// once, by Run. The hub keeps running.
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 0 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []byte("backlog"), <-client.Send)
	_, open := <-client.Send
	assert.False(t, open)

	// A later send for the same user must not touch the dropped client.
	hub.Send(userID, FeedEvent{Type: "SESSION_DELETED"})
	assert.Equal(t, 0, hub.clientCount(userID))
}

func TestSendWithSeveralStalledClients(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	first := newTestClient(hub, userID, 1)
	second := newTestClient(hub, userID, 1)
	hub.register <- first
	hub.register <- second
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 2 }, time.Second, 5*time.Millisecond)

	first.Send <- []byte("backlog")
	second.Send <- []byte("backlog")

	done := make(chan struct{})
	go func() {
		hub.Send(userID, FeedEvent{Type: "SESSION_UPDATED"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with multiple stalled clients")
	}
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestUnregisterTwiceIsHarmless(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := newTestClient(hub, userID, 1)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.clientCount(userID) == 1 }, time.Second, 5*time.Millisecond)

	// A stalled delivery and the readPump teardown can both unregister the
	// same client; the second pass must find nothing to close.
	hub.unregister <- client
	hub.unregister <- client

	require.Eventually(t, func() bool { return hub.clientCount(userID) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}
