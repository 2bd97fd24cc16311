package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/dto"
	"garage-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, zap.NewNop())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func fakeClient(t *testing.T, hub *Hub, id string, buffer int) *Client {
	t.Helper()
	cfg := config.Default().Relay
	cfg.SendBuffer = buffer
	c := newClient(id, hub, nil, cfg, zap.NewNop())
	require.True(t, hub.join(c))
	return c
}

func receive(t *testing.T, c *Client) models.ChatMessage {
	t.Helper()
	select {
	case frame := <-c.send:
		ev, err := dto.DecodeEvent(frame)
		require.NoError(t, err)
		require.Equal(t, dto.EventReceiveMessage, ev.Event)
		var msg models.ChatMessage
		require.NoError(t, json.Unmarshal(ev.Data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID())
		return models.ChatMessage{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Fatalf("client %s unexpectedly received %s", c.ID(), frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFanOutExcludesSender(t *testing.T) {
	hub := startHub(t)
	a := fakeClient(t, hub, "a", 8)
	b := fakeClient(t, hub, "b", 8)
	c := fakeClient(t, hub, "c", 8)

	hub.submit(a, models.ChatMessage{Text: "xin chào", UserID: "u1", UserName: "An"})

	for _, other := range []*Client{b, c} {
		msg := receive(t, other)
		assert.Equal(t, "xin chào", msg.Text)
		assert.Equal(t, "u1", msg.UserID)
		assert.Equal(t, "An", msg.UserName)
	}
	assertNothing(t, a)

	assert.Equal(t, uint64(1), hub.Stats().RelayedMessages)
}

func TestHubStampsRole(t *testing.T) {
	hub := startHub(t)
	a := fakeClient(t, hub, "a", 8)
	b := fakeClient(t, hub, "b", 8)

	hub.submit(a, models.ChatMessage{Text: "từ nhân viên", IsAdmin: true, IsUser: true})
	msg := receive(t, b)
	assert.False(t, msg.IsUser)
	assert.True(t, msg.IsAdmin)

	hub.submit(a, models.ChatMessage{Text: "từ khách", IsUser: false})
	msg = receive(t, b)
	assert.True(t, msg.IsUser)
}

func TestHubPreservesArrivalOrder(t *testing.T) {
	hub := startHub(t)
	a := fakeClient(t, hub, "a", 64)
	b := fakeClient(t, hub, "b", 64)

	texts := []string{"1", "2", "3", "4", "5"}
	for _, txt := range texts {
		hub.submit(a, models.ChatMessage{Text: txt})
	}
	for _, want := range texts {
		assert.Equal(t, want, receive(t, b).Text)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	a := fakeClient(t, hub, "a", 8)
	slow := fakeClient(t, hub, "slow", 1)

	hub.submit(a, models.ChatMessage{Text: "1"})
	hub.submit(a, models.ChatMessage{Text: "2"})

	require.Eventually(t, func() bool {
		return hub.Stats().DroppedClients == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.Count())

	// frame đầu vẫn nằm trong hàng đợi, sau đó channel đã đóng
	<-slow.send
	_, ok := <-slow.send
	assert.False(t, ok)
}

func TestHubUnregisterClosesQueue(t *testing.T) {
	hub := startHub(t)
	a := fakeClient(t, hub, "a", 8)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.leave(a)
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-a.send
	assert.False(t, ok)

	// gỡ lần hai không panic
	hub.leave(a)
}

func TestHubStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	a := fakeClient(t, hub, "a", 8)
	cancel()
	<-stopped

	_, ok := <-a.send
	assert.False(t, ok)
	assert.False(t, hub.join(newClient("late", hub, nil, config.Default().Relay, zap.NewNop())))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := &Client{id: "a"}
	b := &Client{id: "b"}
	r.Add(a)
	r.Add(b)

	assert.Equal(t, 2, r.Count())
	others := r.Others("a")
	require.Len(t, others, 1)
	assert.Equal(t, "b", others[0].ID())

	got, ok := r.Get("b")
	assert.True(t, ok)
	assert.Same(t, b, got)

	assert.False(t, r.Remove(&Client{id: "a"}))
	assert.True(t, r.Remove(a))
	assert.False(t, r.Remove(a))
	assert.Len(t, r.All(), 1)
}
