package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client without a network connection; frames land in
// its send channel.
func newTestClient(h *Hub, userID string, buffer int) *Client {
	return &Client{
		hub:    h,
		userID: userID,
		send:   make(chan []byte, buffer),
		groups: make(map[string]struct{}),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
		return Event{}
	}
}

func TestHubUserGroupFanOut(t *testing.T) {
	h := startHub(t)

	client := newTestClient(h, "42", 8)
	h.register <- client

	// Registration auto-joins the user's own group.
	require.Eventually(t, func() bool {
		h.NotifyUser("42", map[string]string{"title": "hello"})
		select {
		case <-client.send:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHubSymbolGroup(t *testing.T) {
	h := startHub(t)

	client := newTestClient(h, "42", 8)
	h.register <- client
	h.subscribe <- subscription{client: client, group: SymbolGroup("aapl"), join: true}

	require.Eventually(t, func() bool {
		h.PushPriceUpdate("AAPL", map[string]string{"price": "151.00"})
		select {
		case data := <-client.send:
			var event Event
			require.NoError(t, json.Unmarshal(data, &event))
			assert.Equal(t, EventPriceUpdate, event.Type)
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHubEmptyGroupIsNoOp(t *testing.T) {
	h := startHub(t)

	// No members anywhere: must not panic or error.
	h.NotifyUser("nobody", map[string]string{"title": "ghost"})
	h.PushPriceUpdate("VOID", nil)
	time.Sleep(50 * time.Millisecond)
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	h := startHub(t)

	client := newTestClient(h, "42", 8)
	h.register <- client
	h.subscribe <- subscription{client: client, group: SymbolGroup("AAPL"), join: true}

	// Wait for a first frame so we know the join was processed.
	require.Eventually(t, func() bool {
		h.PushPriceUpdate("AAPL", nil)
		select {
		case <-client.send:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	h.subscribe <- subscription{client: client, group: SymbolGroup("AAPL"), join: false}

	// After the leave is processed no further frames arrive.
	assert.Eventually(t, func() bool {
		for len(client.send) > 0 {
			<-client.send
		}
		h.PushPriceUpdate("AAPL", nil)
		time.Sleep(20 * time.Millisecond)
		return len(client.send) == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestHubSlowConsumerDrops(t *testing.T) {
	h := startHub(t)

	client := newTestClient(h, "42", 1)
	h.register <- client

	// Fill the one-slot buffer, then keep pushing; extra frames must be
	// dropped without blocking the hub.
	require.Eventually(t, func() bool {
		h.NotifyUser("42", map[string]string{"n": "first"})
		return len(client.send) == 1
	}, 2*time.Second, 20*time.Millisecond)

	for i := 0; i < 10; i++ {
		h.NotifyUser("42", map[string]string{"n": "overflow"})
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, len(client.send))

	event := receive(t, client)
	assert.Equal(t, EventNotificationReceived, event.Type)
}

func TestUnregisterClosesAndCleansUp(t *testing.T) {
	h := startHub(t)

	client := newTestClient(h, "42", 8)
	h.register <- client
	h.unregister <- client

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-client.send:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	// Pushes after removal are silent no-ops.
	h.NotifyUser("42", nil)
}

func TestAllowedToJoin(t *testing.T) {
	h := New()

	t.Run("own user group", func(t *testing.T) {
		client := newTestClient(h, "42", 1)
		assert.True(t, allowedToJoin(client, UserGroup("42")))
	})

	t.Run("another user's group is rejected", func(t *testing.T) {
		client := newTestClient(h, "42", 1)
		assert.False(t, allowedToJoin(client, UserGroup("7")))
	})

	t.Run("anonymous connections pass in dev mode", func(t *testing.T) {
		client := newTestClient(h, "", 1)
		assert.True(t, allowedToJoin(client, UserGroup("7")))
	})

	t.Run("symbol groups are open", func(t *testing.T) {
		client := newTestClient(h, "42", 1)
		assert.True(t, allowedToJoin(client, SymbolGroup("AAPL")))
	})
}

func TestGroupNames(t *testing.T) {
	assert.Equal(t, "user:42", UserGroup("42"))
	assert.Equal(t, "symbol:AAPL", SymbolGroup("aapl"))
}
