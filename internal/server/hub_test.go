package server

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// addClient registers a client directly, bypassing the run loop so tests can
// exercise delivery without live pump goroutines.
func addClient(h *Hub, c *Client) {
	h.mutex.Lock()
	h.clients[c.id] = c
	h.mutex.Unlock()
}

func TestHubSendToDeliversToLiveClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345", DefaultConfig())
	addClient(hub, client)

	require.True(t, hub.SendTo(client.ID(), []byte("hello")))

	select {
	case payload := <-client.GetSendChan():
		require.Equal(t, []byte("hello"), payload)
	default:
		t.Fatal("expected a queued frame")
	}
}

func TestHubSendToUnknownConnectionFails(t *testing.T) {
	hub := newTestHub()

	require.False(t, hub.SendTo(uuid.New(), []byte("hello")))
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub := newTestHub()
	first := NewClient(nil, hub, "127.0.0.1:1", DefaultConfig())
	second := NewClient(nil, hub, "127.0.0.1:2", DefaultConfig())
	addClient(hub, first)
	addClient(hub, second)

	hub.Broadcast([]byte("to everyone"))

	for _, client := range []*Client{first, second} {
		select {
		case payload := <-client.GetSendChan():
			require.Equal(t, []byte("to everyone"), payload)
		default:
			t.Fatalf("client %s missed the broadcast", client.addr)
		}
	}
}

func TestHubSendSkipsBackedUpClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345", DefaultConfig())
	addClient(hub, client)

	for i := 0; i < cap(client.send); i++ {
		require.True(t, hub.SendTo(client.ID(), []byte("fill")))
	}

	// Full buffer: delivery is dropped, not blocked.
	require.False(t, hub.SendTo(client.ID(), []byte("overflow")))
}

func TestHubSendSkipsClosedClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "127.0.0.1:12345", DefaultConfig())
	addClient(hub, client)
	client.closed = true

	require.False(t, hub.SendTo(client.ID(), []byte("hello")))
}
