// Package server coordinates client registration, event delivery, and
// connection cleanup for the Parley WebSocket transport via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleychat/parley/internal/chat"
)

// Hub tracks all live WebSocket connections keyed by connection id and
// delivers outbound events for the chat core. It implements chat.Router.
// Client registration and unregistration run through the hub's event loop;
// delivery happens synchronously under a read lock.
type Hub struct {
	log        *slog.Logger
	dispatcher *chat.Dispatcher

	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub ready to manage connections. AttachDispatcher must be
// called before Run so disconnects reach the chat core.
func NewHub(log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// AttachDispatcher binds the chat core's dispatcher. The hub and dispatcher
// reference each other, so the binding happens after construction.
func (h *Hub) AttachDispatcher(d *chat.Dispatcher) {
	h.dispatcher = d
}

// GetRegisterChan returns the channel used to register new clients.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used to unregister clients.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Run starts the hub's event loop, handling client registration,
// unregistration, and shutdown. Call it in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client.id] = client
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("client registered", "conn", client.id, "addr", client.addr, "total", total)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			registered := h.clients[client.id] == client
			if registered {
				delete(h.clients, client.id)
				client.closed = true
			}
			total := len(h.clients)
			h.mutex.Unlock()

			if registered {
				close(client.send)
				h.log.Info("client unregistered", "conn", client.id, "addr", client.addr, "total", total)
				if h.dispatcher != nil {
					h.dispatcher.HandleDisconnect(client.id)
				}
			}
		}
	}
}

// Broadcast sends payload to every live connection. Delivery is best-effort:
// a client with a full send buffer misses the event and is left for its own
// pumps to clean up.
func (h *Hub) Broadcast(payload []byte) {
	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		if !h.safeSend(client, payload) {
			h.log.Debug("broadcast skipped client", "conn", client.id, "addr", client.addr)
		}
	}
}

// SendTo delivers payload to a single connection, reporting whether the
// client was live and accepted it.
func (h *Hub) SendTo(conn uuid.UUID, payload []byte) bool {
	h.mutex.RLock()
	client, ok := h.clients[conn]
	h.mutex.RUnlock()
	if !ok {
		return false
	}
	return h.safeSend(client, payload)
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn("recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the send so unregistration cannot close the
	// channel mid-send.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	current, exists := h.clients[client.id]
	if !exists || current != client || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// shutdownClients closes every active client connection.
func (h *Hub) shutdownClients() {
	h.log.Info("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Warn("error closing client connection", "addr", client.addr, "error", err)
			}
		}
	}

	h.log.Info("closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown and waits for all client goroutines
// to finish or the timeout to pass.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
