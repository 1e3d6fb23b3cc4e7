// Package server exposes HTTP handlers, including the WebSocket upgrade and
// health check endpoints.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler returns the handler for WebSocket upgrade requests. It
// validates the method, enforces the origin policy, upgrades the connection,
// and hands the new client to the hub, which launches its pump goroutines.
func WebSocketHandler(hub *Hub, cfg Config) http.HandlerFunc {
	policy := newOriginPolicy(hub.log, cfg.AllowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr, cfg)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Parley server is running!")
}
