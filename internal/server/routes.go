// Package server wires HTTP handlers into a ServeMux for the Parley
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: health check and the WebSocket endpoint.
func SetupRoutes(hub *Hub, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler(hub, cfg))
	return mux
}
