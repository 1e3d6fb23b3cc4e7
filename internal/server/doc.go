// Package server implements the transport layer of Parley: WebSocket
// upgrades, per-connection read/write pumps, and the hub that tracks live
// connections and delivers the chat core's outbound events.
//
// The package is organized into specialized files for configuration, hub
// management, clients, origin policy, and HTTP glue to keep the transport
// concerns apart from the chat core in internal/chat.
package server
