// Package chat implements the connection-state and message-routing core of
// the Parley server: the session/presence registry, the conversation history
// store, the room membership registry, and the event dispatcher that ties
// them to live connections.
//
// The package performs no I/O of its own. Outbound delivery goes through the
// Router interface, which the transport layer implements; every operation is
// synchronous and completes without blocking.
package chat
