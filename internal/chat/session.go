package chat

import (
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry binds connection identifiers to display names and enforces
// global name uniqueness. It keeps a bidirectional index so that resolving a
// username never scans the whole session set.
type SessionRegistry struct {
	mu     sync.Mutex
	byConn map[uuid.UUID]string
	byName map[string]uuid.UUID
	order  []string
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byConn: make(map[uuid.UUID]string),
		byName: make(map[string]uuid.UUID),
	}
}

// Register binds username to the given connection. The uniqueness check and
// the commit happen under the same lock, so two connections racing for the
// same name cannot both win. Returns ErrNameTaken when another live
// connection already holds the exact name.
//
// A connection that registers a second time replaces its previous name; the
// old name becomes available again.
func (r *SessionRegistry) Register(conn uuid.UUID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.byName[username]; ok {
		if holder == conn {
			return nil
		}
		return ErrNameTaken
	}

	if previous, ok := r.byConn[conn]; ok {
		delete(r.byName, previous)
		r.dropFromOrder(previous)
	}

	r.byConn[conn] = username
	r.byName[username] = conn
	r.order = append(r.order, username)
	return nil
}

// Unregister removes the session for conn if one exists. Idempotent.
func (r *SessionRegistry) Unregister(conn uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(r.byConn, conn)
	delete(r.byName, username)
	r.dropFromOrder(username)
}

// Usernames returns a snapshot of all registered names in registration order.
func (r *SessionRegistry) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve returns the connection currently bound to username.
func (r *SessionRegistry) Resolve(username string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byName[username]
	return conn, ok
}

// UsernameFor returns the name bound to conn, if any.
func (r *SessionRegistry) UsernameFor(conn uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.byConn[conn]
	return username, ok
}

func (r *SessionRegistry) dropFromOrder(username string) {
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
