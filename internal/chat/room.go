package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RoomMembers is a snapshot of one room's membership.
type RoomMembers struct {
	Name    string
	Members []uuid.UUID
}

// RoomRegistry tracks named rooms and their member connections. A room is
// either absent or active; rooms with zero members stay registered until the
// process exits.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[uuid.UUID]struct{}
	order []string
}

// NewRoomRegistry returns an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Create registers a new empty room. Returns ErrRoomExists when the name is
// already active; the existing room's membership is never touched.
func (r *RoomRegistry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return ErrRoomExists
	}
	r.rooms[name] = make(map[uuid.UUID]struct{})
	r.order = append(r.order, name)
	return nil
}

// Join adds conn to the room's membership. Joining twice is a no-op. Returns
// ErrRoomNotFound when the room is absent.
func (r *RoomRegistry) Join(name string, conn uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[name]
	if !ok {
		return ErrRoomNotFound
	}
	members[conn] = struct{}{}
	return nil
}

// Leave removes conn from the room if present and reports whether the room
// existed. Leaving a room never joined, or an absent room, is a no-op.
func (r *RoomRegistry) Leave(name string, conn uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[name]
	if !ok {
		return false
	}
	delete(members, conn)
	return true
}

// RemoveConnection sweeps conn out of every room's membership and reports
// whether anything changed. Used on disconnect.
func (r *RoomRegistry) RemoveConnection(conn uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, members := range r.rooms {
		if _, ok := members[conn]; ok {
			delete(members, conn)
			changed = true
		}
	}
	return changed
}

// Members returns the room's current member connections.
func (r *RoomRegistry) Members(name string) ([]uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[name]
	if !ok {
		return nil, false
	}
	return lo.Keys(members), true
}

// Memberships returns a snapshot of every active room in creation order.
func (r *RoomRegistry) Memberships() []RoomMembers {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Map(r.order, func(name string, _ int) RoomMembers {
		return RoomMembers{
			Name:    name,
			Members: lo.Keys(r.rooms[name]),
		}
	})
}
