package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRoomRegistry_CreateRejectsDuplicates(t *testing.T) {
	registry := NewRoomRegistry()
	member := uuid.New()

	require.NoError(t, registry.Create("lobby"))
	require.NoError(t, registry.Join("lobby", member))

	// Creating again fails and never merges or resets membership.
	require.ErrorIs(t, registry.Create("lobby"), ErrRoomExists)

	members, ok := registry.Members("lobby")
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{member}, members)
}

func TestRoomRegistry_JoinIsIdempotent(t *testing.T) {
	registry := NewRoomRegistry()
	member := uuid.New()

	require.NoError(t, registry.Create("lobby"))
	require.NoError(t, registry.Join("lobby", member))
	require.NoError(t, registry.Join("lobby", member))

	members, _ := registry.Members("lobby")
	require.Len(t, members, 1)
}

func TestRoomRegistry_JoinAbsentRoomFails(t *testing.T) {
	registry := NewRoomRegistry()

	require.ErrorIs(t, registry.Join("nowhere", uuid.New()), ErrRoomNotFound)
}

func TestRoomRegistry_LeaveIsIdempotent(t *testing.T) {
	registry := NewRoomRegistry()
	member := uuid.New()

	require.False(t, registry.Leave("nowhere", member))

	require.NoError(t, registry.Create("lobby"))
	require.True(t, registry.Leave("lobby", member)) // never joined, still a no-op
	require.NoError(t, registry.Join("lobby", member))
	require.True(t, registry.Leave("lobby", member))
	require.True(t, registry.Leave("lobby", member))

	members, ok := registry.Members("lobby")
	require.True(t, ok)
	require.Empty(t, members)
}

func TestRoomRegistry_RemoveConnectionSweepsAllRooms(t *testing.T) {
	registry := NewRoomRegistry()
	member := uuid.New()
	bystander := uuid.New()

	require.NoError(t, registry.Create("lobby"))
	require.NoError(t, registry.Create("dev"))
	require.NoError(t, registry.Join("lobby", member))
	require.NoError(t, registry.Join("dev", member))
	require.NoError(t, registry.Join("dev", bystander))

	require.True(t, registry.RemoveConnection(member))
	require.False(t, registry.RemoveConnection(member))

	lobby, _ := registry.Members("lobby")
	require.Empty(t, lobby)
	dev, _ := registry.Members("dev")
	require.Equal(t, []uuid.UUID{bystander}, dev)
}

// Empty rooms stay registered: there is no garbage collection, so a drained
// room can be rejoined later. This documents the current behavior.
func TestRoomRegistry_EmptyRoomStaysRegistered(t *testing.T) {
	registry := NewRoomRegistry()
	member := uuid.New()

	require.NoError(t, registry.Create("lobby"))
	require.NoError(t, registry.Join("lobby", member))
	require.True(t, registry.Leave("lobby", member))

	memberships := registry.Memberships()
	require.Len(t, memberships, 1)
	require.Equal(t, "lobby", memberships[0].Name)
	require.Empty(t, memberships[0].Members)

	require.NoError(t, registry.Join("lobby", member))
}

func TestRoomRegistry_MembershipsKeepCreationOrder(t *testing.T) {
	registry := NewRoomRegistry()

	require.NoError(t, registry.Create("lobby"))
	require.NoError(t, registry.Create("dev"))
	require.NoError(t, registry.Create("random"))

	memberships := registry.Memberships()
	require.Len(t, memberships, 3)
	require.Equal(t, "lobby", memberships[0].Name)
	require.Equal(t, "dev", memberships[1].Name)
	require.Equal(t, "random", memberships[2].Name)
}
