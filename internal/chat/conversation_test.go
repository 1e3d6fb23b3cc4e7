package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestConversationStore_HistoryMergeSymmetry(t *testing.T) {
	store := NewConversationStore()

	store.Append("alice", "bob", "hi")

	forward := store.History("alice", "bob")
	reverse := store.History("bob", "alice")

	require.Equal(t, forward, reverse)
	require.Len(t, forward, 1)
	require.Equal(t, "alice", forward[0].Sender)
	require.Equal(t, "bob", forward[0].Receiver)
	require.Equal(t, "hi", forward[0].Body)
	require.False(t, forward[0].Timestamp.IsZero())
}

func TestConversationStore_HistoryOrderedAcrossDirections(t *testing.T) {
	store := NewConversationStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store.now = fixedClock(base)
	store.Append("alice", "bob", "one")
	store.now = fixedClock(base.Add(2 * time.Second))
	store.Append("bob", "alice", "two")
	store.now = fixedClock(base.Add(time.Second))
	store.Append("alice", "bob", "three")

	history := store.History("bob", "alice")
	require.Len(t, history, 3)
	require.Equal(t, "one", history[0].Body)
	require.Equal(t, "three", history[1].Body)
	require.Equal(t, "two", history[2].Body)

	for i := 1; i < len(history); i++ {
		require.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestConversationStore_TimestampTiesBreakByAppendOrder(t *testing.T) {
	store := NewConversationStore()
	store.now = fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	store.Append("alice", "bob", "first")
	store.Append("bob", "alice", "second")
	store.Append("alice", "bob", "third")

	history := store.History("alice", "bob")
	require.Equal(t, []string{"first", "second", "third"},
		[]string{history[0].Body, history[1].Body, history[2].Body})
}

func TestConversationStore_MissingKeysReadEmpty(t *testing.T) {
	store := NewConversationStore()

	require.Empty(t, store.History("ghost", "nobody"))
	require.Empty(t, store.RoomHistory("nowhere"))
}

func TestConversationStore_RoomLogKeepsAppendOrder(t *testing.T) {
	store := NewConversationStore()

	store.AppendRoom("lobby", "alice", "hello")
	store.AppendRoom("lobby", "bob", "hey")
	store.Append("alice", "bob", "psst") // direct log must stay separate

	log := store.RoomHistory("lobby")
	require.Len(t, log, 2)
	require.Equal(t, "alice", log[0].Sender)
	require.Equal(t, "lobby", log[0].Receiver)
	require.Equal(t, "hey", log[1].Body)

	require.Len(t, store.History("alice", "bob"), 1)
}
