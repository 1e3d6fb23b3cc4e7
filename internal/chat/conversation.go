package chat

import (
	"sort"
	"sync"
	"time"
)

// MessageEntry is one immutable entry in a conversation log. The timestamp is
// assigned by the store at append time and is the sort key for history reads;
// the sequence number breaks ties in append order.
type MessageEntry struct {
	Sender    string
	Receiver  string
	Body      string
	Timestamp time.Time

	seq uint64
}

// ConversationStore keeps append-only message logs for the process lifetime.
// Direct messages live under the directed key "sender-receiver"; the two
// directions of a pair are merged at read time, never at write time. Room
// logs are kept in a separate keyspace so room names cannot collide with
// username pairs.
type ConversationStore struct {
	mu    sync.Mutex
	pairs map[string][]MessageEntry
	rooms map[string][]MessageEntry
	seq   uint64
	now   func() time.Time
}

// NewConversationStore returns an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		pairs: make(map[string][]MessageEntry),
		rooms: make(map[string][]MessageEntry),
		now:   time.Now,
	}
}

// Append records a direct message under the sender-receiver directed key and
// returns the stored entry.
func (s *ConversationStore) Append(sender, receiver, body string) MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.newEntry(sender, receiver, body)
	key := directedKey(sender, receiver)
	s.pairs[key] = append(s.pairs[key], entry)
	return entry
}

// History returns the merged conversation between a and b, ascending by
// timestamp with ties broken by append order. Both query directions yield the
// identical sequence; absent keys behave as empty logs.
func (s *ConversationStore) History(a, b string) []MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	forward := s.pairs[directedKey(a, b)]
	reverse := s.pairs[directedKey(b, a)]

	merged := make([]MessageEntry, 0, len(forward)+len(reverse))
	merged = append(merged, forward...)
	merged = append(merged, reverse...)

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Timestamp.Before(merged[j].Timestamp)
		}
		return merged[i].seq < merged[j].seq
	})
	return merged
}

// AppendRoom records a message on the room's log. The receiver field carries
// the room name.
func (s *ConversationStore) AppendRoom(room, sender, body string) MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.newEntry(sender, room, body)
	s.rooms[room] = append(s.rooms[room], entry)
	return entry
}

// RoomHistory returns the room's log in append order. An unknown room reads
// as an empty log.
func (s *ConversationStore) RoomHistory(room string) []MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.rooms[room]
	out := make([]MessageEntry, len(log))
	copy(out, log)
	return out
}

func (s *ConversationStore) newEntry(sender, receiver, body string) MessageEntry {
	s.seq++
	return MessageEntry{
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		Timestamp: s.now(),
		seq:       s.seq,
	}
}

func directedKey(from, to string) string {
	return from + "-" + to
}
