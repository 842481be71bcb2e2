package chat

import (
	"sync"

	"github.com/brunodmn/threadchat/internal/bus"
)

// Store holds the canonical ordered conversation list. It is the only
// mutable shared state of the client; all writes go through the three
// methods below and each one publishes a store.* event on the bus.
// Conversations are only ever removed by a full ReplaceAll, never by
// push events.
type Store struct {
	mu    sync.RWMutex
	convs []Conversation
	bus   *bus.Bus
}

// NewStore creates an empty conversation store.
func NewStore(b *bus.Bus) *Store {
	return &Store{bus: b}
}

// ReplaceAll sets the canonical state from a trusted server snapshot,
// discarding whatever was there before.
func (s *Store) ReplaceAll(convs []Conversation) {
	s.mu.Lock()
	s.convs = make([]Conversation, len(convs))
	copy(s.convs, convs)
	size := len(s.convs)
	s.mu.Unlock()

	s.bus.Emit(bus.StoreReplaced, StoreChange{Size: size})
}

// ApplySeen marks the last message of the matching conversation as seen.
// An unknown id is a no-op: push events may reference conversations the
// snapshot has not delivered yet, and that is tolerated, not an error.
func (s *Store) ApplySeen(conversationID string) {
	s.mu.Lock()
	applied := false
	for i := range s.convs {
		if s.convs[i].ID == conversationID {
			s.convs[i].LastMessage.Seen = true
			applied = true
			break
		}
	}
	size := len(s.convs)
	s.mu.Unlock()

	if applied {
		s.bus.Emit(bus.StoreSeen, StoreChange{ConversationID: conversationID, Size: size})
	}
}

// Append adds a provisional conversation at the end of the list.
func (s *Store) Append(conv Conversation) {
	s.mu.Lock()
	s.convs = append(s.convs, conv)
	size := len(s.convs)
	s.mu.Unlock()

	s.bus.Emit(bus.StoreAppended, StoreChange{ConversationID: conv.ID, Size: size})
}

// Snapshot returns a copy of the ordered conversation list. Callers must
// treat entries as read-only and route changes back through the store.
func (s *Store) Snapshot() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, len(s.convs))
	copy(out, s.convs)
	return out
}

// FindByCounterpart returns the first conversation, in store order, whose
// counterpart matches userID.
func (s *Store) FindByCounterpart(userID string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.convs {
		if c.Counterpart().ID == userID {
			return c, true
		}
	}
	return Conversation{}, false
}

// Len returns the current list length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
