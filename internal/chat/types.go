package chat

// Participant is a cached snapshot of a conversation member, not a live
// reference; it may go stale until the next enrichment pass.
type Participant struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

// LastMessage is the preview of a conversation's most recent message.
type LastMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Seen   bool   `json:"seen"`
}

// Conversation is one entry of the canonical list. Participants[0] is
// always the counterpart relative to the current user; every mutation
// must preserve that ordering. Mock marks a provisional entry the server
// has not persisted yet.
type Conversation struct {
	ID           string        `json:"_id"`
	Participants []Participant `json:"participants"`
	LastMessage  LastMessage   `json:"lastMessage"`
	Mock         bool          `json:"mock,omitempty"`
}

// Counterpart returns the other party of a two-party conversation.
func (c Conversation) Counterpart() Participant {
	if len(c.Participants) == 0 {
		return Participant{}
	}
	return c.Participants[0]
}

// Profile is a user record returned by the profile endpoint.
type Profile struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	IsFrozen   bool   `json:"isFrozen"`
}

// Enriched is a conversation annotated with the counterpart's frozen
// status. The UI only ever sees Enriched values, never raw Conversations.
type Enriched struct {
	Conversation
	IsFrozen bool
}

// Selected is a lightweight pointer to the active conversation. Its
// lifetime is independent from the store: it may reference a conversation
// that is not (or not yet) present in it.
type Selected struct {
	ConversationID string
	UserID         string
	Username       string
	ProfilePic     string
}

// SeenEvent is the payload of a messagesSeen push notification.
type SeenEvent struct {
	ConversationID string `json:"conversationId"`
}

// StoreChange describes a store mutation; it is the payload of every
// store.* bus event.
type StoreChange struct {
	ConversationID string
	Size           int
}
