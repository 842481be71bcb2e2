package push

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brunodmn/threadchat/internal/bus"
	"github.com/brunodmn/threadchat/internal/chat"
)

// Envelope is the wire frame of every push notification:
// {"event":"messagesSeen","data":{...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrUnknownEvent marks a frame the client does not understand. Unknown
// events are logged and skipped, never fatal.
var ErrUnknownEvent = errors.New("unknown push event")

// Wire event names sent by the service.
const (
	eventMessagesSeen = "messagesSeen"
	eventOnlineUsers  = "onlineUsers"
)

// Decode translates a wire envelope into a typed bus event.
func Decode(env Envelope) (bus.Event, error) {
	switch env.Event {
	case eventMessagesSeen:
		var seen chat.SeenEvent
		if err := json.Unmarshal(env.Data, &seen); err != nil {
			return bus.Event{}, fmt.Errorf("decode messagesSeen: %w", err)
		}
		if seen.ConversationID == "" {
			return bus.Event{}, fmt.Errorf("messagesSeen without conversationId")
		}
		return bus.Event{Kind: bus.PushSeen, Payload: seen}, nil
	case eventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			return bus.Event{}, fmt.Errorf("decode onlineUsers: %w", err)
		}
		return bus.Event{Kind: bus.PushOnline, Payload: ids}, nil
	default:
		return bus.Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
