package chat

import (
	"sync"

	"github.com/brunodmn/threadchat/internal/bus"
)

// Surface is what the message area of the UI should show.
type Surface int

const (
	// SurfacePlaceholder prompts the user to pick a conversation.
	SurfacePlaceholder Surface = iota
	// SurfaceMessages mounts the message-rendering collaborator.
	SurfaceMessages
	// SurfaceHidden shows neither: the selection points at a frozen or
	// missing conversation. This is a deliberate soft-fail, no error is
	// raised to the user.
	SurfaceHidden
)

func (s Surface) String() string {
	switch s {
	case SurfacePlaceholder:
		return "placeholder"
	case SurfaceMessages:
		return "messages"
	default:
		return "hidden"
	}
}

// Coordinator tracks the active conversation pointer. There are two
// states: unselected and selected; there is no deselect operation.
// Every transition is published on the bus.
type Coordinator struct {
	mu       sync.RWMutex
	selected bool
	current  Selected
	bus      *bus.Bus
}

// NewCoordinator creates a coordinator in the unselected state.
func NewCoordinator(b *bus.Bus) *Coordinator {
	return &Coordinator{bus: b}
}

// Select moves the pointer to the given conversation.
func (c *Coordinator) Select(sel Selected) {
	c.mu.Lock()
	c.selected = true
	c.current = sel
	c.mu.Unlock()

	c.bus.Emit(bus.Selection, sel)
}

// Current returns the active pointer, and whether one is set.
func (c *Coordinator) Current() (Selected, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.selected
}

// SurfaceFor decides what the message area shows, as a pure function of
// the current state and the enriched projection: the message surface is
// mounted only when the selection resolves to a projection entry whose
// counterpart is not frozen.
func (c *Coordinator) SurfaceFor(projection []Enriched) Surface {
	sel, ok := c.Current()
	if !ok {
		return SurfacePlaceholder
	}
	for _, en := range projection {
		if en.ID == sel.ConversationID && !en.IsFrozen {
			return SurfaceMessages
		}
	}
	return SurfaceHidden
}
