package views

import (
	"fmt"

	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/rivo/tview"
)

// MessageSurface is the right-hand pane. It shows a placeholder until a
// conversation is selected, and hides itself when the selection points
// at a frozen or missing conversation.
type MessageSurface struct {
	*tview.TextView
}

// NewMessageSurface creates the pane in the placeholder state.
func NewMessageSurface() *MessageSurface {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)

	ms := &MessageSurface{TextView: tv}
	ms.ShowPlaceholder()
	return ms
}

// ShowPlaceholder prompts the user to pick a conversation.
func (ms *MessageSurface) ShowPlaceholder() {
	ms.Clear()
	ms.SetTitle("")
	_, _ = fmt.Fprint(ms, "\n\n[gray]Select a conversation to start messaging[-]")
}

// ShowConversation mounts the message area for the selected counterpart.
func (ms *MessageSurface) ShowConversation(sel chat.Selected) {
	ms.Clear()
	name := sel.Username
	if name == "" {
		name = sel.UserID
	}
	ms.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(name))))
	_, _ = fmt.Fprintf(ms, "\n\n[gray]Messages with %s[-]", tview.Escape(sanitizeForTerminal(name)))
}

// Hide blanks the pane. Used when the selection no longer resolves to a
// visible conversation.
func (ms *MessageSurface) Hide() {
	ms.Clear()
	ms.SetTitle("")
}
