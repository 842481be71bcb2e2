package views

import (
	"fmt"

	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ConversationList renders the visible (non-frozen) enriched projection.
type ConversationList struct {
	*tview.Table
	convs  []chat.Enriched
	online map[string]bool
}

// NewConversationList creates the conversation list table.
func NewConversationList() *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(tview.Styles.PrimitiveBackgroundColor).
		Background(tview.Styles.PrimaryTextColor))
	table.SetTitle(" Conversations ")

	return &ConversationList{
		Table:  table,
		online: make(map[string]bool),
	}
}

// Update refreshes the list with a new visible projection.
func (cl *ConversationList) Update(convs []chat.Enriched) {
	cl.convs = convs
	cl.render()
}

// SetOnline replaces the set of online user ids. Presence is display
// decoration only; it never affects which conversations exist.
func (cl *ConversationList) SetOnline(ids []string) {
	cl.online = make(map[string]bool, len(ids))
	for _, id := range ids {
		cl.online[id] = true
	}
	cl.render()
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" USER", 1},
		{" LAST MESSAGE", 2},
		{" ", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	for i, en := range cl.convs {
		row := i + 1
		name := en.Counterpart().Username
		if name == "" {
			name = en.Counterpart().ID
		}
		if cl.online[en.Counterpart().ID] {
			name = "● " + name
		}
		if en.Mock {
			name += " (new)"
		}

		marker := ""
		if !en.LastMessage.Seen && en.LastMessage.Text != "" {
			marker = "*"
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(en.LastMessage.Text))).SetExpansion(2))
		cl.SetCell(row, 2, tview.NewTableCell(marker).SetAlign(tview.AlignRight))
	}

	cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
}

// SelectedConversation returns the entry under the cursor.
func (cl *ConversationList) SelectedConversation() (chat.Enriched, bool) {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx < 0 || idx >= len(cl.convs) {
		return chat.Enriched{}, false
	}
	return cl.convs[idx], true
}
