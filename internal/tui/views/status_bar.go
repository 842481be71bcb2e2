package views

import (
	"fmt"

	"github.com/rivo/tview"
)

// StatusBar displays persistent profile/connection status.
type StatusBar struct {
	*tview.TextView
	profile string
	conn    string
	flash   string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetConn updates the connection state display.
func (sb *StatusBar) SetConn(state string) {
	sb.conn = state
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	connColor := "red"
	if sb.conn == "connected" {
		connColor = "green"
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-]", sb.profile, connColor, sb.conn)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
