package tui

import (
	"context"
	"strings"
	"time"

	"github.com/brunodmn/threadchat/internal/bus"
	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/brunodmn/threadchat/internal/push"
	"github.com/brunodmn/threadchat/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// App is the main TUI application shell.
type App struct {
	app    *tview.Application
	bus    *bus.Bus
	engine *chat.Engine
	enrich *chat.Enricher
	sel    *chat.Coordinator
	search *chat.SearchResolver
	logger *zap.Logger

	flash     *Flash
	statusBar *views.StatusBar
	list      *views.ConversationList
	surface   *views.MessageSurface
	searchIn  *tview.InputField

	events <-chan bus.Event
	unsub  func()

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(
	b *bus.Bus,
	engine *chat.Engine,
	enrich *chat.Enricher,
	sel *chat.Coordinator,
	search *chat.SearchResolver,
	profile string,
	logger *zap.Logger,
) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		bus:       b,
		engine:    engine,
		enrich:    enrich,
		sel:       sel,
		search:    search,
		logger:    logger,
		flash:     &Flash{},
		statusBar: views.NewStatusBar(),
		list:      views.NewConversationList(),
		surface:   views.NewMessageSurface(),
		ctx:       ctx,
		cancel:    cancel,
	}

	// Subscribe now, not in Run: the engine starts before the UI runs,
	// and its first projection must not be dropped in that window.
	a.events, a.unsub = b.Subscribe("", 256)

	a.statusBar.SetProfile(profile)
	a.statusBar.SetConn("disconnected")
	a.setupSearch()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupSearch() {
	a.searchIn = tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	a.searchIn.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := a.searchIn.GetText()
		if text == "" {
			return
		}
		if a.search.Pending() {
			return
		}
		a.searchIn.SetText("")
		a.runSearch(text)
	})
}

func (a *App) runSearch(text string) {
	go func() {
		outcome, err := a.search.Resolve(a.ctx, text)
		if err != nil {
			a.flash.Setf("Search failed: %v", err)
		} else if outcome == chat.SearchCreated {
			a.flash.Setf("New conversation started")
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetFlash(a.flash.Get())
			a.app.SetFocus(a.list)
		})
	}()
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, col int) {
		en, ok := a.list.SelectedConversation()
		if !ok {
			return
		}
		cp := en.Counterpart()
		a.sel.Select(chat.Selected{
			ConversationID: en.ID,
			UserID:         cp.ID,
			Username:       cp.Username,
			ProfilePic:     cp.ProfilePic,
		})
	})
}

func (a *App) setupLayout() {
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.searchIn, 1, 0, false).
		AddItem(a.surface, 0, 1, false)

	body := tview.NewFlex().
		AddItem(a.list, 0, 1, true).
		AddItem(right, 0, 2, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Let text input widgets handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			if event.Key() == tcell.KeyEscape {
				a.app.SetFocus(a.list)
				return nil
			}
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.app.Stop()
				return nil
			case '/', 's':
				a.app.SetFocus(a.searchIn)
				return nil
			case 'r':
				a.engine.Resync(a.ctx)
				return nil
			}
		}
		return event
	})
}

// eventLoop applies bus events to the widgets. All widget mutation goes
// through QueueUpdateDraw so tview stays single-threaded.
func (a *App) eventLoop() {
	defer a.unsub()

	// Catch up on whatever the engine already produced.
	visible := a.enrich.Visible()
	surface := a.sel.SurfaceFor(a.enrich.Projection())
	a.app.QueueUpdateDraw(func() {
		a.list.Update(visible)
		a.applySurface(surface)
	})

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			a.handleEvent(evt)
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.Projection:
		visible := a.enrich.Visible()
		surface := a.sel.SurfaceFor(a.enrich.Projection())
		a.app.QueueUpdateDraw(func() {
			a.list.Update(visible)
			a.applySurface(surface)
		})

	case bus.Selection:
		surface := a.sel.SurfaceFor(a.enrich.Projection())
		a.app.QueueUpdateDraw(func() {
			a.applySurface(surface)
		})

	case bus.ConnStatus:
		change, ok := evt.Payload.(push.StatusChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetConn(strings.ToLower(string(change.To)))
		})

	case bus.PushOnline:
		ids, ok := evt.Payload.([]string)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.list.SetOnline(ids)
		})

	case bus.SnapshotFailed:
		msg, _ := evt.Payload.(string)
		a.flash.Set("Sync failed: "+msg, 10*time.Second) // longer TTL: actionable via 'r'
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetFlash(a.flash.Get())
		})
	}
}

func (a *App) applySurface(s chat.Surface) {
	switch s {
	case chat.SurfaceMessages:
		if cur, ok := a.sel.Current(); ok {
			a.surface.ShowConversation(cur)
		}
	case chat.SurfaceHidden:
		a.surface.Hide()
	default:
		a.surface.ShowPlaceholder()
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	go a.eventLoop()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
