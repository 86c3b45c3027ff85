// Package tui wires the wishbox and the wish wizard into one program.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/tui/wishbox"
	"github.com/quickwish/quickwish/internal/tui/wizard"
	"github.com/quickwish/quickwish/internal/wish"
)

// Client is the API surface the whole TUI needs.
type Client interface {
	wizard.Submitter
	wishbox.Lister
}

// Deps carries everything the TUI needs from the outside world.
type Deps struct {
	Ctx             context.Context
	Cancel          context.CancelFunc
	Client          Client
	Resolver        wizard.LocationResolver
	Store           *appstate.Store
	StartSession    wizard.SessionStarter
	Player          wizard.NotePlayer
	NotesDir        string
	MaxNoteDuration time.Duration
}

type model struct {
	deps Deps

	box       wishbox.Model
	wiz       *wizard.Model
	statusMsg string
}

func New(deps Deps) tea.Model {
	return model{
		deps: deps,
		box: wishbox.New(wishbox.Deps{
			Ctx:    deps.Ctx,
			Client: deps.Client,
			Store:  deps.Store,
		}),
	}
}

func (m model) Init() tea.Cmd {
	return m.box.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := msg.(type) {
	case tea.KeyMsg:
		if typedMsg.String() == "ctrl+c" {
			m.closeWizard()
			if m.deps.Cancel != nil {
				m.deps.Cancel()
			}

			return m, tea.Quit
		}

	case wishbox.ComposeMsg:
		wiz := wizard.New(wizard.Deps{
			Ctx:             m.deps.Ctx,
			Client:          m.deps.Client,
			Resolver:        m.deps.Resolver,
			Store:           m.deps.Store,
			StartSession:    m.deps.StartSession,
			Player:          m.deps.Player,
			NotesDir:        m.deps.NotesDir,
			MaxNoteDuration: m.deps.MaxNoteDuration,
		})
		m.wiz = &wiz
		m.statusMsg = ""

		return m, wiz.Init()

	case wizard.PublishedMsg:
		m.closeWizard()
		m.statusMsg = publishedText(typedMsg.Wish)

		var cmd tea.Cmd
		m.box, cmd = m.box.Reload()

		return m, cmd

	case wizard.ClosedMsg:
		m.closeWizard()

		return m, nil
	}

	var cmd tea.Cmd
	if m.wiz != nil {
		wiz, wizCmd := m.wiz.Update(msg)
		m.wiz = &wiz

		// Keys belong to the wizard alone; everything else still
		// reaches the wishbox so its refresh poll stays armed while
		// the wizard is up.
		if _, isKey := msg.(tea.KeyMsg); isKey {
			return m, wizCmd
		}

		var boxCmd tea.Cmd
		m.box, boxCmd = m.box.Update(msg)

		return m, tea.Batch(wizCmd, boxCmd)
	}

	m.box, cmd = m.box.Update(msg)

	return m, cmd
}

func (m *model) closeWizard() {
	if m.wiz == nil {
		return
	}

	m.wiz.Close()
	m.wiz = nil
}

func publishedText(w *wish.Wish) string {
	if w == nil {
		return "Wish published."
	}

	return "Wish published: " + w.Title
}

func (m model) View() string {
	if m.wiz != nil {
		return m.wiz.View()
	}

	out := m.box.View()
	if m.statusMsg != "" {
		out = style.Success.Render(m.statusMsg) + "\n\n" + out
	}

	return out
}
