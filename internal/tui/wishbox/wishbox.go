// Package wishbox shows the user's wishes and the actions available on
// each: cancel, complete, delete, or start composing a new one.
package wishbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

// refreshPollInterval is how often the shared refresh trigger is
// checked for changes made elsewhere in the app.
const refreshPollInterval = 500 * time.Millisecond

// Lister is the slice of the API client the wishbox needs.
type Lister interface {
	ListWishes(ctx context.Context) ([]wish.Wish, error)
	CancelWish(ctx context.Context, id string) error
	CompleteWish(ctx context.Context, id string) error
	DeleteWish(ctx context.Context, id string) error
}

// Deps carries the wishbox collaborators.
type Deps struct {
	Ctx    context.Context
	Client Lister
	Store  *appstate.Store
}

// ComposeMsg bubbles up when the user wants to create a new wish.
type ComposeMsg struct{}

type loadedMsg struct {
	wishes []wish.Wish
	err    error
}

type actionDoneMsg struct {
	err error
}

type pollMsg struct{}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	New      key.Binding
	Cancel   key.Binding
	Complete key.Binding
	Delete   key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new wish")),
		Cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel wish")),
		Complete: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "mark done")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the wishbox list.
type Model struct {
	deps Deps
	keys keyMap

	wishes   []wish.Wish
	idx      int
	loading  bool
	busy     bool
	spinner  spinner.Model
	errMsg   string
	lastSeen uint64
}

func New(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Points

	return Model{
		deps:    deps,
		keys:    defaultKeyMap(),
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(), pollCmd())
}

// Reload forces a fetch, used by the container after the wizard
// publishes.
func (m Model) Reload() (Model, tea.Cmd) {
	m.loading = true
	m.errMsg = ""

	return m, tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typedMsg)

	case loadedMsg:
		m.loading = false

		if typedMsg.err != nil {
			m.errMsg = fmt.Sprintf("Could not load wishes: %v", typedMsg.err)

			return m, nil
		}

		m.errMsg = ""
		m.wishes = typedMsg.wishes
		if m.idx >= len(m.wishes) {
			m.idx = max(len(m.wishes)-1, 0)
		}

	case actionDoneMsg:
		m.busy = false

		if typedMsg.err != nil {
			m.errMsg = fmt.Sprintf("Action failed: %v", typedMsg.err)

			return m, nil
		}

		m.errMsg = ""
		m.loading = true

		return m, tea.Batch(m.spinner.Tick, m.loadCmd())

	case pollMsg:
		cmds := []tea.Cmd{pollCmd()}

		if m.deps.Store != nil {
			if seen := m.deps.Store.RefreshTrigger(); seen != m.lastSeen {
				m.lastSeen = seen
				m.loading = true
				cmds = append(cmds, m.spinner.Tick, m.loadCmd())
			}
		}

		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.loading || m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typedMsg)

			return m, cmd
		}
	}

	return m, nil
}

func (m Model) handleKey(keyMsg tea.KeyMsg) (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.idx > 0 {
			m.idx--
		}

	case key.Matches(keyMsg, m.keys.Down):
		if m.idx < len(m.wishes)-1 {
			m.idx++
		}

	case key.Matches(keyMsg, m.keys.New):
		return m, func() tea.Msg { return ComposeMsg{} }

	case key.Matches(keyMsg, m.keys.Cancel):
		return m.runAction(m.deps.Client.CancelWish)

	case key.Matches(keyMsg, m.keys.Complete):
		return m.runAction(m.deps.Client.CompleteWish)

	case key.Matches(keyMsg, m.keys.Delete):
		return m.runAction(m.deps.Client.DeleteWish)

	case key.Matches(keyMsg, m.keys.Reload):
		m.loading = true

		return m, tea.Batch(m.spinner.Tick, m.loadCmd())

	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) runAction(call func(context.Context, string) error) (Model, tea.Cmd) {
	if m.idx >= len(m.wishes) {
		return m, nil
	}

	id := m.wishes[m.idx].ID
	ctx := m.deps.Ctx
	m.busy = true

	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return actionDoneMsg{err: call(ctx, id)}
	})
}

func (m Model) loadCmd() tea.Cmd {
	ctx := m.deps.Ctx
	client := m.deps.Client

	return func() tea.Msg {
		wishes, err := client.ListWishes(ctx)

		return loadedMsg{wishes: wishes, err: err}
	}
}

func pollCmd() tea.Cmd {
	return tea.Tick(refreshPollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Your wishes"))
	sb.WriteString("\n\n")

	switch {
	case m.loading:
		sb.WriteString(m.spinner.View())
		sb.WriteString(style.Subtitle.Render(" loading…"))
		sb.WriteString("\n")
	case len(m.wishes) == 0:
		sb.WriteString(style.Muted.Render("No wishes yet. Press n to make one."))
		sb.WriteString("\n")
	default:
		for i, w := range m.wishes {
			sb.WriteString(m.renderRow(w, i == m.idx))
		}
	}

	if m.busy {
		sb.WriteString("\n")
		sb.WriteString(m.spinner.View())
		sb.WriteString(style.Subtitle.Render(" working…"))
		sb.WriteString("\n")
	}

	if m.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(m.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderHelp(m.keys))

	return sb.String()
}

func (m Model) renderRow(w wish.Wish, selected bool) string {
	status := style.StatusColor(w.Status).Render(w.Status)

	line := fmt.Sprintf("%s  %s", w.Title, status)
	if w.Remuneration > 0 {
		line += style.Subtitle.Render(fmt.Sprintf("  ₹%.0f", w.Remuneration))
	}

	if selected {
		line = style.Selected.Render("> " + line)
	} else {
		line = "  " + line
	}

	return line + "\n"
}

func renderHelp(keys keyMap) string {
	parts := []string{}
	for _, binding := range []key.Binding{keys.New, keys.Cancel, keys.Complete, keys.Delete, keys.Reload, keys.Quit} {
		parts = append(parts,
			style.Help.Render("[")+style.Key.Render(binding.Help().Key)+
				style.Help.Render("] "+binding.Help().Desc))
	}

	return strings.Join(parts, " ")
}
