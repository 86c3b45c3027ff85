package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/geo"
	"github.com/quickwish/quickwish/internal/tui/steps"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

// locationResolvedMsg carries the outcome of a GPS resolution.
type locationResolvedMsg struct {
	loc wish.Location
	err error
}

type locationKeyMap struct {
	Resolve  key.Binding
	Manual   key.Binding
	RadiusUp key.Binding
	RadiusDn key.Binding
	Continue key.Binding
	Back     key.Binding
}

func defaultLocationKeyMap() locationKeyMap {
	return locationKeyMap{
		Resolve:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "use current location")),
		Manual:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "type address")),
		RadiusUp: key.NewBinding(key.WithKeys("+", "right"), key.WithHelp("+", "wider radius")),
		RadiusDn: key.NewBinding(key.WithKeys("-", "left"), key.WithHelp("-", "narrower radius")),
		Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// locationStep is step 3: where the wish is, and how far away helpers
// may be. Radius has a default, so the step never blocks forward
// navigation.
type locationStep struct {
	draft *wish.Draft
	deps  Deps
	keys  locationKeyMap

	manual    textinput.Model
	editing   bool
	resolving bool
	spinner   spinner.Model
	errMsg    string
}

func newLocationStep(draft *wish.Draft, deps Deps) tea.Model {
	manual := textinput.New()
	manual.Placeholder = "House, road, area…"
	manual.Prompt = "> "

	s := spinner.New()
	s.Spinner = spinner.Points

	return &locationStep{
		draft:   draft,
		deps:    deps,
		keys:    defaultLocationKeyMap(),
		manual:  manual,
		spinner: s,
	}
}

func (l *locationStep) Init() tea.Cmd {
	l.errMsg = ""

	return nil
}

func (l *locationStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		if l.editing {
			return l.updateManual(typedMsg)
		}

		return l.handleKey(typedMsg)

	case locationResolvedMsg:
		l.resolving = false

		if typedMsg.err != nil {
			l.errMsg = resolveErrorText(typedMsg.err)

			return l, nil
		}

		l.draft.SetLocation(typedMsg.loc)
		l.errMsg = ""

	case spinner.TickMsg:
		if l.resolving {
			var cmd tea.Cmd
			l.spinner, cmd = l.spinner.Update(typedMsg)

			return l, cmd
		}
	}

	return l, nil
}

func (l *locationStep) handleKey(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, l.keys.Resolve):
		if l.resolving || l.deps.Resolver == nil {
			return l, nil
		}

		l.resolving = true
		l.errMsg = ""

		return l, tea.Batch(l.spinner.Tick, l.resolveCmd())

	case key.Matches(keyMsg, l.keys.Manual):
		l.editing = true
		l.manual.SetValue(l.draft.ManualAddress)

		return l, l.manual.Focus()

	case key.Matches(keyMsg, l.keys.RadiusUp):
		l.draft.IncRadius()

	case key.Matches(keyMsg, l.keys.RadiusDn):
		l.draft.DecRadius()

	case key.Matches(keyMsg, l.keys.Continue):
		return l, steps.NextCmd

	case key.Matches(keyMsg, l.keys.Back):
		return l, steps.PrevCmd
	}

	return l, nil
}

func (l *locationStep) updateManual(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMsg.Type == tea.KeyEnter || keyMsg.Type == tea.KeyEsc {
		if text := strings.TrimSpace(l.manual.Value()); text != "" {
			// Typed text overrides any resolved coordinates.
			l.draft.SetManualAddress(text)
		}

		l.manual.Blur()
		l.editing = false

		return l, nil
	}

	var cmd tea.Cmd
	l.manual, cmd = l.manual.Update(keyMsg)

	return l, cmd
}

func (l *locationStep) resolveCmd() tea.Cmd {
	ctx := l.deps.Ctx
	resolver := l.deps.Resolver

	return func() tea.Msg {
		loc, err := resolver.ResolveCurrent(ctx)

		return locationResolvedMsg{loc: loc, err: err}
	}
}

func resolveErrorText(err error) string {
	if errors.Is(err, geo.ErrPermissionDenied) {
		return "Location permission not granted. Type an address instead, or set QUICKWISH_LOCATION_CONSENT=true."
	}

	return fmt.Sprintf("Could not get location: %v", err)
}

func (l *locationStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Location: "))

	switch {
	case l.resolving:
		sb.WriteString(l.spinner.View())
		sb.WriteString(style.Subtitle.Render(" locating…"))
	case l.editing:
		sb.WriteString(l.manual.View())
	case l.draft.Location != nil:
		sb.WriteString(l.draft.Location.Address)
	default:
		sb.WriteString(style.Muted.Render("(not set)"))
	}

	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Visibility radius: "))
	sb.WriteString(fmt.Sprintf("%d km", l.draft.RadiusKm))
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("  (%d-%d)", wish.MinRadiusKm, wish.MaxRadiusKm)))
	sb.WriteString("\n")

	if l.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(l.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeyHelp(l.keys.Resolve, " "))
	sb.WriteString(renderKeyHelp(l.keys.Manual, " "))
	sb.WriteString(renderKeyHelp(l.keys.RadiusUp, " "))
	sb.WriteString(renderKeyHelp(l.keys.RadiusDn, "\n"))
	sb.WriteString(renderKeyHelp(l.keys.Continue, " "))
	sb.WriteString(renderKeyHelp(l.keys.Back, ""))

	return sb.String()
}
