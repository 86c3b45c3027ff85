// Package wizard implements the four-step wish composition flow:
// category, details, location, review. Steps are strictly linear;
// each step emits steps.NextMsg only once its forward guard passes.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/audio"
	"github.com/quickwish/quickwish/internal/tui/steps"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

// Submitter publishes a finished draft.
type Submitter interface {
	CreateWish(ctx context.Context, req wish.CreateRequest) (*wish.Wish, error)
}

// LocationResolver resolves the current position to a display address.
type LocationResolver interface {
	ResolveCurrent(ctx context.Context) (wish.Location, error)
}

// RecordingSession is one in-progress voice note capture.
type RecordingSession interface {
	Elapsed() time.Duration
	ReadSamples(n int) []int16
	Finish(ctx context.Context, path string) (audio.Note, error)
	Abort(ctx context.Context)
}

// SessionStarter acquires the microphone and begins a capture session.
type SessionStarter func() (RecordingSession, error)

// NotePlayer plays back recorded notes, one at a time.
type NotePlayer interface {
	Toggle(ctx context.Context, index int, pcm []byte) (bool, error)
	ActiveIndex() int
	Stop(ctx context.Context)
}

// Deps carries everything the wizard needs from the outside world.
type Deps struct {
	Ctx             context.Context
	Client          Submitter
	Resolver        LocationResolver
	Store           *appstate.Store
	StartSession    SessionStarter
	Player          NotePlayer
	NotesDir        string
	MaxNoteDuration time.Duration
}

// PublishedMsg bubbles up when the wish was created successfully. The
// container is expected to tear the wizard down.
type PublishedMsg struct {
	Wish *wish.Wish
}

// ClosedMsg bubbles up when the user backs out of the wizard; the
// draft is discarded.
type ClosedMsg struct{}

// sessionHolder tracks the live recording session so teardown can
// reach it from outside the step models.
type sessionHolder struct {
	mu      sync.Mutex
	session RecordingSession
}

func (h *sessionHolder) set(s RecordingSession) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = s
}

func (h *sessionHolder) get() RecordingSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.session
}

func (h *sessionHolder) take() RecordingSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.session
	h.session = nil

	return s
}

// Model is the wizard container.
type Model struct {
	deps   Deps
	draft  *wish.Draft
	holder *sessionHolder
	steps  steps.Model
}

// New creates a wizard with a fresh draft, pre-seeded with the shared
// user location when one is known.
func New(deps Deps) Model {
	draft := wish.NewDraft()

	if deps.Store != nil {
		if loc := deps.Store.UserLocation(); loc != nil {
			draft.Location = loc
		}
	}

	holder := &sessionHolder{} //nolint:exhaustruct // zero value is ready

	return Model{
		deps:   deps,
		draft:  draft,
		holder: holder,
		steps: steps.New([]steps.Step{
			steps.NewStep("Category", newCategoryStep(draft)),
			steps.NewStep("Details", newDetailsStep(draft, deps, holder)),
			steps.NewStep("Location", newLocationStep(draft, deps)),
			steps.NewStep("Review", newReviewStep(draft, deps)),
		}),
	}
}

// Draft exposes the draft for tests.
func (m Model) Draft() *wish.Draft {
	return m.draft
}

func (m Model) Init() tea.Cmd {
	return m.steps.Init()
}

func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.steps, cmd = m.steps.Update(teaMsg)

	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder

	header := fmt.Sprintf("New wish - step %d/%d: %s",
		m.steps.Current(), m.steps.Count(), m.steps.CurrentName())
	sb.WriteString(style.Title.Render(header))
	sb.WriteString("\n\n")
	sb.WriteString(m.steps.View())

	return sb.String()
}

// Close releases wizard-held resources: the active recording session
// and any playback handle. Covers teardown on publish, cancellation,
// and program exit.
func (m Model) Close() {
	if s := m.holder.take(); s != nil {
		s.Abort(m.deps.Ctx)
	}

	if m.deps.Player != nil {
		m.deps.Player.Stop(m.deps.Ctx)
	}
}
