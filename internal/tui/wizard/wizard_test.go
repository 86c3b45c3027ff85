package wizard

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/audio"
	"github.com/quickwish/quickwish/internal/geo"
	"github.com/quickwish/quickwish/internal/wish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

// fakeSubmitter implements Submitter for testing.
type fakeSubmitter struct {
	mu   sync.Mutex
	reqs []wish.CreateRequest
	resp *wish.Wish
	err  error
	gate chan struct{}
}

func (f *fakeSubmitter) CreateWish(_ context.Context, req wish.CreateRequest) (*wish.Wish, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}

	return f.resp, f.err
}

func (f *fakeSubmitter) calls() []wish.CreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]wish.CreateRequest(nil), f.reqs...)
}

// fakeResolver implements LocationResolver for testing.
type fakeResolver struct {
	loc wish.Location
	err error
}

func (f *fakeResolver) ResolveCurrent(_ context.Context) (wish.Location, error) {
	return f.loc, f.err
}

// fakeSession implements RecordingSession for testing.
type fakeSession struct {
	elapsed  time.Duration
	note     audio.Note
	finished atomic.Bool
	aborted  atomic.Bool
}

func (f *fakeSession) Elapsed() time.Duration   { return f.elapsed }
func (f *fakeSession) ReadSamples(_ int) []int16 { return []int16{100, 2000, 500} }

func (f *fakeSession) Finish(_ context.Context, path string) (audio.Note, error) {
	f.finished.Store(true)
	note := f.note
	note.Path = path

	return note, nil
}

func (f *fakeSession) Abort(_ context.Context) {
	f.aborted.Store(true)
}

// fakePlayer implements NotePlayer for testing.
type fakePlayer struct {
	mu      sync.Mutex
	active  int
	stopped bool
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{active: audio.NoActiveNote}
}

func (f *fakePlayer) Toggle(_ context.Context, index int, _ []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active == index {
		f.active = audio.NoActiveNote

		return false, nil
	}

	f.active = index

	return true, nil
}

func (f *fakePlayer) ActiveIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.active
}

func (f *fakePlayer) Stop(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
	f.active = audio.NoActiveNote
}

func (f *fakePlayer) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stopped
}

// harness adapts the wizard to tea.Model and records the terminal
// messages the parent container would normally consume.
type harness struct {
	wiz       Model
	published *atomic.Bool
	closed    *atomic.Bool
}

func newHarness(wiz Model) harness {
	return harness{
		wiz:       wiz,
		published: &atomic.Bool{},
		closed:    &atomic.Bool{},
	}
}

func (h harness) Init() tea.Cmd {
	return h.wiz.Init()
}

func (h harness) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case PublishedMsg:
		h.published.Store(true)
	case ClosedMsg:
		h.closed.Store(true)
	}

	var cmd tea.Cmd
	h.wiz, cmd = h.wiz.Update(msg)

	return h, cmd
}

func (h harness) View() string {
	return h.wiz.View()
}

func testDeps(t *testing.T, submitter Submitter) Deps {
	t.Helper()

	return Deps{
		Ctx:      context.Background(),
		Client:   submitter,
		Resolver: &fakeResolver{loc: wish.Location{Lat: 12.97, Lng: 77.59, Address: "MG Road, Bengaluru"}},
		Store:    appstate.New(),
		StartSession: func() (RecordingSession, error) {
			return &fakeSession{note: audio.Note{DurationSeconds: 3}}, nil
		},
		Player:          newFakePlayer(),
		NotesDir:        t.TempDir(),
		MaxNoteDuration: 10 * time.Second,
	}
}

func sendRunes(tm *teatest.TestModel, text string) {
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestWizard_DeliveryAutoAdvances(t *testing.T) {
	wiz := New(testDeps(t, &fakeSubmitter{}))
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "What do you need help with?")

	// Delivery is the first entry and has no sub-categories.
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	checker.checkString(t, tm, "step 2/4: Details")
	assert.Equal(t, wish.CategoryDelivery, draft.Category)
	assert.Empty(t, draft.SubCategory)
}

func TestWizard_RideRequiresVehicleChoice(t *testing.T) {
	wiz := New(testDeps(t, &fakeSubmitter{}))
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "What do you need help with?")

	// Second entry is Ride, which needs a vehicle type before the
	// wizard moves on.
	tm.Send(tea.KeyMsg{Type: tea.KeyDown})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	checker.checkString(t, tm, "choose a type")
	assert.Equal(t, wish.CategoryCommercialRide, draft.Category)

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	checker.checkString(t, tm, "step 2/4: Details")
	assert.Equal(t, wish.SubCategoryAuto, draft.SubCategory)
}

func TestWizard_EmptyTitleBlocksDetails(t *testing.T) {
	wiz := New(testDeps(t, &fakeSubmitter{}))

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")

	// Enter without a title must stay on step 2; the description
	// editor only exists there.
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	sendRunes(tm, "d")
	checker.checkString(t, tm, "Any details helpers should know")
}

func TestWizard_FullFlowPublishes(t *testing.T) {
	submitter := &fakeSubmitter{
		resp: &wish.Wish{ID: "w-1", Status: wish.StatusPending},
	}
	deps := testDeps(t, submitter)

	wiz := New(deps)
	h := newHarness(wiz)

	tm := teatest.NewTestModel(t, h, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	// Step 1: delivery.
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")

	// Step 2: title.
	sendRunes(tm, "t")
	sendRunes(tm, "Pick up parcel")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")

	// Step 3: resolve, then continue.
	sendRunes(tm, "g")
	checker.checkString(t, tm, "MG Road, Bengaluru")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 4/4: Review")

	// Step 4: price, then publish.
	sendRunes(tm, "p")
	sendRunes(tm, "150")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	require.Eventually(t, func() bool {
		return h.published.Load()
	}, 3*time.Second, 50*time.Millisecond, "wish should be published")

	calls := submitter.calls()
	require.Len(t, calls, 1)

	req := calls[0]
	assert.Equal(t, wish.CategoryDelivery, req.Type)
	assert.Equal(t, "Pick up parcel", req.Title)
	assert.Equal(t, "MG Road, Bengaluru", req.Location.Address)
	assert.InDelta(t, 5.0, req.RadiusKm, 0.001)
	assert.InDelta(t, 150.0, req.Remuneration, 0.001)
	assert.True(t, req.IsImmediate)
	assert.Nil(t, req.ScheduledTime)

	assert.Equal(t, uint64(1), deps.Store.RefreshTrigger())
}

func TestWizard_PublishFailureKeepsDraft(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("service unavailable")}
	deps := testDeps(t, submitter)

	wiz := New(deps)
	draft := wiz.Draft()
	h := newHarness(wiz)

	tm := teatest.NewTestModel(t, h, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")

	sendRunes(tm, "t")
	sendRunes(tm, "Groceries run")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 4/4: Review")

	sendRunes(tm, "p")
	sendRunes(tm, "80")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	checker.checkString(t, tm, "Publish failed")

	// Everything entered survives for a retry.
	assert.False(t, h.published.Load())
	assert.Equal(t, "Groceries run", draft.Title)
	assert.Equal(t, "80", draft.PriceInput)
	assert.Equal(t, uint64(0), deps.Store.RefreshTrigger())
}

func TestWizard_InFlightSubmitIgnoresRepeat(t *testing.T) {
	submitter := &fakeSubmitter{
		resp: &wish.Wish{ID: "w-2", Status: wish.StatusPending},
		gate: make(chan struct{}),
	}
	deps := testDeps(t, submitter)

	wiz := New(deps)
	h := newHarness(wiz)

	tm := teatest.NewTestModel(t, h, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")
	sendRunes(tm, "t")
	sendRunes(tm, "Water cans")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 4/4: Review")

	sendRunes(tm, "p")
	sendRunes(tm, "60")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "Publishing")

	// Hammering enter while the request is in flight must not queue
	// a second submission.
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	close(submitter.gate)

	require.Eventually(t, func() bool {
		return h.published.Load()
	}, 3*time.Second, 50*time.Millisecond)

	assert.Len(t, submitter.calls(), 1)
}

func TestWizard_EscOnFirstStepCloses(t *testing.T) {
	wiz := New(testDeps(t, &fakeSubmitter{}))
	h := newHarness(wiz)

	tm := teatest.NewTestModel(t, h, teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	checker.checkString(t, tm, "What do you need help with?")
	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

	require.Eventually(t, func() bool {
		return h.closed.Load()
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWizard_LocationPermissionDeniedShowsHint(t *testing.T) {
	deps := testDeps(t, &fakeSubmitter{})
	deps.Resolver = &fakeResolver{err: geo.ErrPermissionDenied}

	wiz := New(deps)
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")
	sendRunes(tm, "t")
	sendRunes(tm, "Fix the tap")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")

	sendRunes(tm, "g")
	checker.checkString(t, tm, "permission not granted")

	// Typing an address still works.
	sendRunes(tm, "m")
	sendRunes(tm, "12 Cross, Indiranagar")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	checker.checkString(t, tm, "12 Cross, Indiranagar")
	require.NotNil(t, draft.Location)
	assert.Equal(t, "12 Cross, Indiranagar", draft.Location.Address)
	assert.Zero(t, draft.Location.Lat)
}

// enterDetails walks a fresh wizard onto step 2.
func enterDetails(t *testing.T, tm *teatest.TestModel, checker outputChecker) {
	t.Helper()
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")
}

func TestWizard_RecordingAutoStopsAtCap(t *testing.T) {
	var (
		mu       sync.Mutex
		sessions []*fakeSession
	)

	deps := testDeps(t, &fakeSubmitter{})
	deps.StartSession = func() (RecordingSession, error) {
		// Reports more captured audio than the cap allows, so the
		// first recording tick must stop it without a second keypress.
		s := &fakeSession{elapsed: 11 * time.Second, note: audio.Note{DurationSeconds: 10}}

		mu.Lock()
		sessions = append(sessions, s)
		mu.Unlock()

		return s, nil
	}

	wiz := New(deps)
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	enterDetails(t, tm, checker)
	sendRunes(tm, "r")

	checker.checkString(t, tm, "note 1 (10s)")

	mu.Lock()
	require.Len(t, sessions, 1)
	session := sessions[0]
	mu.Unlock()

	assert.True(t, session.finished.Load())
	assert.False(t, session.aborted.Load())
	require.Len(t, draft.VoiceNotes, 1)
	assert.Equal(t, 10, draft.VoiceNotes[0].DurationSeconds)
}

func TestWizard_CloseAbortsLiveRecording(t *testing.T) {
	session := &fakeSession{}

	deps := testDeps(t, &fakeSubmitter{})
	deps.StartSession = func() (RecordingSession, error) { return session, nil }
	player, ok := deps.Player.(*fakePlayer)
	require.True(t, ok)

	wiz := New(deps)

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	enterDetails(t, tm, checker)
	sendRunes(tm, "r")
	checker.checkString(t, tm, "Recording")

	// Tear down the way the container does on quit: the live session
	// is discarded, nothing is committed.
	wiz.Close()

	assert.True(t, session.aborted.Load())
	assert.False(t, session.finished.Load())
	assert.True(t, player.wasStopped())
}

func TestWizard_RemovingEarlierNoteStopsPlayback(t *testing.T) {
	deps := testDeps(t, &fakeSubmitter{})
	deps.StartSession = func() (RecordingSession, error) {
		return &fakeSession{elapsed: 11 * time.Second, note: audio.Note{DurationSeconds: 10}}, nil
	}
	player, ok := deps.Player.(*fakePlayer)
	require.True(t, ok)

	wiz := New(deps)
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	enterDetails(t, tm, checker)

	sendRunes(tm, "r")
	checker.checkString(t, tm, "note 1 (10s)")
	sendRunes(tm, "r")
	checker.checkString(t, tm, "note 2 (10s)")

	// Selection follows the newest note; play it.
	sendRunes(tm, "p")
	require.Eventually(t, func() bool {
		return player.ActiveIndex() == 1
	}, 3*time.Second, 50*time.Millisecond)

	// Removing the first note shifts the second one down, so the
	// player's handle must be released rather than left pointing at
	// the old position.
	sendRunes(tm, "k")
	sendRunes(tm, "x")

	require.Eventually(t, func() bool {
		return player.ActiveIndex() == audio.NoActiveNote
	}, 3*time.Second, 50*time.Millisecond)

	require.Len(t, draft.VoiceNotes, 1)
}

func TestWizard_UnpublishableDraftKeepsPublishInert(t *testing.T) {
	submitter := &fakeSubmitter{}
	deps := testDeps(t, submitter)

	wiz := New(deps)

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	enterDetails(t, tm, checker)
	sendRunes(tm, "t")
	sendRunes(tm, "Chai run")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// No price yet: the view says so without requiring a failed
	// keypress first.
	checker.checkString(t, tm, "Set a price before publishing.")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Never(t, func() bool {
		return len(submitter.calls()) > 0
	}, 500*time.Millisecond, 50*time.Millisecond)
}

func TestWizard_RadiusKeysClampAtBounds(t *testing.T) {
	wiz := New(testDeps(t, &fakeSubmitter{}))
	draft := wiz.Draft()

	tm := teatest.NewTestModel(t, newHarness(wiz), teatest.WithInitialTermSize(80, 24))
	checker := defaultChecker()

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 2/4: Details")
	sendRunes(tm, "t")
	sendRunes(tm, "Anything")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.checkString(t, tm, "step 3/4: Location")

	for range 10 {
		sendRunes(tm, "-")
	}

	checker.checkString(t, tm, "1 km")
	assert.Equal(t, wish.MinRadiusKm, draft.RadiusKm)
}
