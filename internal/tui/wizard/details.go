package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/tui/components/waveform"
	"github.com/quickwish/quickwish/internal/tui/steps"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

// sessionLevels adapts a recording session to the waveform meter's
// sample source.
type sessionLevels struct {
	session RecordingSession
}

func (s sessionLevels) Read() []int16 {
	return s.session.ReadSamples(800)
}

// recTickInterval drives the countdown and level meter while recording.
const recTickInterval = 250 * time.Millisecond

// recTickMsg is the recording poll tick.
type recTickMsg struct{}

// noteDoneMsg carries the finished note back to the update loop.
type noteDoneMsg struct {
	note wish.VoiceNote
	pcm  []byte
	err  error
}

// focus targets within the details step.
const (
	focusNone = iota
	focusTitle
	focusDesc
	focusImage
)

type detailsKeyMap struct {
	Title    key.Binding
	Desc     key.Binding
	Attach   key.Binding
	Record   key.Binding
	Play     key.Binding
	Remove   key.Binding
	NoteUp   key.Binding
	NoteDown key.Binding
	Continue key.Binding
	Back     key.Binding
}

func defaultDetailsKeyMap() detailsKeyMap {
	return detailsKeyMap{
		Title:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "edit title")),
		Desc:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "edit description")),
		Attach:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attach image")),
		Record:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record/stop voice note")),
		Play:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play/stop note")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove note")),
		NoteUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "prev note")),
		NoteDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "next note")),
		Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// detailsStep is step 2: title, description, and attachments.
type detailsStep struct {
	draft  *wish.Draft
	deps   Deps
	holder *sessionHolder
	keys   detailsKeyMap

	title textinput.Model
	desc  textarea.Model
	image textinput.Model
	focus int

	noteIdx   int
	recording bool
	notePCM   [][]byte
	errMsg    string
}

func newDetailsStep(draft *wish.Draft, deps Deps, holder *sessionHolder) tea.Model {
	title := textinput.New()
	title.Placeholder = wish.Lookup(draft.Category).Placeholder
	title.Prompt = "> "
	title.CharLimit = 120

	desc := textarea.New()
	desc.Placeholder = "Any details helpers should know (optional)"
	desc.SetHeight(3)

	image := textinput.New()
	image.Placeholder = "/path/to/photo.jpg"
	image.Prompt = "> "

	return &detailsStep{
		draft:  draft,
		deps:   deps,
		holder: holder,
		keys:   defaultDetailsKeyMap(),
		title:  title,
		desc:   desc,
		image:  image,
	}
}

func (d *detailsStep) Init() tea.Cmd {
	// The placeholder follows the category chosen in step 1.
	d.title.Placeholder = wish.Lookup(d.draft.Category).Placeholder
	d.errMsg = ""

	return nil
}

func (d *detailsStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		if d.focus != focusNone {
			return d.updateFocused(typedMsg)
		}

		return d.handleKey(typedMsg)

	case recTickMsg:
		return d.handleRecTick()

	case noteDoneMsg:
		d.recording = false

		if typedMsg.err != nil {
			d.errMsg = fmt.Sprintf("Recording failed: %v", typedMsg.err)

			return d, nil
		}

		d.draft.AddVoiceNote(typedMsg.note)
		d.notePCM = append(d.notePCM, typedMsg.pcm)
		d.noteIdx = len(d.draft.VoiceNotes) - 1
	}

	return d, nil
}

//nolint:cyclop // flat key dispatch
func (d *detailsStep) handleKey(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, d.keys.Title):
		d.focus = focusTitle
		d.title.SetValue(d.draft.Title)

		return d, d.title.Focus()

	case key.Matches(keyMsg, d.keys.Desc):
		d.focus = focusDesc
		d.desc.SetValue(d.draft.Description)

		return d, d.desc.Focus()

	case key.Matches(keyMsg, d.keys.Attach):
		d.focus = focusImage
		d.image.SetValue("")

		return d, d.image.Focus()

	case key.Matches(keyMsg, d.keys.Record):
		return d, d.toggleRecording()

	case key.Matches(keyMsg, d.keys.Play):
		d.togglePlayback()

	case key.Matches(keyMsg, d.keys.Remove):
		d.removeNote()

	case key.Matches(keyMsg, d.keys.NoteUp):
		d.noteIdx = clampIndex(d.noteIdx-1, len(d.draft.VoiceNotes))

	case key.Matches(keyMsg, d.keys.NoteDown):
		d.noteIdx = clampIndex(d.noteIdx+1, len(d.draft.VoiceNotes))

	case key.Matches(keyMsg, d.keys.Continue):
		// Silent guard: without a title the control stays inert.
		if d.draft.StepComplete(wish.StepDetails) {
			return d, steps.NextCmd
		}

	case key.Matches(keyMsg, d.keys.Back):
		return d, steps.PrevCmd
	}

	return d, nil
}

func (d *detailsStep) updateFocused(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Esc commits and blurs; enter does the same for single-line fields.
	if keyMsg.Type == tea.KeyEsc || (keyMsg.Type == tea.KeyEnter && d.focus != focusDesc) {
		d.commitFocused()

		return d, nil
	}

	var cmd tea.Cmd

	switch d.focus {
	case focusTitle:
		d.title, cmd = d.title.Update(keyMsg)
		d.draft.Title = d.title.Value()
	case focusDesc:
		d.desc, cmd = d.desc.Update(keyMsg)
		d.draft.Description = d.desc.Value()
	case focusImage:
		d.image, cmd = d.image.Update(keyMsg)
	}

	return d, cmd
}

func (d *detailsStep) commitFocused() {
	switch d.focus {
	case focusTitle:
		d.draft.Title = d.title.Value()
		d.title.Blur()
	case focusDesc:
		d.draft.Description = d.desc.Value()
		d.desc.Blur()
	case focusImage:
		d.attachImage(strings.TrimSpace(d.image.Value()))
		d.image.Blur()
	}

	d.focus = focusNone
}

// attachImage validates the path before mutating the draft; a bad path
// surfaces a message and leaves state untouched.
func (d *detailsStep) attachImage(path string) {
	if path == "" {
		return
	}

	if _, err := os.Stat(path); err != nil {
		d.errMsg = fmt.Sprintf("Cannot read %s", path)

		return
	}

	d.draft.AddImage(path)
	d.errMsg = ""
}

func (d *detailsStep) toggleRecording() tea.Cmd {
	if d.recording {
		return d.finishRecording()
	}

	if d.deps.StartSession == nil {
		d.errMsg = "Recording unavailable"

		return nil
	}

	session, err := d.deps.StartSession()
	if err != nil {
		// Microphone permission or device failure: abandon, nothing
		// committed.
		d.errMsg = fmt.Sprintf("Cannot record: %v", err)

		return nil
	}

	d.holder.set(session)
	d.recording = true
	d.errMsg = ""

	return recTick()
}

func (d *detailsStep) handleRecTick() (tea.Model, tea.Cmd) {
	if !d.recording {
		return d, nil
	}

	session := d.holder.get()
	if session != nil && session.Elapsed() >= d.deps.MaxNoteDuration {
		// Cap reached; the session already force-stopped the device.
		return d, d.finishRecording()
	}

	return d, recTick()
}

func (d *detailsStep) finishRecording() tea.Cmd {
	session := d.holder.take()
	if session == nil {
		d.recording = false

		return nil
	}

	path := filepath.Join(d.deps.NotesDir, fmt.Sprintf("note-%d.mp3", time.Now().UnixNano()))
	ctx := d.deps.Ctx

	return func() tea.Msg {
		note, err := session.Finish(ctx, path)
		if err != nil {
			return noteDoneMsg{err: err}
		}

		return noteDoneMsg{
			note: wish.VoiceNote{Path: note.Path, DurationSeconds: note.DurationSeconds},
			pcm:  note.PCM,
		}
	}
}

func (d *detailsStep) togglePlayback() {
	if d.deps.Player == nil || d.noteIdx < 0 || d.noteIdx >= len(d.notePCM) {
		return
	}

	if _, err := d.deps.Player.Toggle(d.deps.Ctx, d.noteIdx, d.notePCM[d.noteIdx]); err != nil {
		d.errMsg = fmt.Sprintf("Playback failed: %v", err)
	}
}

func (d *detailsStep) removeNote() {
	if d.noteIdx < 0 || d.noteIdx >= len(d.draft.VoiceNotes) {
		return
	}

	// Removing the playing note, or any note before it, desyncs the
	// player's index from the list; release the handle in both cases.
	if d.deps.Player != nil {
		if active := d.deps.Player.ActiveIndex(); d.noteIdx <= active {
			d.deps.Player.Stop(d.deps.Ctx)
		}
	}

	d.draft.RemoveVoiceNote(d.noteIdx)
	d.notePCM = append(d.notePCM[:d.noteIdx], d.notePCM[d.noteIdx+1:]...)
	d.noteIdx = clampIndex(d.noteIdx, len(d.draft.VoiceNotes))
}

func recTick() tea.Cmd {
	return tea.Tick(recTickInterval, func(time.Time) tea.Msg {
		return recTickMsg{}
	})
}

func (d *detailsStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Title: "))
	if d.focus == focusTitle {
		sb.WriteString(d.title.View())
	} else if d.draft.Title == "" {
		sb.WriteString(style.Muted.Render("(required)"))
	} else {
		sb.WriteString(d.draft.Title)
	}
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Description:"))
	sb.WriteString("\n")
	if d.focus == focusDesc {
		sb.WriteString(d.desc.View())
	} else if d.draft.Description == "" {
		sb.WriteString(style.Muted.Render("(optional)"))
	} else {
		sb.WriteString(d.draft.Description)
	}
	sb.WriteString("\n\n")

	d.viewAttachments(&sb)

	if d.errMsg != "" {
		sb.WriteString(style.Error.Render(d.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeyHelp(d.keys.Title, " "))
	sb.WriteString(renderKeyHelp(d.keys.Desc, " "))
	sb.WriteString(renderKeyHelp(d.keys.Attach, " "))
	sb.WriteString(renderKeyHelp(d.keys.Record, "\n"))
	sb.WriteString(renderKeyHelp(d.keys.Play, " "))
	sb.WriteString(renderKeyHelp(d.keys.Remove, " "))
	sb.WriteString(renderKeyHelp(d.keys.Continue, " "))
	sb.WriteString(renderKeyHelp(d.keys.Back, ""))

	return sb.String()
}

func (d *detailsStep) viewAttachments(sb *strings.Builder) {
	if len(d.draft.Images) > 0 {
		sb.WriteString(style.Label.Render("Images:"))
		sb.WriteString("\n")

		for _, path := range d.draft.Images {
			sb.WriteString(style.Bullet.Render("• "))
			sb.WriteString(style.Muted.Render(path))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	if d.focus == focusImage {
		sb.WriteString(style.Label.Render("Attach image: "))
		sb.WriteString(d.image.View())
		sb.WriteString("\n\n")
	}

	if d.recording {
		session := d.holder.get()

		remaining := d.deps.MaxNoteDuration
		var level string
		if session != nil {
			remaining -= session.Elapsed()
			level = waveform.New(sessionLevels{session: session}, 20).View()
		}

		if remaining < 0 {
			remaining = 0
		}

		sb.WriteString(style.Warning.Render(fmt.Sprintf("● Recording… %ds left ", int(remaining.Seconds()))))
		sb.WriteString(level)
		sb.WriteString("\n\n")
	}

	if len(d.draft.VoiceNotes) > 0 {
		sb.WriteString(style.Label.Render("Voice notes:"))
		sb.WriteString("\n")

		playing := -1
		if d.deps.Player != nil {
			playing = d.deps.Player.ActiveIndex()
		}

		for i, note := range d.draft.VoiceNotes {
			marker := "  "
			if i == playing {
				marker = style.Success.Render("▶ ")
			}

			line := fmt.Sprintf("%snote %d (%ds)", marker, i+1, note.DurationSeconds)
			if i == d.noteIdx {
				line = style.Selected.Render(line)
			}

			sb.WriteString(line)
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}
}
