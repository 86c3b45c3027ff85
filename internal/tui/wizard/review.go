package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/tui/steps"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

const scheduleLayout = "2006-01-02 15:04"

// publishResultMsg carries the outcome of a submission attempt.
type publishResultMsg struct {
	wish *wish.Wish
	err  error
}

type reviewKeyMap struct {
	Price     key.Binding
	Immediate key.Binding
	Schedule  key.Binding
	Publish   key.Binding
	Back      key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Price:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "edit price")),
		Immediate: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle now/later")),
		Schedule:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "set schedule")),
		Publish:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "publish")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

type reviewField int

const (
	reviewFieldNone reviewField = iota
	reviewFieldPrice
	reviewFieldSchedule
)

// reviewStep is step 4: price, timing, a summary of everything entered
// so far, and the publish action. While a submission is in flight all
// input except the spinner is ignored, so a wish can never be posted
// twice from one draft.
type reviewStep struct {
	draft *wish.Draft
	deps  Deps
	keys  reviewKeyMap

	price      textinput.Model
	schedule   textinput.Model
	editing    reviewField
	submitting bool
	errMsg     string
}

func newReviewStep(draft *wish.Draft, deps Deps) tea.Model {
	price := textinput.New()
	price.Placeholder = "0.00"
	price.Prompt = "₹ "
	price.CharLimit = 12

	schedule := textinput.New()
	schedule.Placeholder = scheduleLayout
	schedule.Prompt = "> "
	schedule.CharLimit = len(scheduleLayout)

	return &reviewStep{
		draft:    draft,
		deps:     deps,
		keys:     defaultReviewKeyMap(),
		price:    price,
		schedule: schedule,
	}
}

func (r *reviewStep) Init() tea.Cmd {
	r.price.SetValue(r.draft.PriceInput)

	return nil
}

func (r *reviewStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		if r.submitting {
			return r, nil
		}

		if r.editing != reviewFieldNone {
			return r.updateEditing(typedMsg)
		}

		return r.handleKey(typedMsg)

	case publishResultMsg:
		r.submitting = false

		if typedMsg.err != nil {
			// The draft is untouched; the user can fix and retry.
			r.errMsg = fmt.Sprintf("Publish failed: %v", typedMsg.err)

			return r, nil
		}

		if r.deps.Store != nil {
			r.deps.Store.TriggerRefresh()
		}

		published := typedMsg.wish

		return r, func() tea.Msg {
			return PublishedMsg{Wish: published}
		}
	}

	return r, nil
}

func (r *reviewStep) handleKey(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, r.keys.Price):
		r.editing = reviewFieldPrice
		r.price.SetValue(r.draft.PriceInput)

		return r, r.price.Focus()

	case key.Matches(keyMsg, r.keys.Immediate):
		r.draft.SetImmediate(!r.draft.IsImmediate)
		r.errMsg = ""

	case key.Matches(keyMsg, r.keys.Schedule):
		r.editing = reviewFieldSchedule
		if r.draft.ScheduledAt != nil {
			r.schedule.SetValue(r.draft.ScheduledAt.Format(scheduleLayout))
		}

		return r, r.schedule.Focus()

	case key.Matches(keyMsg, r.keys.Publish):
		// Silent guard, same as the earlier steps: the view already
		// shows what is missing.
		if !r.draft.Publishable() {
			return r, nil
		}

		r.submitting = true
		r.errMsg = ""

		return r, r.publishCmd()

	case key.Matches(keyMsg, r.keys.Back):
		return r, steps.PrevCmd
	}

	return r, nil
}

func (r *reviewStep) updateEditing(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMsg.Type == tea.KeyEnter || keyMsg.Type == tea.KeyEsc {
		commit := keyMsg.Type == tea.KeyEnter

		switch r.editing {
		case reviewFieldPrice:
			if commit {
				r.draft.SetPriceInput(r.price.Value())
			}
			r.price.SetValue(r.draft.PriceInput)
			r.price.Blur()

		case reviewFieldSchedule:
			if commit {
				r.commitSchedule()
			}
			r.schedule.Blur()
		}

		r.editing = reviewFieldNone

		return r, nil
	}

	var cmd tea.Cmd

	switch r.editing {
	case reviewFieldPrice:
		r.price, cmd = r.price.Update(keyMsg)
	case reviewFieldSchedule:
		r.schedule, cmd = r.schedule.Update(keyMsg)
	}

	return r, cmd
}

func (r *reviewStep) commitSchedule() {
	text := strings.TrimSpace(r.schedule.Value())
	if text == "" {
		return
	}

	when, err := time.ParseInLocation(scheduleLayout, text, time.Local)
	if err != nil {
		r.errMsg = fmt.Sprintf("Could not read %q, expected %s", text, scheduleLayout)

		return
	}

	r.draft.SetScheduledAt(when)
	r.errMsg = ""
}

func (r *reviewStep) publishCmd() tea.Cmd {
	ctx := r.deps.Ctx
	client := r.deps.Client
	req := r.draft.BuildCreate()

	return func() tea.Msg {
		created, err := client.CreateWish(ctx, req)

		return publishResultMsg{wish: created, err: err}
	}
}

func publishBlockedText(d *wish.Draft) string {
	if strings.TrimSpace(d.Title) == "" {
		return "Add a title before publishing."
	}

	if _, ok := d.Price(); !ok {
		return "Set a price before publishing."
	}

	return "Pick a scheduled time, or switch back to 'now'."
}

func (r *reviewStep) View() string {
	var sb strings.Builder

	sb.WriteString(r.renderSummary())
	sb.WriteString("\n")

	sb.WriteString(style.Label.Render("Price: "))
	if r.editing == reviewFieldPrice {
		sb.WriteString(r.price.View())
	} else if r.draft.PriceInput == "" {
		sb.WriteString(style.Muted.Render("(not set)"))
	} else {
		sb.WriteString("₹" + r.draft.PriceInput)
	}
	sb.WriteString("\n")

	sb.WriteString(style.Label.Render("When: "))
	switch {
	case r.editing == reviewFieldSchedule:
		sb.WriteString(r.schedule.View())
	case r.draft.IsImmediate:
		sb.WriteString("now")
	case r.draft.ScheduledAt != nil:
		sb.WriteString(r.draft.ScheduledAt.Format(scheduleLayout))
	default:
		sb.WriteString(style.Warning.Render("later (time not set)"))
	}
	sb.WriteString("\n")

	if r.submitting {
		sb.WriteString("\n")
		sb.WriteString(style.Subtitle.Render("Publishing…"))
		sb.WriteString("\n")
	} else if !r.draft.Publishable() {
		sb.WriteString("\n")
		sb.WriteString(style.Muted.Render(publishBlockedText(r.draft)))
		sb.WriteString("\n")
	}

	if r.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render(r.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeyHelp(r.keys.Price, " "))
	sb.WriteString(renderKeyHelp(r.keys.Immediate, " "))
	sb.WriteString(renderKeyHelp(r.keys.Schedule, "\n"))
	sb.WriteString(renderKeyHelp(r.keys.Publish, " "))
	sb.WriteString(renderKeyHelp(r.keys.Back, ""))

	return sb.String()
}

func (r *reviewStep) renderSummary() string {
	var sb strings.Builder

	d := r.draft
	cat := wish.Lookup(d.Category)

	sb.WriteString(style.Label.Render("Category: "))
	sb.WriteString(cat.Label)
	if d.SubCategory != "" {
		sb.WriteString(" / " + string(d.SubCategory))
	}
	sb.WriteString("\n")

	sb.WriteString(style.Label.Render("Title: "))
	if strings.TrimSpace(d.Title) == "" {
		sb.WriteString(style.Warning.Render("(missing)"))
	} else {
		sb.WriteString(d.Title)
	}
	sb.WriteString("\n")

	if desc := strings.TrimSpace(d.Description); desc != "" {
		sb.WriteString(style.Label.Render("Description: "))
		sb.WriteString(desc)
		sb.WriteString("\n")
	}

	sb.WriteString(style.Label.Render("Where: "))
	if d.Location != nil && d.Location.Address != "" {
		sb.WriteString(d.Location.Address)
	} else {
		sb.WriteString(style.Muted.Render("(not set)"))
	}
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("  within %d km", d.RadiusKm)))
	sb.WriteString("\n")

	if n := len(d.Images); n > 0 {
		sb.WriteString(style.Label.Render("Photos: "))
		sb.WriteString(fmt.Sprintf("%d", n))
		sb.WriteString("\n")
	}

	if n := len(d.VoiceNotes); n > 0 {
		sb.WriteString(style.Label.Render("Voice notes: "))
		sb.WriteString(fmt.Sprintf("%d", n))
		sb.WriteString("\n")
	}

	return sb.String()
}
