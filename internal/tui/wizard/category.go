package wizard

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/tui/steps"
	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/internal/wish"
)

// autoAdvanceDelay debounces double-taps and lets the selection
// highlight render before the step changes.
const autoAdvanceDelay = 400 * time.Millisecond

// autoAdvanceMsg fires after the delay once a selection is complete.
type autoAdvanceMsg struct{}

type categoryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
}

func defaultCategoryKeyMap() categoryKeyMap {
	return categoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// categoryStep is step 1: pick a category, and where the category has
// sub-categories, drill down and pick one of those too.
type categoryStep struct {
	draft     *wish.Draft
	keys      categoryKeyMap
	catalog   []wish.CategoryInfo
	idx       int
	subMode   bool
	subIdx    int
	advancing bool
}

func newCategoryStep(draft *wish.Draft) tea.Model {
	return &categoryStep{
		draft:   draft,
		keys:    defaultCategoryKeyMap(),
		catalog: wish.Catalog(),
	}
}

func (c *categoryStep) Init() tea.Cmd {
	c.advancing = false

	return nil
}

func (c *categoryStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMsg := teaMsg.(type) {
	case tea.KeyMsg:
		// Ignore input while the auto-advance timer runs; a second tap
		// must not double-fire the transition.
		if c.advancing {
			return c, nil
		}

		return c.handleKey(typedMsg)

	case autoAdvanceMsg:
		c.advancing = false
		if c.draft.StepComplete(wish.StepCategory) {
			return c, steps.NextCmd
		}
	}

	return c, nil
}

func (c *categoryStep) handleKey(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, c.keys.Up):
		c.move(-1)
	case key.Matches(keyMsg, c.keys.Down):
		c.move(1)
	case key.Matches(keyMsg, c.keys.Select):
		return c, c.selectCurrent()
	case key.Matches(keyMsg, c.keys.Back):
		if c.subMode {
			c.subMode = false

			return c, nil
		}

		// Step 1 has no Back; esc cancels the wizard instead.
		return c, func() tea.Msg { return ClosedMsg{} }
	}

	return c, nil
}

func (c *categoryStep) move(delta int) {
	if c.subMode {
		subs := wish.SubCategories(c.draft.Category)
		c.subIdx = clampIndex(c.subIdx+delta, len(subs))

		return
	}

	c.idx = clampIndex(c.idx+delta, len(c.catalog))
}

func (c *categoryStep) selectCurrent() tea.Cmd {
	if c.subMode {
		subs := wish.SubCategories(c.draft.Category)
		c.draft.SetSubCategory(subs[c.subIdx].SubCategory)
		c.advancing = true

		return autoAdvanceCmd()
	}

	info := c.catalog[c.idx]
	c.draft.SetCategory(info.Category)

	if wish.RequiresSubCategory(info.Category) {
		// Selecting the category alone does not advance; drill down.
		c.subMode = true
		c.subIdx = 0

		return nil
	}

	c.advancing = true

	return autoAdvanceCmd()
}

func autoAdvanceCmd() tea.Cmd {
	return tea.Tick(autoAdvanceDelay, func(time.Time) tea.Msg {
		return autoAdvanceMsg{}
	})
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}

	if i >= n {
		return n - 1
	}

	return i
}

func (c *categoryStep) View() string {
	var sb strings.Builder

	if c.subMode {
		info := wish.Lookup(c.draft.Category)
		sb.WriteString(style.Label.Render(info.Label))
		sb.WriteString(style.Subtitle.Render(" - choose a type"))
		sb.WriteString("\n\n")

		for i, sub := range info.SubCategories {
			sb.WriteString(renderChoice(sub.Label, i == c.subIdx, c.draft.SubCategory == sub.SubCategory))
		}
	} else {
		sb.WriteString(style.Subtitle.Render("What do you need help with?"))
		sb.WriteString("\n\n")

		for i, info := range c.catalog {
			sb.WriteString(renderChoice(info.Label, i == c.idx, c.draft.Category == info.Category))
		}

		sb.WriteString("\n")
		sb.WriteString(style.Muted.Render(c.catalog[c.idx].Placeholder))
	}

	sb.WriteString("\n\n")
	sb.WriteString(renderKeyHelp(c.keys.Select, " "))
	sb.WriteString(renderKeyHelp(c.keys.Back, "\n"))

	return sb.String()
}

func renderChoice(label string, cursor, chosen bool) string {
	marker := "  "
	if chosen {
		marker = style.Success.Render("✓ ")
	}

	line := marker + label
	if cursor {
		line = style.Selected.Render(line)
	}

	return line + "\n"
}
