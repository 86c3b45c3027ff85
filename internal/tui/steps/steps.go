// Package steps provides the linear step container for the wish
// wizard: strictly ±1 transitions, no skipping.
package steps

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NextMsg signals the container to advance to the next step. Steps
// emit it only once their forward guard passes.
type NextMsg struct{}

// PrevMsg signals the container to go back one step. Always honored
// except on the first step.
type PrevMsg struct{}

// NextCmd is a convenience command emitting NextMsg.
func NextCmd() tea.Msg { return NextMsg{} }

// PrevCmd is a convenience command emitting PrevMsg.
func PrevCmd() tea.Msg { return PrevMsg{} }

// Step is one named wizard step.
type Step struct {
	Name string
	mdl  tea.Model
}

func NewStep(name string, mdl tea.Model) Step {
	return Step{
		Name: name,
		mdl:  mdl,
	}
}

func (s Step) Init() tea.Cmd {
	return s.mdl.Init()
}

func (s Step) Update(msg tea.Msg) (Step, tea.Cmd) {
	updatedMdl, cmd := s.mdl.Update(msg)
	s.mdl = updatedMdl
	return s, cmd
}

func (s Step) View() string {
	return s.mdl.View()
}

// Model holds the ordered steps and the current position.
type Model struct {
	steps []Step
	curr  int
}

func New(steps []Step) Model {
	return Model{
		steps: steps,
		curr:  0,
	}
}

func (m Model) current() Step {
	return m.steps[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.current().Init()
}

func (m Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	switch teaMsg.(type) {
	case NextMsg:
		if m.curr >= len(m.steps)-1 {
			return m, nil
		}
		m.curr++
		return m, m.current().Init()

	case PrevMsg:
		if m.curr <= 0 {
			return m, nil
		}
		m.curr--
		return m, m.current().Init()
	}

	st, cmd := m.current().Update(teaMsg)
	m.steps[m.curr] = st

	return m, cmd
}

func (m Model) View() string {
	return m.current().View()
}

// Current returns the 1-based ordinal of the current step.
func (m Model) Current() int {
	return m.curr + 1
}

// Count returns the number of steps.
func (m Model) Count() int {
	return len(m.steps)
}

// CurrentName returns the name of the current step.
func (m Model) CurrentName() string {
	return m.current().Name
}
