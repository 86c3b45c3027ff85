package waveform

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// fixedLevels implements uictl.Levels for testing.
type fixedLevels struct {
	samples []int16
}

func (f fixedLevels) Read() []int16 { return f.samples }

func TestView_EmptyShowsBaseline(t *testing.T) {
	m := New(fixedLevels{}, 10)

	assert.Equal(t, strings.Repeat("▁", 10), m.View())
}

func TestView_NilLevelsShowsBaseline(t *testing.T) {
	m := New(nil, 4)

	assert.Equal(t, strings.Repeat("▁", 4), m.View())
}

func TestView_LoudInputFillsBlocks(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 32767
	}

	m := New(fixedLevels{samples: samples}, 10)

	assert.Equal(t, strings.Repeat("█", 10), m.View())
}

func TestView_SilenceRendersSpaces(t *testing.T) {
	m := New(fixedLevels{samples: make([]int16, 100)}, 10)

	assert.Equal(t, strings.Repeat(" ", 10), m.View())
}

func TestAmplitudeToBlock_PerceptualScale(t *testing.T) {
	assert.Equal(t, 0, amplitudeToBlock(0))
	assert.Equal(t, 8, amplitudeToBlock(32767))

	// A quarter-scale signal still fills half the meter.
	assert.Equal(t, 4, amplitudeToBlock(8192))
}

func TestMinWidthClamped(t *testing.T) {
	m := New(nil, 0)

	assert.Equal(t, "▁", m.View())
}
