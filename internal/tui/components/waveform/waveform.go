// Package waveform renders microphone input levels as a compact bar of
// block characters.
package waveform

import (
	"math"
	"strings"

	"github.com/quickwish/quickwish/internal/tui/style"
	"github.com/quickwish/quickwish/pkg/uictl"
)

// Block characters for amplitude visualization, empty to full.
const blockChars = " ▁▂▃▄▅▆▇█"

// Model is a single-row level meter. It has no timer of its own; the
// owning step re-renders it on its recording tick.
type Model struct {
	levels uictl.Levels[int16]
	width  int
}

// New creates a meter of the given width reading from levels.
func New(levels uictl.Levels[int16], width int) Model {
	if width < 1 {
		width = 1
	}

	return Model{levels: levels, width: width}
}

// View renders the meter.
func (m Model) View() string {
	if m.levels == nil {
		return m.renderEmpty()
	}

	samples := m.levels.Read()
	if len(samples) == 0 {
		return m.renderEmpty()
	}

	runes := []rune(blockChars)
	bucketSize := max(1, len(samples)/m.width)

	var sb strings.Builder

	for col := 0; col < m.width; col++ {
		start := col * bucketSize
		if start >= len(samples) {
			sb.WriteRune(runes[0])

			continue
		}

		end := min(start+bucketSize, len(samples))
		amp := maxAbsAmplitude(samples[start:end])
		sb.WriteRune(runes[amplitudeToBlock(amp)])
	}

	return style.Success.Render(sb.String())
}

func (m Model) renderEmpty() string {
	return style.Muted.Render(strings.Repeat("▁", m.width))
}

// maxAbsAmplitude returns the loudest sample magnitude in the bucket.
func maxAbsAmplitude(samples []int16) int16 {
	var maxAmp int16

	for _, s := range samples {
		// -32768 has no positive int16 counterpart
		if s == math.MinInt16 {
			return math.MaxInt16
		}

		if s < 0 {
			s = -s
		}

		if s > maxAmp {
			maxAmp = s
		}
	}

	return maxAmp
}

// amplitudeToBlock maps an amplitude to a block index (0-8). Square
// root scaling keeps quiet speech visible.
func amplitudeToBlock(amp int16) int {
	if amp == 0 {
		return 0
	}

	const maxAmp = float64(math.MaxInt16)

	normalized := float64(amp) / maxAmp
	scaled := math.Sqrt(normalized) * 8

	return min(int(scaled), 8)
}
