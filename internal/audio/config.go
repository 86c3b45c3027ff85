package audio

import (
	"github.com/gen2brain/malgo"
)

// DeviceConfig describes how to open a device, in capture or playback
// mode depending on which channel count is set.
type DeviceConfig struct {
	Format           malgo.FormatType
	CaptureChannels  int
	PlaybackChannels int
	SampleRate       int

	// OnDrained is invoked once, from the audio thread, when a playback
	// stream has consumed all buffered data. Only used in playback mode.
	OnDrained func()
}
