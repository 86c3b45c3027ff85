package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// NoActiveNote is the Player's index when nothing is playing.
const NoActiveNote = -1

// PlaybackHandle is one acquired playback resource. Stop releases the
// underlying device; a handle is single-use.
type PlaybackHandle interface {
	Play(ctx context.Context, pcm []byte, onDone func()) error
	Stop(ctx context.Context) error
}

// HandleFactory acquires a fresh playback handle.
type HandleFactory func() PlaybackHandle

// Player enforces the one-at-a-time playback discipline over a set of
// voice notes: starting note B while A plays releases A's handle before
// acquiring B's, toggling the active note stops it, and natural
// completion auto-clears the active marker. At most one handle is ever
// held.
type Player struct {
	mu          sync.Mutex
	newHandle   HandleFactory
	active      PlaybackHandle
	activeIndex int
}

// NewPlayer creates a player that acquires handles from factory.
func NewPlayer(factory HandleFactory) *Player {
	return &Player{
		newHandle:   factory,
		activeIndex: NoActiveNote,
	}
}

// Toggle starts playback of the note at index, stopping whatever was
// playing first. Toggling the currently active note stops it instead of
// restarting. Returns whether the note is now playing.
func (p *Player) Toggle(ctx context.Context, index int, pcm []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasActive := p.activeIndex

	if p.active != nil {
		// Release the previous handle before acquiring a new one.
		if err := p.active.Stop(ctx); err != nil {
			slog.Error("failed to stop playback", "error", err)
		}

		p.active = nil
		p.activeIndex = NoActiveNote
	}

	if wasActive == index {
		return false, nil
	}

	handle := p.newHandle()
	if err := handle.Play(ctx, pcm, func() { p.completed(index) }); err != nil {
		return false, fmt.Errorf("failed to start playback: %w", err)
	}

	p.active = handle
	p.activeIndex = index

	return true, nil
}

// completed clears the active marker after natural playback completion
// and releases the handle. Runs off the audio thread since Stop
// deallocates the device.
func (p *Player) completed(index int) {
	go func() {
		p.mu.Lock()

		if p.activeIndex != index || p.active == nil {
			// A newer note took over in the meantime; nothing to do.
			p.mu.Unlock()

			return
		}

		handle := p.active
		p.active = nil
		p.activeIndex = NoActiveNote
		p.mu.Unlock()

		if err := handle.Stop(context.Background()); err != nil {
			slog.Error("failed to release playback handle", "error", err)
		}
	}()
}

// ActiveIndex returns the index of the note currently playing, or
// NoActiveNote.
func (p *Player) ActiveIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.activeIndex
}

// Stop releases the active handle, if any. Covers the explicit stop,
// note removal, and screen teardown exit paths.
func (p *Player) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return
	}

	if err := p.active.Stop(ctx); err != nil {
		slog.Error("failed to stop playback", "error", err)
	}

	p.active = nil
	p.activeIndex = NoActiveNote
}

// playbackPacketSize matches the capture packet granularity.
const playbackPacketSize = 4096

// deviceHandle is the malgo-backed PlaybackHandle.
type deviceHandle struct {
	sampleRate int
	channels   int
	dev        Device
}

// NewDeviceHandleFactory returns a factory producing real playback
// handles at the given PCM format.
func NewDeviceHandleFactory(sampleRate, channels int) HandleFactory {
	return func() PlaybackHandle {
		return &deviceHandle{sampleRate: sampleRate, channels: channels}
	}
}

func (h *deviceHandle) Play(ctx context.Context, pcm []byte, onDone func()) error {
	// Pre-chunk the whole note; the channel is closed immediately so the
	// device pads with silence and fires OnDrained when it runs out.
	packets := (len(pcm) + playbackPacketSize - 1) / playbackPacketSize
	dataC := make(chan DataPacket, packets)

	for offset := 0; offset < len(pcm); offset += playbackPacketSize {
		end := min(offset+playbackPacketSize, len(pcm))
		dataC <- pcm[offset:end]
	}
	close(dataC)

	h.dev = NewDevice(&DeviceConfig{
		Format:           malgo.FormatS16,
		PlaybackChannels: h.channels,
		SampleRate:       h.sampleRate,
		OnDrained:        onDone,
	})

	if err := h.dev.PlayFrom(ctx, dataC); err != nil {
		return fmt.Errorf("failed to open playback device: %w", err)
	}

	if err := h.dev.Start(ctx); err != nil {
		h.dev.Dealloc(ctx)

		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (h *deviceHandle) Stop(ctx context.Context) error {
	if h.dev == nil {
		return nil
	}

	err := h.dev.Stop(ctx)
	h.dev.Dealloc(ctx)
	h.dev = nil

	return err
}
